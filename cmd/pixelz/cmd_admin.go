package main

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"xdao.co/pixelz/contract"
	"xdao.co/pixelz/model"
	"xdao.co/pixelz/nft"
	"xdao.co/pixelz/provenance"
)

// transactCmd builds a command that sends one owner transaction.
func transactCmd(c *cliConfig, use, short string, args cobra.PositionalArgs, send func(ctx context.Context, b *contract.Binding, args []string) (*types.Receipt, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  usageArgs(args),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := c.openBinding(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeFn()

			receipt, err := send(cmd.Context(), b, args)
			if err != nil {
				return err
			}
			announce(c.out, "%s: transaction %s mined in block %s", cmd.Name(), receipt.TxHash.Hex(), receipt.BlockNumber)
			return nil
		},
	}
}

func startSaleCmd(c *cliConfig) *cobra.Command {
	return transactCmd(c, "start-sale", "begin Pixelz sales", cobra.NoArgs,
		func(ctx context.Context, b *contract.Binding, _ []string) (*types.Receipt, error) {
			return b.StartSale(ctx)
		})
}

func pauseSaleCmd(c *cliConfig) *cobra.Command {
	return transactCmd(c, "pause-sale", "pause Pixelz sales", cobra.NoArgs,
		func(ctx context.Context, b *contract.Binding, _ []string) (*types.Receipt, error) {
			return b.PauseSale(ctx)
		})
}

func setBaseURICmd(c *cliConfig) *cobra.Command {
	return transactCmd(c, "set-base-uri <uri>", "set the base URI token URIs are built from", cobra.ExactArgs(1),
		func(ctx context.Context, b *contract.Binding, args []string) (*types.Receipt, error) {
			return b.SetBaseURI(ctx, args[0])
		})
}

func withdrawCmd(c *cliConfig) *cobra.Command {
	return transactCmd(c, "withdraw", "withdraw the contract balance to the owner", cobra.NoArgs,
		func(ctx context.Context, b *contract.Binding, _ []string) (*types.Receipt, error) {
			return b.WithdrawAll(ctx)
		})
}

func reserveCmd(c *cliConfig) *cobra.Command {
	return transactCmd(c, "reserve <count>", "mint tokens to the owner for giveaways", cobra.ExactArgs(1),
		func(ctx context.Context, b *contract.Binding, args []string) (*types.Receipt, error) {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, model.NewError(model.KindValidation, "invalid count %q", args[0])
			}
			return b.ReserveGiveaway(ctx, n)
		})
}

func setProvenanceCmd(c *cliConfig) *cobra.Command {
	var assets bool
	cmd := &cobra.Command{
		Use:   "set-provenance <hash> | --assets <file>...",
		Short: "publish the collection provenance hash",
		Args: usageArgs(func(cmd *cobra.Command, args []string) error {
			if assets {
				return cobra.MinimumNArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := args[0]
			if assets {
				var err error
				if hash, _, err = provenance.HashFiles(args); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Provenance hash of %d assets: %s\n", len(args), hash)
			}

			b, closeFn, err := c.openBinding(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeFn()
			receipt, err := b.SetProvenanceHash(cmd.Context(), hash)
			if err != nil {
				return err
			}
			announce(c.out, "Provenance hash set in transaction %s", receipt.TxHash.Hex())
			return nil
		},
	}
	cmd.Flags().BoolVar(&assets, "assets", false, "compute the hash from the given asset files, in token order")
	return cmd
}

func adoptCmd(c *cliConfig) *cobra.Command {
	var (
		count int
		pay   string
	)
	cmd := &cobra.Command{
		Use:   "adopt",
		Short: "buy tokens from the sale without uploading content",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := contract.ValidatePurchaseCount(count); err != nil {
				return err
			}
			var payment *big.Int
			if pay != "" {
				var err error
				if payment, err = parseEther(pay); err != nil {
					return err
				}
			}

			b, closeFn, err := c.openBinding(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeFn()
			first, err := b.Purchase(cmd.Context(), count, payment)
			if err != nil {
				return err
			}
			announce(c.out, "Adopted %d pixelz, first token id %s", count, pterm.Green(first.String()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, fmt.Sprintf("number of tokens to adopt (1-%d)", contract.MaxPurchase))
	cmd.Flags().StringVarP(&pay, "pay", "p", "", "amount to pay in ETH (default: the current price times count)")
	return cmd
}

func priceCmd(c *cliConfig) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "price",
		Short: "show the current sale price",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := c.openBinding(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			var price *big.Int
			if token != "" {
				id, err := nft.ParseTokenID(token)
				if err != nil {
					return err
				}
				price, err = b.CalculatePriceForToken(cmd.Context(), id)
				if err != nil {
					return err
				}
			} else if price, err = b.CalculatePrice(cmd.Context()); err != nil {
				return err
			}
			started, err := b.HasSaleStarted(cmd.Context())
			if err != nil {
				return err
			}
			return alignOutput(c.out, [][]string{
				{"Price:", pterm.Green(formatEther(price) + " ETH")},
				{"Price (wei):", price.String()},
				{"Sale Started:", strconv.FormatBool(started)},
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "price of a specific token id")
	return cmd
}

func ownedCmd(c *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "owned <address>",
		Short: "list the token ids held by an address",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !common.IsHexAddress(args[0]) {
				return model.NewError(model.KindValidation, "invalid address %q", args[0])
			}
			b, closeFn, err := c.openBinding(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			ids, err := b.TokensOfOwner(cmd.Context(), common.HexToAddress(args[0]))
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintf(c.out, "%s holds no tokens\n", args[0])
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(c.out, id.String())
			}
			return nil
		},
	}
}

// parseEther converts a decimal ETH amount to wei without going through
// floating point.
func parseEther(s string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok || r.Sign() < 0 {
		return nil, model.NewError(model.KindValidation, "invalid ETH amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(big.NewInt(params.Ether)))
	if !r.IsInt() {
		return nil, model.NewError(model.KindValidation, "ETH amount %q has more than 18 decimals", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

func formatEther(wei *big.Int) string {
	s := new(big.Rat).SetFrac(wei, big.NewInt(params.Ether)).FloatString(18)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

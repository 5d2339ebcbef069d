package main

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"xdao.co/pixelz/nft"
)

func mintCmd(c *cliConfig) *cobra.Command {
	var opts nft.CreateOptions
	cmd := &cobra.Command{
		Use:   "mint <asset-path>",
		Short: "store an asset and its metadata, then mint a token for it",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if opts.Name, err = c.promptIfEmpty(opts.Name, "Enter a name for your new NFT"); err != nil {
				return err
			}
			if opts.Description, err = c.promptIfEmpty(opts.Description, "Enter a description for your new NFT"); err != nil {
				return err
			}

			svc, closeFn, err := c.newService(cmd.Context(), c, true)
			if err != nil {
				return err
			}
			defer closeFn()

			token, err := svc.CreateFromAssetFile(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			announce(c.out, "Minted a new NFT:")
			return printNFT(c.out, token)
		},
	}
	cmd.Flags().StringVar(&opts.Name, "name", "", "name of the new NFT")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description of the new NFT")
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "address to receive the token (default: the signer)")
	return cmd
}

func (c *cliConfig) promptIfEmpty(value, label string) (string, error) {
	if strings.TrimSpace(value) != "" {
		return value, nil
	}
	return c.prompter.Text(label, "")
}

func showCmd(c *cliConfig) *cobra.Command {
	var opts nft.GetOptions
	cmd := &cobra.Command{
		Use:   "show <token-id>",
		Short: "show the owner, metadata and content addresses of a token",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := c.newService(cmd.Context(), c, false)
			if err != nil {
				return err
			}
			defer closeFn()

			token, err := svc.Get(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return printNFT(c.out, token)
		},
	}
	cmd.Flags().BoolVar(&opts.FetchCreationInfo, "creation-info", false, "include the creator address and block number")
	cmd.Flags().BoolVar(&opts.FetchAsset, "fetch-asset", false, "include the asset data, base64 encoded")
	return cmd
}

func transferCmd(c *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <token-id> <to-address>",
		Short: "transfer a token to another address",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := c.newService(cmd.Context(), c, true)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Transfer(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			announce(c.out, "Transferred token %s to %s", pterm.Green(args[0]), pterm.Yellow(args[1]))
			return nil
		},
	}
}

func pinCmd(c *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "pin <token-id>",
		Short: "pin a token's metadata and asset on the content store",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := c.newService(cmd.Context(), c, false)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Pin(cmd.Context(), args[0]); err != nil {
				return err
			}
			announce(c.out, "Pinned all data for token id %s", pterm.Green(args[0]))
			return nil
		},
	}
}

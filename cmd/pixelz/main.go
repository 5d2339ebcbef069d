package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"xdao.co/pixelz/model"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runWith(ctx, newCLIConfig(in, out, errOut), args)
}

func runWith(ctx context.Context, c *cliConfig, args []string) int {
	root := rootCmd(c)
	root.SetArgs(args)
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var uerr usageError
	if errors.As(err, &uerr) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintf(c.errOut, "%v\n\n", err)
		fmt.Fprintln(c.errOut, "Run 'pixelz --help' for usage.")
		return 2
	}
	if model.IsKind(err, model.KindUnconfirmedMint) {
		fmt.Fprintln(c.errOut, pterm.DefaultBox.WithTitle("WARNING").Sprint(
			"The mint transaction was mined but no token id could be read from it.\n"+
				"Funds may have been spent. Check the transaction before running mint again."))
	}
	fmt.Fprintf(c.errOut, "error: %v\n", err)
	return 1
}

// usageError marks errors that should exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// usageArgs turns positional argument validation failures into usage errors.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func rootCmd(c *cliConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pixelz",
		Short:         "mint, transfer and inspect Pixelz NFTs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return usagef("no command given")
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error { return usageError{err} })

	pf := cmd.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default ./pixelz.json if present)")
	pf.StringVar(&c.deploymentPath, "deployment", "", "deployment info file (default pixelz-deployment.json)")
	pf.StringVar(&c.rpcURL, "rpc", "", "Ethereum JSON-RPC endpoint")
	pf.StringVar(&c.signer, "signer", "", "signing key: <name>[/<role>] from the key store, a key file, or 0x hex")
	pf.StringVar(&c.keyDir, "key-dir", "", "key store directory (default ~/.pixelz/keys)")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&c.backend, "backend", "", "preferred content store backend from the storage config")

	cmd.AddCommand(
		mintCmd(c),
		showCmd(c),
		transferCmd(c),
		pinCmd(c),
		deployCmd(c),
		startSaleCmd(c),
		pauseSaleCmd(c),
		setBaseURICmd(c),
		setProvenanceCmd(c),
		withdrawCmd(c),
		reserveCmd(c),
		adoptCmd(c),
		priceCmd(c),
		ownedCmd(c),
		keyCmd(c),
		contentCmd(c),
		cidCmd(c),
	)
	return cmd
}

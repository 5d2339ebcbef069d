package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"xdao.co/pixelz/model"
	"xdao.co/pixelz/storage/casregistry"
)

// contentCmd exposes the content store directly, without touching the chain.
func contentCmd(c *cliConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "put, get and pin raw content on the configured store",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return usagef("content: missing subcommand")
		},
	}
	cmd.AddCommand(contentPutCmd(c), contentGetCmd(c), contentPinCmd(c), contentBackendsCmd(c))
	return cmd
}

func contentPutCmd(c *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "put <file>",
		Short: "store a file and print its address",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return model.WrapError(model.KindValidation, err, "read %s", args[0])
			}
			client, closeFn, err := c.openContent()
			if err != nil {
				return err
			}
			defer closeFn()

			uri, err := client.Store(cmd.Context(), b, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			return alignOutput(c.out, [][]string{
				{"Address:", uri.String()},
				{"Gateway URL:", client.GatewayURL(uri.String())},
			})
		},
	}
}

func contentGetCmd(c *cliConfig) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "get <address>",
		Short: "fetch content by address (ipfs://<cid>[/<path>] or a bare CID)",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := c.openContent()
			if err != nil {
				return err
			}
			defer closeFn()

			b, err := client.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outPath != "" {
				return os.WriteFile(outPath, b, 0o644)
			}
			_, err = c.out.Write(b)
			return err
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to a file instead of stdout")
	return cmd
}

func contentPinCmd(c *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "pin <address>",
		Short: "make content durable on every configured backend",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := c.openContent()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := client.Pin(cmd.Context(), args[0]); err != nil {
				return err
			}
			announce(c.out, "Pinned %s", args[0])
			return nil
		},
	}
}

func contentBackendsCmd(c *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "list the content store backends built into pixelz",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, b := range casregistry.List(casregistry.UsageCLI) {
				fmt.Fprintf(c.out, "%s\t%s\n", b.Name, b.Description)
			}
			return nil
		},
	}
}

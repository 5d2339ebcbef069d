package main

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xdao.co/pixelz/keys"
	"xdao.co/pixelz/model"
)

func keyCmd(c *cliConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "manage signing keys in the local key store",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return usagef("key: missing subcommand")
		},
	}
	cmd.AddCommand(keyInitCmd(c), keyDeriveCmd(c), keyListCmd(c), keyExportCmd(c), keyImportCmd(c))
	return cmd
}

func keyInitCmd(c *cliConfig) *cobra.Command {
	var (
		keyHex    string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "create a root key (random unless --key is given)",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := c.keyStore()
			if err != nil {
				return err
			}
			var key *ecdsa.PrivateKey
			if keyHex != "" {
				if key, err = keys.ParseKeyHex(keyHex); err != nil {
					return model.WrapError(model.KindValidation, err, "--key")
				}
			}
			addr, path, err := ks.InitializeRootKey(args[0], key, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s %s\n", addr.Hex(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyHex, "key", "", "hex private key to store instead of a random one")
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing key")
	return cmd
}

func keyDeriveCmd(c *cliConfig) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "derive <name> <role>",
		Short: "derive a role key from a root key",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := c.keyStore()
			if err != nil {
				return err
			}
			addr, path, err := ks.DeriveKeyFromRole(args[0], args[1], overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s %s\n", addr.Hex(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing role key")
	return cmd
}

func keyListCmd(c *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored keys and their roles",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := c.keyStore()
			if err != nil {
				return err
			}
			entries, err := ks.ListKeys()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(c.out, "no keys in %s\n", ks.Directory)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Name, e.Address.Hex(), strings.Join(e.Roles, ",")})
			}
			return alignOutput(c.out, rows)
		},
	}
}

func keyExportCmd(c *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "export <name>[/<role>]",
		Short: "print the address of a stored key",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := c.keyStore()
			if err != nil {
				return err
			}
			name, role := keys.ParseSigner(args[0])
			addr, err := ks.ExportKey(name, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, addr.Hex())
			return nil
		},
	}
}

func keyImportCmd(c *cliConfig) *cobra.Command {
	var (
		password  string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "import <name> <keystore-file>",
		Short: "import a key from an encrypted geth keystore file",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := c.keyStore()
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = c.prompter.Text("Keystore password", ""); err != nil {
					return err
				}
			}
			addr, err := ks.ImportKeystore(args[0], args[1], password, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "keystore password (prompted when empty)")
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing key")
	return cmd
}

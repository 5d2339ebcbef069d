package main

import (
	"os"

	"github.com/spf13/cobra"

	"xdao.co/pixelz/cidutil"
	"xdao.co/pixelz/content"
	"xdao.co/pixelz/model"
)

func cidCmd(c *cliConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "cid <file>...",
		Short: "print the content address each file would be stored under",
		Long: "Print the content address each file would be stored under.\n" +
			"Files larger than one IPFS chunk (256 KiB) are chunked by Kubo and get a different root address.",
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(args))
			for _, path := range args {
				b, err := os.ReadFile(path)
				if err != nil {
					return model.WrapError(model.KindValidation, err, "read %s", path)
				}
				id, err := cidutil.Sum(b)
				if err != nil {
					return err
				}
				rows = append(rows, []string{content.EnsureIPFSPrefix(id.String()), path})
			}
			return alignOutput(c.out, rows)
		},
	}
}

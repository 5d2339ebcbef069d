package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"xdao.co/pixelz/contract"
	"xdao.co/pixelz/deployment"
)

const defaultArtifactPath = "artifacts/contracts/Pixelz.sol/Pixelz.json"

func deployCmd(c *cliConfig) *cobra.Command {
	var (
		output, name, symbol, baseURI, artifactPath string
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "deploy an instance of the Pixelz NFT contract",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			artifact, err := contract.LoadArtifact(artifactPath)
			if err != nil {
				return err
			}
			client, auth, err := c.dial(ctx, true)
			if err != nil {
				return err
			}
			defer client.Close()
			chainID, err := client.ChainID(ctx)
			if err != nil {
				return errors.Wrap(err, "chain id")
			}

			network := contract.NetworkName(chainID)
			c.logger.WithFields(logrus.Fields{"name": name, "symbol": symbol}).Info("deploying token contract")
			rec, err := contract.Deploy(ctx, client, auth, artifact, baseURI, network, c.logger)
			if err != nil {
				return err
			}
			announce(c.out, "Deployed %s (%s) to %s (network: %s)", name, symbol, rec.Contract.Address, network)

			if output == "" {
				output = c.file.DeploymentConfigFile
			}
			written, err := deployment.Save(rec, output, func(path string) (bool, error) {
				return c.prompter.Confirm(fmt.Sprintf("File %s exists. Overwrite it?", path), false)
			})
			if err != nil {
				return err
			}
			if !written {
				fmt.Fprintf(c.out, "Kept existing %s; deployment info was not saved\n", output)
				return nil
			}
			fmt.Fprintf(c.out, "Wrote deployment info to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "path to write deployment info to (default: the configured deployment file)")
	cmd.Flags().StringVar(&name, "name", "Pixelz", "token name")
	cmd.Flags().StringVar(&symbol, "symbol", "PXLZ", "token symbol")
	cmd.Flags().StringVarP(&baseURI, "baseURI", "u", "ipfs://", "initial base URI")
	cmd.Flags().StringVar(&artifactPath, "artifact", defaultArtifactPath, "compiled contract artifact")
	return cmd
}

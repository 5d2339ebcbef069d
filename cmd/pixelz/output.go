package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"xdao.co/pixelz/model"
)

// alignOutput prints label/value rows with the values in one column.
func alignOutput(w io.Writer, rows [][]string) error {
	s, err := pterm.DefaultTable.WithData(rows).WithSeparator(" ").Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}

func printNFT(w io.Writer, nft *model.NFT) error {
	rows := [][]string{
		{"Token ID:", pterm.Green(nft.TokenID)},
	}
	if nft.OwnerAddress != "" {
		rows = append(rows, []string{"Owner Address:", pterm.Yellow(nft.OwnerAddress)})
	}
	if ci := nft.CreationInfo; ci != nil {
		rows = append(rows,
			[]string{"Creator Address:", pterm.Yellow(ci.CreatorAddress)},
			[]string{"Block Number:", fmt.Sprint(ci.BlockNumber)},
		)
	}
	rows = append(rows,
		[]string{"Metadata Address:", pterm.LightBlue(nft.MetadataURI)},
		[]string{"Metadata Gateway URL:", pterm.LightBlue(nft.MetadataGatewayURL)},
		[]string{"Asset Address:", pterm.LightBlue(nft.AssetURI)},
		[]string{"Asset Gateway URL:", pterm.LightBlue(nft.AssetGatewayURL)},
	)
	if err := alignOutput(w, rows); err != nil {
		return err
	}

	b, err := json.MarshalIndent(nft.Metadata, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "NFT Metadata:")
	fmt.Fprintln(w, pterm.Green(string(b)))
	if nft.AssetDataBase64 != "" {
		fmt.Fprintln(w, "Asset Data (base64):")
		fmt.Fprintln(w, nft.AssetDataBase64)
	}
	return nil
}

func announce(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "🌿 "+format+"\n", args...)
}

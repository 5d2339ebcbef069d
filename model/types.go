package model

// Metadata is the JSON document stored alongside every minted asset.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// CreationInfo describes the first Transfer event recorded for a token.
type CreationInfo struct {
	BlockNumber    uint64 `json:"blockNumber"`
	CreatorAddress string `json:"creatorAddress"`
}

// NFT is the assembled view of a token: on-chain ownership plus the content
// its metadata URI points at.
type NFT struct {
	TokenID            string        `json:"tokenId"`
	OwnerAddress       string        `json:"ownerAddress"`
	Metadata           Metadata      `json:"metadata"`
	MetadataURI        string        `json:"metadataURI"`
	MetadataGatewayURL string        `json:"metadataGatewayURL"`
	AssetURI           string        `json:"assetURI"`
	AssetGatewayURL    string        `json:"assetGatewayURL"`
	AssetDataBase64    string        `json:"assetDataBase64,omitempty"`
	CreationInfo       *CreationInfo `json:"creationInfo,omitempty"`
}

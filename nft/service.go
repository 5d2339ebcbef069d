// Package nft runs the pixelz workflows that span the content store and the
// contract: create, inspect, transfer and pin tokens.
package nft

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"xdao.co/pixelz/content"
	"xdao.co/pixelz/model"
)

// ContentStore is satisfied by *content.Client.
type ContentStore interface {
	Store(ctx context.Context, data []byte, pathHint string) (content.URI, error)
	StoreJSON(ctx context.Context, v any, pathHint string) (content.URI, error)
	FetchJSON(ctx context.Context, uriOrCID string, v any) error
	FetchBase64(ctx context.Context, uriOrCID string) (string, error)
	Pin(ctx context.Context, uri string) error
	GatewayURL(uri string) string
}

// Chain is satisfied by *contract.Binding.
type Chain interface {
	SignerAddress() (common.Address, error)
	SupportsMintToken() bool
	MintToken(ctx context.Context, owner common.Address, metadataURI string) (*big.Int, error)
	Purchase(ctx context.Context, count int, payment *big.Int) (*big.Int, error)
	SafeTransferFrom(ctx context.Context, from, to common.Address, id *big.Int) (*types.Receipt, error)
	OwnerOf(ctx context.Context, id *big.Int) (common.Address, error)
	TokenURI(ctx context.Context, id *big.Int) (string, error)
	CreationInfo(ctx context.Context, id *big.Int) (*model.CreationInfo, error)
}

type Service struct {
	store  ContentStore
	chain  Chain
	logger logrus.FieldLogger
}

func NewService(store ContentStore, chain Chain, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{store: store, chain: chain, logger: logger}
}

type CreateOptions struct {
	Name        string
	Description string
	// Owner receives the token; the signer when empty.
	Owner string
	// AssetPath labels the asset upload; only used for logging.
	AssetPath string
}

type GetOptions struct {
	FetchAsset        bool
	FetchCreationInfo bool
}

// CreateFromAssetFile reads path and creates a token for its contents.
func (s *Service) CreateFromAssetFile(ctx context.Context, path string, opts CreateOptions) (*model.NFT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapError(model.KindValidation, err, "read asset %s", path)
	}
	if opts.AssetPath == "" {
		opts.AssetPath = filepath.Base(path)
	}
	return s.CreateFromAssetData(ctx, data, opts)
}

// CreateFromAssetData stores the asset and its metadata, then mints a token
// that points at the metadata. Only the mint is irreversible: a failure
// before it leaves at most orphaned content behind.
func (s *Service) CreateFromAssetData(ctx context.Context, data []byte, opts CreateOptions) (*model.NFT, error) {
	owner, err := s.resolveOwner(opts.Owner)
	if err != nil {
		return nil, err
	}

	assetURI, err := s.store.Store(ctx, data, opts.AssetPath)
	if err != nil {
		return nil, err
	}

	md := model.Metadata{
		Name:        opts.Name,
		Description: opts.Description,
		Image:       content.EnsureIPFSPrefix(assetURI.String()),
	}
	metadataURI, err := s.store.StoreJSON(ctx, md, "metadata.json")
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"asset":    assetURI,
		"metadata": metadataURI,
		"owner":    owner.Hex(),
	})
	log.Info("minting token")

	id, err := s.mint(ctx, owner, metadataURI.String())
	if err != nil {
		return nil, err
	}
	log.WithField("tokenId", id.String()).Info("minted token")

	return &model.NFT{
		TokenID:            id.String(),
		OwnerAddress:       owner.Hex(),
		Metadata:           md,
		MetadataURI:        metadataURI.String(),
		MetadataGatewayURL: s.store.GatewayURL(metadataURI.String()),
		AssetURI:           assetURI.String(),
		AssetGatewayURL:    s.store.GatewayURL(assetURI.String()),
	}, nil
}

// mint prefers mintToken(owner, uri). Contracts without it sell tokens
// through adoptPixelz; the adopted token is then handed to owner.
func (s *Service) mint(ctx context.Context, owner common.Address, metadataURI string) (*big.Int, error) {
	if s.chain.SupportsMintToken() {
		return s.chain.MintToken(ctx, owner, metadataURI)
	}
	id, err := s.chain.Purchase(ctx, 1, nil)
	if err != nil {
		return nil, err
	}
	// The token is paid for from here on: failures must not read as a clean
	// error the operator could simply retry.
	signer, err := s.chain.SignerAddress()
	if err != nil {
		return nil, model.WrapError(model.KindUnconfirmedMint, err, "token %s adopted but not transferred to %s", id, owner.Hex())
	}
	if owner != signer {
		if _, err := s.chain.SafeTransferFrom(ctx, signer, owner, id); err != nil {
			return nil, model.WrapError(model.KindUnconfirmedMint, err, "token %s adopted but not transferred to %s", id, owner.Hex())
		}
	}
	return id, nil
}

func (s *Service) resolveOwner(owner string) (common.Address, error) {
	if strings.TrimSpace(owner) == "" {
		return s.chain.SignerAddress()
	}
	return parseAddress(owner)
}

// Get assembles the current view of a token.
func (s *Service) Get(ctx context.Context, tokenID string, opts GetOptions) (*model.NFT, error) {
	id, err := ParseTokenID(tokenID)
	if err != nil {
		return nil, err
	}
	owner, err := s.chain.OwnerOf(ctx, id)
	if err != nil {
		return nil, err
	}
	metadataURI, err := s.chain.TokenURI(ctx, id)
	if err != nil {
		return nil, err
	}
	var md model.Metadata
	if err := s.store.FetchJSON(ctx, metadataURI, &md); err != nil {
		return nil, err
	}

	out := &model.NFT{
		TokenID:            id.String(),
		OwnerAddress:       owner.Hex(),
		Metadata:           md,
		MetadataURI:        metadataURI,
		MetadataGatewayURL: s.store.GatewayURL(metadataURI),
		AssetURI:           md.Image,
		AssetGatewayURL:    s.store.GatewayURL(md.Image),
	}
	if opts.FetchAsset {
		if out.AssetDataBase64, err = s.store.FetchBase64(ctx, md.Image); err != nil {
			return nil, err
		}
	}
	if opts.FetchCreationInfo {
		if out.CreationInfo, err = s.chain.CreationInfo(ctx, id); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Transfer moves a token from its current owner to to.
func (s *Service) Transfer(ctx context.Context, tokenID, to string) error {
	id, err := ParseTokenID(tokenID)
	if err != nil {
		return err
	}
	toAddr, err := parseAddress(to)
	if err != nil {
		return err
	}
	from, err := s.chain.OwnerOf(ctx, id)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"tokenId": id.String(), "from": from.Hex(), "to": toAddr.Hex()}).Info("transferring token")
	_, err = s.chain.SafeTransferFrom(ctx, from, toAddr, id)
	return err
}

// Pin pins a token's metadata and asset on the content store.
func (s *Service) Pin(ctx context.Context, tokenID string) error {
	id, err := ParseTokenID(tokenID)
	if err != nil {
		return err
	}
	metadataURI, err := s.chain.TokenURI(ctx, id)
	if err != nil {
		return err
	}
	var md model.Metadata
	if err := s.store.FetchJSON(ctx, metadataURI, &md); err != nil {
		return err
	}
	if err := s.store.Pin(ctx, metadataURI); err != nil {
		return err
	}
	return s.store.Pin(ctx, md.Image)
}

// ParseTokenID parses a non-negative decimal token id.
func ParseTokenID(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || id.Sign() < 0 {
		return nil, model.NewError(model.KindValidation, "invalid token id %q", s)
	}
	return id, nil
}

func parseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, model.NewError(model.KindValidation, "invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

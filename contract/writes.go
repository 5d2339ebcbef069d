package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"xdao.co/pixelz/model"
)

// ValidatePurchaseCount rejects counts outside 1..MaxPurchase.
func ValidatePurchaseCount(count int) error {
	if count < 1 || count > MaxPurchase {
		return model.NewError(model.KindValidation, "can only adopt between 1 and %d pixelz at a time, got %d", MaxPurchase, count)
	}
	return nil
}

// Purchase adopts count tokens for the signer and returns the first minted
// token id. A nil payment pays calculatePrice() per token.
func (b *Binding) Purchase(ctx context.Context, count int, payment *big.Int) (*big.Int, error) {
	if err := ValidatePurchaseCount(count); err != nil {
		return nil, err
	}
	if payment == nil {
		price, err := b.CalculatePrice(ctx)
		if err != nil {
			return nil, err
		}
		payment = new(big.Int).Mul(price, big.NewInt(int64(count)))
	}
	b.logger.WithFields(logrus.Fields{"count": count, "wei": payment.String()}).Info("adopting pixelz")

	receipt, err := b.transact(ctx, payment, "adoptPixelz", big.NewInt(int64(count)))
	if err != nil {
		return nil, err
	}
	return b.TokenIDFromReceipt(receipt)
}

// MintToken mints a token for owner pointing at metadataURI. Only contracts
// whose ABI has mintToken(address,string) support it.
func (b *Binding) MintToken(ctx context.Context, owner common.Address, metadataURI string) (*big.Int, error) {
	method := b.methodBySig(mintTokenSig)
	if method == "" {
		return nil, model.NewError(model.KindConfig, "contract abi has no %s", mintTokenSig)
	}
	receipt, err := b.transact(ctx, nil, method, owner, metadataURI)
	if err != nil {
		return nil, err
	}
	return b.TokenIDFromReceipt(receipt)
}

func (b *Binding) TransferFrom(ctx context.Context, from, to common.Address, id *big.Int) (*types.Receipt, error) {
	return b.transact(ctx, nil, "transferFrom", from, to, id)
}

// SafeTransferFrom uses the three-argument overload.
func (b *Binding) SafeTransferFrom(ctx context.Context, from, to common.Address, id *big.Int) (*types.Receipt, error) {
	method := b.methodBySig(safeTransferSig)
	if method == "" {
		return nil, model.NewError(model.KindConfig, "contract abi has no %s", safeTransferSig)
	}
	return b.transact(ctx, nil, method, from, to, id)
}

func (b *Binding) StartSale(ctx context.Context) (*types.Receipt, error) {
	return b.transact(ctx, nil, "startSale")
}

func (b *Binding) PauseSale(ctx context.Context) (*types.Receipt, error) {
	return b.transact(ctx, nil, "pauseSale")
}

func (b *Binding) SetBaseURI(ctx context.Context, baseURI string) (*types.Receipt, error) {
	return b.transact(ctx, nil, "setBaseURI", baseURI)
}

func (b *Binding) SetProvenanceHash(ctx context.Context, hash string) (*types.Receipt, error) {
	return b.transact(ctx, nil, "setProvenanceHash", hash)
}

func (b *Binding) WithdrawAll(ctx context.Context) (*types.Receipt, error) {
	return b.transact(ctx, nil, "withdrawAll")
}

// ReserveGiveaway mints count tokens to the owner without payment.
func (b *Binding) ReserveGiveaway(ctx context.Context, count int) (*types.Receipt, error) {
	if count < 1 {
		return nil, model.NewError(model.KindValidation, "reserve count must be positive, got %d", count)
	}
	return b.transact(ctx, nil, "reserveGiveaway", big.NewInt(int64(count)))
}

package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"xdao.co/pixelz/model"
)

func (b *Binding) OwnerOf(ctx context.Context, id *big.Int) (common.Address, error) {
	out, err := b.call(ctx, "ownerOf", id)
	if err != nil {
		return common.Address{}, tokenReadError(err, "ownerOf", id)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (b *Binding) TokenURI(ctx context.Context, id *big.Int) (string, error) {
	out, err := b.call(ctx, "tokenURI", id)
	if err != nil {
		return "", tokenReadError(err, "tokenURI", id)
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (b *Binding) TotalSupply(ctx context.Context) (*big.Int, error) {
	return b.callBig(ctx, "totalSupply")
}

// CalculatePrice is the price of one token at the current supply.
func (b *Binding) CalculatePrice(ctx context.Context) (*big.Int, error) {
	return b.callBig(ctx, "calculatePrice")
}

func (b *Binding) CalculatePriceForToken(ctx context.Context, id *big.Int) (*big.Int, error) {
	return b.callBig(ctx, "calculatePriceForToken", id)
}

func (b *Binding) HasSaleStarted(ctx context.Context) (bool, error) {
	out, err := b.call(ctx, "hasSaleStarted")
	if err != nil {
		return false, errors.Wrap(err, "hasSaleStarted")
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (b *Binding) TokensOfOwner(ctx context.Context, owner common.Address) ([]*big.Int, error) {
	out, err := b.call(ctx, "tokensOfOwner", owner)
	if err != nil {
		return nil, errors.Wrap(err, "tokensOfOwner")
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

func (b *Binding) callBig(ctx context.Context, method string, params ...interface{}) (*big.Int, error) {
	out, err := b.call(ctx, method, params...)
	if err != nil {
		return nil, errors.Wrap(err, method)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// CreationInfo finds the first Transfer event for id: the block it was
// minted in and the address it was minted to.
func (b *Binding) CreationInfo(ctx context.Context, id *big.Int) (*model.CreationInfo, error) {
	ev, ok := b.abi.Events[transferEvent]
	if !ok {
		return nil, model.NewError(model.KindConfig, "contract abi has no %s event", transferEvent)
	}
	topics, err := abi.MakeTopics([]interface{}{ev.ID}, nil, nil, []interface{}{id})
	if err != nil {
		return nil, errors.Wrap(err, "build transfer filter")
	}
	logs, err := b.filterLogs(ctx, ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		Addresses: []common.Address{b.address},
		Topics:    topics,
	})
	if err != nil {
		return nil, errors.Wrap(err, "query transfer events")
	}
	if len(logs) == 0 {
		return nil, model.NewError(model.KindTokenNotFound, "no transfer events for token %s", id)
	}

	first := logs[0]
	fields := map[string]interface{}{}
	if err := b.contract.UnpackLogIntoMap(fields, transferEvent, first); err != nil {
		return nil, errors.Wrap(err, "decode transfer event")
	}
	to, ok := fields["to"].(common.Address)
	if !ok {
		return nil, errors.New("transfer event has no \"to\" address")
	}
	return &model.CreationInfo{BlockNumber: first.BlockNumber, CreatorAddress: to.Hex()}, nil
}

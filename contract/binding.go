// Package contract is a typed facade over the deployed pixelz contract.
//
// Reads go through eth_call; writes are submitted with the configured signer
// and wait for their receipt before returning.
package contract

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"xdao.co/pixelz/deployment"
	"xdao.co/pixelz/model"
)

const (
	// MaxPurchase is the most tokens a single purchase may adopt.
	MaxPurchase = 20

	safeTransferSig = "safeTransferFrom(address,address,uint256)"
	mintTokenSig    = "mintToken(address,string)"
	transferEvent   = "Transfer"
)

// Backend is what a Binding needs from a chain connection. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// caller is the subset of *bind.BoundContract the binding uses.
type caller interface {
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
	UnpackLogIntoMap(out map[string]interface{}, event string, log types.Log) error
}

type Binding struct {
	address common.Address
	abi     abi.ABI
	signer  common.Address
	auth    *bind.TransactOpts
	logger  logrus.FieldLogger

	contract   caller
	waitMined  func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	filterLogs func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// New binds rec's contract on backend. auth may be nil for read-only use;
// state-changing calls then fail with a config error.
func New(rec *deployment.Record, backend Backend, auth *bind.TransactOpts, logger logrus.FieldLogger) (*Binding, error) {
	parsed, err := rec.ParsedABI()
	if err != nil {
		return nil, model.WrapError(model.KindConfig, err, "contract abi")
	}
	b := newBinding(rec, parsed, bind.NewBoundContract(rec.Address(), parsed, backend, backend, backend), auth, logger)
	b.waitMined = func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
		return bind.WaitMined(ctx, backend, tx)
	}
	b.filterLogs = backend.FilterLogs
	return b, nil
}

func newBinding(rec *deployment.Record, parsed abi.ABI, c caller, auth *bind.TransactOpts, logger logrus.FieldLogger) *Binding {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	b := &Binding{
		address:  rec.Address(),
		abi:      parsed,
		auth:     auth,
		logger:   logger.WithField("contract", rec.Address().Hex()),
		contract: c,
	}
	switch {
	case auth != nil:
		b.signer = auth.From
	case common.IsHexAddress(rec.Contract.SignerAddress):
		b.signer = common.HexToAddress(rec.Contract.SignerAddress)
	}
	return b
}

func (b *Binding) Address() common.Address { return b.address }

// SignerAddress is the account state-changing calls are sent from, falling
// back to the deployer recorded in the deployment file.
func (b *Binding) SignerAddress() (common.Address, error) {
	if b.signer == (common.Address{}) {
		return common.Address{}, model.NewError(model.KindConfig, "no signer configured")
	}
	return b.signer, nil
}

// SupportsMintToken reports whether the ABI exposes mintToken(address,string).
func (b *Binding) SupportsMintToken() bool {
	return b.methodBySig(mintTokenSig) != ""
}

func (b *Binding) methodBySig(sig string) string {
	for name, m := range b.abi.Methods {
		if m.Sig == sig {
			return name
		}
	}
	return ""
}

func (b *Binding) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := b.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.Errorf("%s returned no values", method)
	}
	return out, nil
}

// transact submits method and waits for a successful receipt.
func (b *Binding) transact(ctx context.Context, value *big.Int, method string, params ...interface{}) (*types.Receipt, error) {
	if b.auth == nil {
		return nil, model.NewError(model.KindConfig, "no signer configured for %s", method)
	}
	opts := *b.auth
	opts.Context = ctx
	opts.Value = value

	tx, err := b.contract.Transact(&opts, method, params...)
	if err != nil {
		return nil, errors.Wrapf(err, "submit %s", method)
	}
	log := b.logger.WithFields(logrus.Fields{"method": method, "tx": tx.Hash().Hex()})
	log.Info("transaction submitted, waiting for confirmation")

	receipt, err := b.waitMined(ctx, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "wait for %s", tx.Hash().Hex())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, errors.Errorf("%s transaction %s failed", method, tx.Hash().Hex())
	}
	log.WithField("block", receipt.BlockNumber).Debug("transaction confirmed")
	return receipt, nil
}

// isRevert reports whether err is an execution revert rather than a
// transport failure.
func isRevert(err error) bool {
	var rerr rpc.Error
	if errors.As(err, &rerr) && rerr.ErrorCode() == 3 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "revert")
}

func tokenReadError(err error, method string, id *big.Int) error {
	if isRevert(err) {
		return model.WrapError(model.KindTokenNotFound, err, "token %s not found", id)
	}
	return errors.Wrapf(err, "%s(%s)", method, id)
}

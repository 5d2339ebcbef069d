package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"xdao.co/pixelz/model"
)

// TokenIDFromReceipt returns the token id of the first Transfer event the
// bound contract emitted in receipt. Other events, and events from other
// contracts, are logged and skipped.
func (b *Binding) TokenIDFromReceipt(receipt *types.Receipt) (*big.Int, error) {
	for _, l := range receipt.Logs {
		if l == nil || len(l.Topics) == 0 {
			continue
		}
		if l.Address != b.address {
			b.logger.WithFields(logrus.Fields{"emitter": l.Address.Hex(), "index": l.Index}).Debug("ignoring event from another contract")
			continue
		}
		ev, err := b.abi.EventByID(l.Topics[0])
		if err != nil || ev.Name != transferEvent {
			name := "unknown"
			if ev != nil {
				name = ev.Name
			}
			b.logger.WithFields(logrus.Fields{"event": name, "index": l.Index}).Debug("ignoring unknown event type")
			continue
		}

		fields := map[string]interface{}{}
		if err := b.contract.UnpackLogIntoMap(fields, transferEvent, *l); err != nil {
			return nil, errors.Wrap(err, "decode transfer event")
		}
		for _, in := range ev.Inputs {
			if id, ok := fields[in.Name].(*big.Int); ok {
				return id, nil
			}
		}
		return nil, errors.New("transfer event carries no token id")
	}
	return nil, model.NewError(model.KindUnconfirmedMint,
		"unable to get token id: transaction %s emitted no Transfer event", receipt.TxHash.Hex())
}

package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"xdao.co/pixelz/deployment"
	"xdao.co/pixelz/model"
)

// DefaultContractName is recorded when the artifact carries no name.
const DefaultContractName = "Pixelz"

// Artifact is a compiled contract as written by Hardhat
// (artifacts/contracts/<Name>.sol/<Name>.json).
type Artifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

func LoadArtifact(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapError(model.KindConfig, err, "read artifact %s", path)
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, model.WrapError(model.KindConfig, err, "parse artifact %s", path)
	}
	if len(bytes.TrimSpace(a.ABI)) == 0 || strings.TrimPrefix(a.Bytecode, "0x") == "" {
		return nil, model.NewError(model.KindConfig, "artifact %s needs both abi and bytecode", path)
	}
	return &a, nil
}

// Deploy deploys the artifact with baseURI as its only constructor argument,
// waits until the code is on chain and returns the record to save.
func Deploy(ctx context.Context, backend Backend, auth *bind.TransactOpts, artifact *Artifact, baseURI, network string, logger logrus.FieldLogger) (*deployment.Record, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	parsed, err := abi.JSON(bytes.NewReader(artifact.ABI))
	if err != nil {
		return nil, model.WrapError(model.KindConfig, err, "artifact abi")
	}
	name := artifact.ContractName
	if name == "" {
		name = DefaultContractName
	}

	opts := *auth
	opts.Context = ctx
	log := logger.WithFields(logrus.Fields{"contract": name, "network": network, "baseURI": baseURI})
	log.Info("deploying contract")

	addr, tx, _, err := bind.DeployContract(&opts, parsed, common.FromHex(artifact.Bytecode), backend, baseURI)
	if err != nil {
		return nil, errors.Wrap(err, "submit deployment")
	}
	if _, err := bind.WaitDeployed(ctx, backend, tx); err != nil {
		return nil, errors.Wrapf(err, "wait for deployment %s", tx.Hash().Hex())
	}
	log.WithField("address", addr.Hex()).Info("deployed contract")

	return &deployment.Record{
		Network: network,
		Contract: deployment.ContractInfo{
			Name:          name,
			Address:       addr.Hex(),
			SignerAddress: auth.From.Hex(),
			ABI:           artifact.ABI,
		},
	}, nil
}

// NetworkName maps well-known chain ids to the names Hardhat uses.
func NetworkName(chainID *big.Int) string {
	switch chainID.Uint64() {
	case 1:
		return "mainnet"
	case 11155111:
		return "sepolia"
	case 17000:
		return "holesky"
	case 1337, 31337:
		return "localhost"
	default:
		return "chain-" + chainID.String()
	}
}

// Package deployment reads and writes the record that describes a deployed
// pixelz contract: its network, address, signer and ABI.
package deployment

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"xdao.co/pixelz/model"
)

// DefaultPath is used when no deployment file is configured.
const DefaultPath = "pixelz-deployment.json"

type Record struct {
	Network  string       `json:"network"`
	Contract ContractInfo `json:"contract"`
}

type ContractInfo struct {
	Name          string          `json:"name"`
	Address       string          `json:"address"`
	SignerAddress string          `json:"signerAddress,omitempty"`
	ABI           json.RawMessage `json:"abi"`
}

// Load reads and validates the record at path (DefaultPath when empty).
func Load(path string) (*Record, error) {
	if path == "" {
		path = DefaultPath
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapError(model.KindConfig, err, "read deployment info from %s", path)
	}
	var raw struct {
		Network  string           `json:"network"`
		Contract *json.RawMessage `json:"contract"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, model.WrapError(model.KindConfig, err, "parse deployment info from %s", path)
	}
	if raw.Contract == nil || bytes.Equal(bytes.TrimSpace(*raw.Contract), []byte("null")) {
		return nil, model.NewError(model.KindConfig, "error reading deploy info from %s: required field \"contract\" not found", path)
	}
	if err := requireFields(*raw.Contract, "name", "address", "abi"); err != nil {
		return nil, model.WrapError(model.KindConfig, err, "error reading deploy info from %s", path)
	}

	rec := &Record{Network: raw.Network}
	if err := json.Unmarshal(*raw.Contract, &rec.Contract); err != nil {
		return nil, model.WrapError(model.KindConfig, err, "parse deployment info from %s", path)
	}
	if err := rec.Validate(); err != nil {
		return nil, model.WrapError(model.KindConfig, err, "error reading deploy info from %s", path)
	}
	return rec, nil
}

func requireFields(contract json.RawMessage, names ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(contract, &fields); err != nil {
		return err
	}
	for _, name := range names {
		if _, ok := fields[name]; !ok {
			return errors.New("required field \"contract." + name + "\" not found")
		}
	}
	return nil
}

// Validate checks the fields a binding needs.
func (r *Record) Validate() error {
	c := r.Contract
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("contract.name is empty")
	}
	if !common.IsHexAddress(c.Address) {
		return errors.New("contract.address " + strings.TrimSpace(c.Address) + " is not a hex address")
	}
	if c.SignerAddress != "" && !common.IsHexAddress(c.SignerAddress) {
		return errors.New("contract.signerAddress " + c.SignerAddress + " is not a hex address")
	}
	if _, err := r.ParsedABI(); err != nil {
		return err
	}
	return nil
}

// ParsedABI decodes the record's JSON ABI. Human-readable (string array)
// ABIs are not supported.
func (r *Record) ParsedABI() (abi.ABI, error) {
	if len(bytes.TrimSpace(r.Contract.ABI)) == 0 {
		return abi.ABI{}, errors.New("contract.abi is empty")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(r.Contract.ABI, &entries); err != nil {
		return abi.ABI{}, errors.New("contract.abi must be a JSON array")
	}
	for _, e := range entries {
		if t := bytes.TrimSpace(e); len(t) > 0 && t[0] == '"' {
			return abi.ABI{}, errors.New("contract.abi is in human-readable form; export the JSON ABI instead")
		}
	}
	parsed, err := abi.JSON(bytes.NewReader(r.Contract.ABI))
	if err != nil {
		return abi.ABI{}, err
	}
	return parsed, nil
}

// Address returns the contract address.
func (r *Record) Address() common.Address {
	return common.HexToAddress(r.Contract.Address)
}

// Save writes rec to path (DefaultPath when empty) as indented JSON. If the
// file exists, confirm decides whether to overwrite it; a nil confirm never
// overwrites. It reports whether the file was written.
func Save(rec *Record, path string, confirm func(path string) (bool, error)) (bool, error) {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		if confirm == nil {
			return false, nil
		}
		ok, err := confirm(path)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

package keys

import (
	"crypto/ecdsa"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
)

// Transactor builds signing options for chainID.
func Transactor(key *ecdsa.PrivateKey, chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(key, chainID)
}

// ImportKeystore decrypts a geth/web3 keystore JSON file and stores its key
// under name.
func (ks *KeyStore) ImportKeystore(name, keystorePath, passphrase string, overwrite bool) (string, error) {
	blob, err := os.ReadFile(keystorePath)
	if err != nil {
		return "", err
	}
	k, err := keystore.DecryptKey(blob, passphrase)
	if err != nil {
		return "", err
	}
	addr, _, err := ks.InitializeRootKey(name, k.PrivateKey, overwrite)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

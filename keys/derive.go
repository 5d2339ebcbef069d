package keys

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
)

// DeriveRoleKey deterministically derives a role-specific key from a root key.
func DeriveRoleKey(root *ecdsa.PrivateKey, role string) (*ecdsa.PrivateKey, error) {
	if err := CheckRole(role); err != nil {
		return nil, err
	}
	sum := crypto.Keccak256(
		crypto.FromECDSA(root),
		[]byte{0},
		[]byte("pixelz-kms-lite-v1"),
		[]byte{0},
		[]byte("role:"+role),
	)
	return crypto.ToECDSA(sum)
}

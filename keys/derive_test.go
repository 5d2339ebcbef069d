package keys

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

const hardhatKey0 = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestDeriveRoleKeyDeterministic(t *testing.T) {
	root, err := ParseKeyHex("0x" + hardhatKey0)
	if err != nil {
		t.Fatalf("ParseKeyHex: %v", err)
	}
	if got := Address(root).Hex(); got != "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" {
		t.Fatalf("unexpected address %s", got)
	}

	a, err := DeriveRoleKey(root, "minter")
	if err != nil {
		t.Fatalf("DeriveRoleKey: %v", err)
	}
	b, err := DeriveRoleKey(root, "minter")
	if err != nil {
		t.Fatalf("DeriveRoleKey: %v", err)
	}
	if string(crypto.FromECDSA(a)) != string(crypto.FromECDSA(b)) {
		t.Fatalf("expected deterministic derivation")
	}

	c, err := DeriveRoleKey(root, "admin")
	if err != nil {
		t.Fatalf("DeriveRoleKey: %v", err)
	}
	if Address(a) == Address(c) {
		t.Fatalf("expected different roles to derive different keys")
	}

	if _, err := DeriveRoleKey(root, "bad/role"); err == nil {
		t.Fatalf("expected invalid role to be rejected")
	}
}

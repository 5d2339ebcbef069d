package keys

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyStoreLifecycle(t *testing.T) {
	ks, err := CreateKeyStore(t.TempDir())
	require.NoError(t, err)

	root, err := ParseKeyHex(hardhatKey0)
	require.NoError(t, err)

	addr, path, err := ks.InitializeRootKey("deployer", root, false)
	require.NoError(t, err)
	require.Equal(t, Address(root), addr)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, _, err = ks.InitializeRootKey("deployer", nil, false)
	require.Error(t, err, "existing key must not be overwritten")

	roleAddr, _, err := ks.DeriveKeyFromRole("deployer", "minter", false)
	require.NoError(t, err)
	require.NotEqual(t, addr, roleAddr)

	exported, err := ks.ExportKey("deployer", "minter")
	require.NoError(t, err)
	require.Equal(t, roleAddr, exported)

	fresh, _, err := ks.InitializeRootKey("alice", nil, false)
	require.NoError(t, err)

	list, err := ks.ListKeys()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "alice", list[0].Name)
	require.Equal(t, fresh, list[0].Address)
	require.Equal(t, "deployer", list[1].Name)
	require.Equal(t, []string{"minter"}, list[1].Roles)

	name, role := ParseSigner("deployer/minter")
	key, err := ks.LoadKey("", name, role, "")
	require.NoError(t, err)
	require.Equal(t, roleAddr, Address(key))

	key, err = ks.LoadKey("", "", "", filepath.Join(ks.Directory, "deployer", "root.key"))
	require.NoError(t, err)
	require.Equal(t, addr, Address(key))

	_, err = ks.LoadKey("", "", "", "")
	require.Error(t, err)
	_, err = ks.LoadKey("", "../escape", "", "")
	require.Error(t, err)

	auth, err := Transactor(key, big.NewInt(31337))
	require.NoError(t, err)
	require.Equal(t, addr, auth.From)
}

func TestListKeys_MissingDirectory(t *testing.T) {
	ks := &KeyStore{Directory: filepath.Join(t.TempDir(), "absent")}
	list, err := ks.ListKeys()
	require.NoError(t, err)
	require.Empty(t, list)
}

package casconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/pixelz/storage"
	"xdao.co/pixelz/storage/casregistry"

	_ "xdao.co/pixelz/storage/localfs"
)

func TestValidate(t *testing.T) {
	require.Error(t, Config{}.Validate())
	require.Error(t, Config{Backends: []BackendConfig{{}}}.Validate())
	require.Error(t, Config{Backends: []BackendConfig{{Name: "localfs"}, {Name: "localfs"}}}.Validate())
	require.NoError(t, Config{Backends: []BackendConfig{{Name: "localfs"}, {Name: "localfs", ID: "backup"}}}.Validate())
	require.Error(t, Config{WritePolicy: "some", Backends: []BackendConfig{{Name: "localfs"}}}.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cas.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"write_policy":"all","backends":[{"name":"localfs","config":{"dir":"/tmp/x"}}]}`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "all", cfg.WritePolicy)
	require.Equal(t, "/tmp/x", cfg.Backends[0].Config["dir"])

	_, err = LoadFile("")
	require.Error(t, err)
}

func TestOpen_Policies(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	backends := []BackendConfig{
		{Name: "localfs", ID: "a", Config: map[string]string{"dir": a}},
		{Name: "localfs", ID: "b", Config: map[string]string{"dir": b}},
	}

	single, closeFn, err := Config{Backends: backends[:1]}.Open(casregistry.UsageCLI, "")
	require.NoError(t, err)
	require.NoError(t, closeFn())
	_, isMulti := single.(storage.MultiCAS)
	require.False(t, isMulti)

	first, _, err := Config{Backends: backends}.Open(casregistry.UsageCLI, "b")
	require.NoError(t, err)
	require.IsType(t, storage.MultiCAS{}, first)

	all, _, err := Config{WritePolicy: "all", Backends: backends}.Open(casregistry.UsageCLI, "")
	require.NoError(t, err)
	rep, ok := all.(storage.ReplicatingCAS)
	require.True(t, ok)

	ctx := context.Background()
	id, byName, err := rep.PutAll(ctx, []byte("replicated"))
	require.NoError(t, err)
	require.Len(t, byName, 2)
	require.True(t, byName["a"].Equals(id))
	require.True(t, byName["b"].Equals(id))

	_, _, err = Config{Backends: backends}.Open(casregistry.UsageCLI, "missing")
	require.Error(t, err)
}

package ipfs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"xdao.co/pixelz/cidutil"
	"xdao.co/pixelz/storage"
	"xdao.co/pixelz/storage/casregistry"
	"xdao.co/pixelz/storage/testkit"
)

// fakeKubo serves the subset of the Kubo RPC API the adapter uses.
type fakeKubo struct {
	mu      sync.Mutex
	blocks  map[string][]byte
	pinned  map[string]bool
	corrupt bool
}

func newFakeKubo(t *testing.T) (*fakeKubo, *httptest.Server) {
	t.Helper()
	k := &fakeKubo{blocks: map[string][]byte{}, pinned: map[string]bool{}}
	srv := httptest.NewServer(http.HandlerFunc(k.serve))
	t.Cleanup(srv.Close)
	return k, srv
}

func (k *fakeKubo) serve(w http.ResponseWriter, r *http.Request) {
	k.mu.Lock()
	defer k.mu.Unlock()

	arg := r.URL.Query().Get("arg")
	switch r.URL.Path {
	case "/api/v0/version":
		// go-ipfs-api checks the node version before sending some add options.
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"Version": "0.29.0", "Commit": "", "Repo": "15", "System": "amd64/linux", "Golang": "go1.22.0"})
	case "/api/v0/add":
		if r.URL.Query().Get("cid-version") != "1" || r.URL.Query().Get("raw-leaves") != "true" {
			fail(w, "unexpected add options: "+r.URL.RawQuery)
			return
		}
		mr, err := r.MultipartReader()
		if err != nil {
			fail(w, err.Error())
			return
		}
		part, err := mr.NextPart()
		if err != nil {
			fail(w, err.Error())
			return
		}
		data, _ := io.ReadAll(part)
		id, _ := cidutil.Sum(data)
		if k.corrupt {
			id, _ = cidutil.Sum(append(data, '!'))
		}
		k.blocks[id.String()] = data
		if r.URL.Query().Get("pin") == "true" {
			k.pinned[id.String()] = true
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"Name": id.String(), "Hash": id.String(), "Size": "0"})
	case "/api/v0/cat":
		data, ok := k.blocks[arg]
		if !ok {
			fail(w, "block was not found locally (offline): ipld: could not find "+arg)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write(data)
	case "/api/v0/block/stat":
		data, ok := k.blocks[arg]
		if !ok {
			fail(w, "block was not found locally (offline)")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"Key": arg, "Size": len(data)})
	case "/api/v0/pin/add":
		if _, ok := k.blocks[arg]; !ok {
			fail(w, "block was not found locally (offline)")
			return
		}
		k.pinned[arg] = true
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"Pins": []string{arg}})
	default:
		fail(w, "unexpected command "+r.URL.Path)
	}
}

func (k *fakeKubo) isPinned(id cid.Cid) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.pinned[id.String()]
}

func (k *fakeKubo) addPath(id cid.Cid, path string, data []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.blocks[id.String()+"/"+path] = data
}

func fail(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, msg)
}

func TestIPFS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		_, srv := newFakeKubo(t)
		cas, err := New(Options{API: srv.URL})
		require.NoError(t, err)
		return cas
	})
}

func TestIPFS_PinAndPath(t *testing.T) {
	ctx := context.Background()
	k, srv := newFakeKubo(t)
	cas, err := New(Options{API: srv.URL})
	require.NoError(t, err)

	id, err := cas.Put(ctx, []byte("pin me"))
	require.NoError(t, err)
	require.False(t, k.isPinned(id))
	require.NoError(t, cas.Pin(ctx, id))
	require.True(t, k.isPinned(id))

	missing, err := cidutil.Sum([]byte("nobody stored this"))
	require.NoError(t, err)
	require.ErrorIs(t, cas.Pin(ctx, missing), storage.ErrNotFound)

	k.addPath(id, "metadata.json", []byte(`{"name":"x"}`))
	got, err := cas.GetPath(ctx, id, "/metadata.json")
	require.NoError(t, err)
	require.Equal(t, `{"name":"x"}`, string(got))

	_, err = cas.GetPath(ctx, id, "other.json")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = cas.GetPath(ctx, cid.Undef, "x")
	require.ErrorIs(t, err, storage.ErrInvalidCID)
}

func TestIPFS_PutPinsWhenConfigured(t *testing.T) {
	k, srv := newFakeKubo(t)
	cas, err := New(Options{API: srv.URL, Pin: true})
	require.NoError(t, err)

	id, err := cas.Put(context.Background(), []byte("keep me"))
	require.NoError(t, err)
	require.Equal(t, cidutil.String([]byte("keep me")), id.String())
	require.True(t, k.isPinned(id))
}

func TestIPFS_RejectsMismatchedCID(t *testing.T) {
	k, srv := newFakeKubo(t)
	k.corrupt = true
	cas, err := New(Options{API: srv.URL})
	require.NoError(t, err)

	_, err = cas.Put(context.Background(), []byte("data"))
	require.ErrorIs(t, err, storage.ErrCIDMismatch)
}

func TestIPFS_Registered(t *testing.T) {
	_, srv := newFakeKubo(t)
	cas, closeFn, err := casregistry.Open("ipfs", casregistry.UsageCLI, map[string]string{
		"api":     srv.URL,
		"pin":     "false",
		"timeout": "5s",
	})
	require.NoError(t, err)
	require.Nil(t, closeFn)
	require.IsType(t, &CAS{}, cas)

	_, _, err = casregistry.Open("ipfs", casregistry.UsageCLI, map[string]string{"pin": "maybe"})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "maybe"))
}

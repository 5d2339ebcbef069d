package content

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"xdao.co/pixelz/cidutil"
	"xdao.co/pixelz/model"
	"xdao.co/pixelz/storage/localfs"
	"xdao.co/pixelz/storage/testkit"
)

func TestStoreIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := testkit.NewMemory()
	c := NewClient(mem, Options{})

	a, err := c.Store(ctx, []byte("hello"), "hello.txt")
	require.NoError(t, err)
	b, err := c.Store(ctx, []byte("hello"), "other-name.txt")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, URI("ipfs://"+cidutil.String([]byte("hello"))), a)
	require.Equal(t, 1, mem.Len())

	got, err := c.FetchString(ctx, a.String())
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	b64, err := c.FetchBase64(ctx, a.String())
	require.NoError(t, err)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("hello")), b64)
}

func TestMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewClient(testkit.NewMemory(), Options{Gateway: "http://gw/ipfs"})

	want := model.Metadata{Name: "Test", Description: "A test", Image: "ipfs://" + cidutil.String([]byte("hello"))}
	uri, err := c.StoreJSON(ctx, want, "metadata.json")
	require.NoError(t, err)

	var got model.Metadata
	require.NoError(t, c.FetchJSON(ctx, uri.String(), &got))
	require.Equal(t, want, got)
	require.Equal(t, "http://gw/ipfs/"+StripIPFSPrefix(uri.String()), c.GatewayURL(uri.String()))
}

func TestFetchErrors(t *testing.T) {
	ctx := context.Background()
	mem := testkit.NewMemory()
	c := NewClient(mem, Options{})

	missing := "ipfs://" + cidutil.String([]byte("never stored"))
	_, err := c.Fetch(ctx, missing)
	require.True(t, model.IsKind(err, model.KindNotFound), "got %v", err)

	uri, err := c.Store(ctx, []byte("not json"), "x")
	require.NoError(t, err)
	var v map[string]any
	err = c.FetchJSON(ctx, uri.String(), &v)
	require.True(t, model.IsKind(err, model.KindMalformedData), "got %v", err)

	_, err = c.Fetch(ctx, "garbage")
	require.True(t, model.IsKind(err, model.KindValidation), "got %v", err)
}

func TestFetchPath(t *testing.T) {
	ctx := context.Background()
	mem := testkit.NewMemory()
	root, err := cidutil.Sum([]byte("dir"))
	require.NoError(t, err)
	mem.AddPath(root, "metadata.json", []byte(`{"name":"n"}`))

	got, err := NewClient(mem, Options{}).FetchString(ctx, "ipfs://"+root.String()+"/metadata.json")
	require.NoError(t, err)
	require.Equal(t, `{"name":"n"}`, got)

	fs, err := localfs.New(t.TempDir())
	require.NoError(t, err)
	_, err = NewClient(fs, Options{}).Fetch(ctx, "ipfs://"+root.String()+"/metadata.json")
	require.True(t, model.IsKind(err, model.KindValidation), "got %v", err)
}

func TestPin(t *testing.T) {
	ctx := context.Background()
	mem := testkit.NewMemory()
	c := NewClient(mem, Options{})

	uri, err := c.Store(ctx, []byte("keep"), "keep.bin")
	require.NoError(t, err)
	require.NoError(t, c.Pin(ctx, uri.String()))

	id, err := ExtractCID(uri.String())
	require.NoError(t, err)
	require.True(t, mem.Pinned(id))

	err = c.Pin(ctx, "ipfs://"+cidutil.String([]byte("absent")))
	require.True(t, model.IsKind(err, model.KindNotFound), "got %v", err)
}

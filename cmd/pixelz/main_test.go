package main

import (
	"bytes"
	"context"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/require"

	"xdao.co/pixelz/cidutil"
	"xdao.co/pixelz/content"
	"xdao.co/pixelz/model"
	"xdao.co/pixelz/nft"
	"xdao.co/pixelz/storage/testkit"
)

const hardhatKey0 = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var hardhatAddr0 = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

type fakePrompter struct {
	answers map[string]string
	asked   []string
}

func (p *fakePrompter) Text(label, def string) (string, error) {
	p.asked = append(p.asked, label)
	if a, ok := p.answers[label]; ok {
		return a, nil
	}
	return def, nil
}

func (p *fakePrompter) Confirm(label string, def bool) (bool, error) {
	p.asked = append(p.asked, label)
	return def, nil
}

type fakeChain struct {
	nextID  int64
	mintErr error
	owners  map[string]common.Address
	uris    map[string]string
}

func newFakeChain() *fakeChain {
	return &fakeChain{nextID: 7, owners: map[string]common.Address{}, uris: map[string]string{}}
}

func (f *fakeChain) SignerAddress() (common.Address, error) { return hardhatAddr0, nil }
func (f *fakeChain) SupportsMintToken() bool                { return true }

func (f *fakeChain) MintToken(ctx context.Context, owner common.Address, uri string) (*big.Int, error) {
	if f.mintErr != nil {
		return nil, f.mintErr
	}
	id := big.NewInt(f.nextID)
	f.nextID++
	f.owners[id.String()] = owner
	f.uris[id.String()] = uri
	return id, nil
}

func (f *fakeChain) Purchase(ctx context.Context, count int, payment *big.Int) (*big.Int, error) {
	return nil, model.NewError(model.KindConfig, "not supported")
}

func (f *fakeChain) SafeTransferFrom(ctx context.Context, from, to common.Address, id *big.Int) (*types.Receipt, error) {
	f.owners[id.String()] = to
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (f *fakeChain) OwnerOf(ctx context.Context, id *big.Int) (common.Address, error) {
	owner, ok := f.owners[id.String()]
	if !ok {
		return common.Address{}, model.NewError(model.KindTokenNotFound, "token %s not found", id)
	}
	return owner, nil
}

func (f *fakeChain) TokenURI(ctx context.Context, id *big.Int) (string, error) {
	uri, ok := f.uris[id.String()]
	if !ok {
		return "", model.NewError(model.KindTokenNotFound, "token %s not found", id)
	}
	return uri, nil
}

func (f *fakeChain) CreationInfo(ctx context.Context, id *big.Int) (*model.CreationInfo, error) {
	return &model.CreationInfo{BlockNumber: 3, CreatorAddress: hardhatAddr0.Hex()}, nil
}

type harness struct {
	t        *testing.T
	chain    *fakeChain
	store    *testkit.Memory
	prompter *fakePrompter
}

func newHarness(t *testing.T) *harness {
	t.Setenv("PIXELZ_SIGNER", "")
	return &harness{
		t:        t,
		chain:    newFakeChain(),
		store:    testkit.NewMemory(),
		prompter: &fakePrompter{answers: map[string]string{}},
	}
}

func (h *harness) run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	c := newCLIConfig(strings.NewReader(""), &out, &errOut)
	c.prompter = h.prompter
	c.newService = func(ctx context.Context, c *cliConfig, needSigner bool) (*nft.Service, func(), error) {
		client := content.NewClient(h.store, content.Options{Logger: c.logger})
		return nft.NewService(client, h.chain, c.logger), func() {}, nil
	}
	code = runWith(context.Background(), c, args)
	return code, out.String(), errOut.String()
}

func TestMintPromptsForMissingFields(t *testing.T) {
	h := newHarness(t)
	h.prompter.answers["Enter a name for your new NFT"] = "Test"
	h.prompter.answers["Enter a description for your new NFT"] = "A test"
	asset := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(asset, []byte("hello"), 0o644))

	code, out, stderr := h.run("mint", asset)
	require.Equal(t, 0, code, stderr)
	require.Len(t, h.prompter.asked, 2)
	require.Contains(t, out, "Minted a new NFT:")
	require.Contains(t, out, "Token ID:")
	require.Contains(t, out, `"name": "Test"`)
	require.Contains(t, out, `"description": "A test"`)
	require.Contains(t, out, "ipfs://"+cidutil.String([]byte("hello")))
	require.Equal(t, hardhatAddr0, h.chain.owners["7"])
}

func TestMintWithFlagsDoesNotPrompt(t *testing.T) {
	h := newHarness(t)
	asset := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(asset, []byte("png"), 0o644))
	owner := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	code, _, stderr := h.run("mint", asset, "--name", "N", "--description", "D", "--owner", owner)
	require.Equal(t, 0, code, stderr)
	require.Empty(t, h.prompter.asked)
	require.Equal(t, common.HexToAddress(owner), h.chain.owners["7"])
}

func TestMintUnconfirmedPrintsWarning(t *testing.T) {
	h := newHarness(t)
	h.chain.mintErr = model.NewError(model.KindUnconfirmedMint, "no Transfer event in receipt")
	asset := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(asset, []byte("png"), 0o644))

	code, _, stderr := h.run("mint", asset, "--name", "N", "--description", "D")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Funds may have been spent")
	require.Contains(t, stderr, "no Transfer event in receipt")
}

func TestShowTransferAndPin(t *testing.T) {
	h := newHarness(t)
	asset := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(asset, []byte("png"), 0o644))
	code, _, stderr := h.run("mint", asset, "--name", "N", "--description", "D")
	require.Equal(t, 0, code, stderr)

	code, out, stderr := h.run("show", "7", "--creation-info", "--fetch-asset")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, out, "Owner Address:")
	require.Contains(t, out, hardhatAddr0.Hex())
	require.Contains(t, out, "Block Number:")
	require.Contains(t, out, "cG5n") // base64("png")

	to := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	code, out, stderr = h.run("transfer", "7", to)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, out, "Transferred token 7")
	require.Equal(t, common.HexToAddress(to), h.chain.owners["7"])

	code, out, stderr = h.run("pin", "7")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, out, "Pinned all data for token id 7")
	id, err := cidutil.Sum([]byte("png"))
	require.NoError(t, err)
	require.True(t, h.store.Pinned(id))
}

func TestShowUnknownToken(t *testing.T) {
	h := newHarness(t)
	code, _, stderr := h.run("show", "99")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "token 99 not found")
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)
	for _, args := range [][]string{
		{},
		{"mint"},
		{"transfer", "1"},
		{"bogus"},
		{"show", "1", "--bogus"},
		{"key"},
	} {
		code, _, stderr := h.run(args...)
		require.Equal(t, 2, code, "args %q: %s", args, stderr)
	}
}

func TestCIDCommand(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	code, out, stderr := h.run("cid", path)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, out, "ipfs://"+cidutil.String([]byte("hello")))
	require.Contains(t, out, path)
}

func TestKeyCommands(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()

	code, out, stderr := h.run("--key-dir", dir, "key", "init", "alice", "--key", hardhatKey0)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, out, hardhatAddr0.Hex())

	code, _, stderr = h.run("--key-dir", dir, "key", "init", "alice")
	require.Equal(t, 1, code, "existing key must not be overwritten: %s", stderr)

	code, _, stderr = h.run("--key-dir", dir, "key", "derive", "alice", "minter")
	require.Equal(t, 0, code, stderr)

	code, out, stderr = h.run("--key-dir", dir, "key", "list")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, out, "alice")
	require.Contains(t, out, "minter")

	code, out, stderr = h.run("--key-dir", dir, "key", "export", "alice")
	require.Equal(t, 0, code, stderr)
	require.Equal(t, hardhatAddr0.Hex(), strings.TrimSpace(out))
}

func TestAdoptValidatesCountBeforeDialing(t *testing.T) {
	h := newHarness(t)
	code, _, stderr := h.run("--rpc", "http://127.0.0.1:1", "adopt", "--count", "21")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "between 1 and 20")
}

func TestMissingDeploymentFile(t *testing.T) {
	h := newHarness(t)
	code, _, stderr := h.run("--deployment", filepath.Join(t.TempDir(), "missing.json"), "price")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "missing.json")
}

func TestBadLogLevelIsUsageError(t *testing.T) {
	h := newHarness(t)
	code, _, _ := h.run("--log-level", "loud", "cid", "x")
	require.Equal(t, 2, code)
}

func TestParseEther(t *testing.T) {
	for in, want := range map[string]string{
		"1":                    "1000000000000000000",
		"0.05":                 "50000000000000000",
		"0":                    "0",
		"1.000000000000000001": "1000000000000000001",
	} {
		got, err := parseEther(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got.String(), in)
	}
	for _, bad := range []string{"", "-1", "abc", "0.0000000000000000001"} {
		_, err := parseEther(bad)
		require.True(t, model.IsKind(err, model.KindValidation), bad)
	}
	require.Equal(t, "0.05", formatEther(big.NewInt(50000000000000000)))
	require.Equal(t, "2", formatEther(new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18))))
	require.Equal(t, "0", formatEther(new(big.Int)))
}

func TestContentPutGetWithLocalStore(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	cfg := filepath.Join(dir, "pixelz.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{
  "ipfsGatewayUrl": "https://gw.example/ipfs",
  "storage": {"backends": [{"name": "localfs", "config": {"dir": "`+filepath.ToSlash(filepath.Join(dir, "cas"))+`"}}]}
}`), 0o644))
	asset := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(asset, []byte("hello"), 0o644))
	want := cidutil.String([]byte("hello"))

	code, out, stderr := h.run("--config", cfg, "content", "put", asset)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, out, "ipfs://"+want)
	require.Contains(t, out, "https://gw.example/ipfs/"+want)

	code, out, stderr = h.run("--config", cfg, "content", "get", "ipfs://"+want)
	require.Equal(t, 0, code, stderr)
	require.Equal(t, "hello", out)

	code, _, stderr = h.run("--config", cfg, "content", "pin", want)
	require.Equal(t, 0, code, stderr)
}

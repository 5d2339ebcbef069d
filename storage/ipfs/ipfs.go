package ipfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	shell "github.com/ipfs/go-ipfs-api"
	"github.com/sirupsen/logrus"

	"xdao.co/pixelz/cidutil"
	"xdao.co/pixelz/storage"
)

// CAS is a content-addressable store backed by a Kubo node's HTTP API.
//
// CID contract: blobs are added as CIDv1, raw leaves, sha2-256, so a
// single-chunk blob gets the same CID as cidutil.Sum. Larger blobs get a
// chunked root that is trusted as returned by the node.
//
// Warning: reachability is not validity; raw CIDs are re-hashed on read.
type CAS struct {
	sh     *shell.Shell
	pin    bool
	logger logrus.FieldLogger
}

type Options struct {
	// API is the Kubo API address, e.g. "http://localhost:5001".
	API string
	// Pin pins content on Put. Kubo pins added content by default.
	Pin bool
	// Timeout bounds every request. Zero means no timeout.
	Timeout time.Duration
	Logger  logrus.FieldLogger
}

var (
	_ storage.CAS        = (*CAS)(nil)
	_ storage.Pinner     = (*CAS)(nil)
	_ storage.PathGetter = (*CAS)(nil)
)

func New(opts Options) (*CAS, error) {
	if opts.API == "" {
		return nil, errors.New("ipfs: api address is required")
	}
	sh := shell.NewShell(opts.API)
	if opts.Timeout > 0 {
		sh.SetTimeout(opts.Timeout)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CAS{sh: sh, pin: opts.Pin, logger: logger}, nil
}

func (c *CAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	out, err := c.sh.Add(bytes.NewReader(data),
		shell.CidVersion(1),
		shell.Hash("sha2-256"),
		shell.RawLeaves(true),
		shell.Pin(c.pin),
	)
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs: add: %w", err)
	}
	id, err := cid.Decode(strings.TrimSpace(out))
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs: unexpected add output %q: %w", out, err)
	}
	if !cidutil.Matches(id, data) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	c.logger.WithFields(logrus.Fields{"cid": id.String(), "bytes": len(data)}).Debug("ipfs: added")
	return id, nil
}

func (c *CAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	out, err := c.cat(ctx, id.String())
	if err != nil {
		return nil, err
	}
	if !cidutil.Matches(id, out) {
		return nil, storage.ErrCIDMismatch
	}
	return out, nil
}

// GetPath reads <id>/<path> from a directory DAG.
func (c *CAS) GetPath(ctx context.Context, id cid.Cid, path string) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	return c.cat(ctx, id.String()+"/"+strings.Trim(path, "/"))
}

// Has only consults the local repo; it never searches the network.
func (c *CAS) Has(ctx context.Context, id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	var stat struct {
		Key  string
		Size int
	}
	err := c.sh.Request("block/stat", id.String()).
		Option("offline", true).
		Exec(ctx, &stat)
	return err == nil
}

func (c *CAS) Pin(ctx context.Context, id cid.Cid) error {
	if !id.Defined() {
		return storage.ErrInvalidCID
	}
	err := c.sh.Request("pin/add", id.String()).
		Option("recursive", true).
		Exec(ctx, nil)
	if err != nil {
		return mapError(fmt.Errorf("ipfs: pin %s: %w", id, err))
	}
	c.logger.WithField("cid", id.String()).Debug("ipfs: pinned")
	return nil
}

func (c *CAS) cat(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.sh.Request("cat", path).Send(ctx)
	if err != nil {
		return nil, mapError(fmt.Errorf("ipfs: cat %s: %w", path, err))
	}
	defer resp.Close()
	if resp.Error != nil {
		return nil, mapError(fmt.Errorf("ipfs: cat %s: %w", path, resp.Error))
	}
	out, err := io.ReadAll(resp.Output)
	if err != nil {
		return nil, fmt.Errorf("ipfs: cat %s: %w", path, err)
	}
	return out, nil
}

func mapError(err error) error {
	if isLikelyNotFound(err) {
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	}
	return err
}

func isLikelyNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "no link named") ||
		strings.Contains(msg, "no such file")
}

package storage

import (
	"context"

	"github.com/ipfs/go-cid"

	"xdao.co/pixelz/cidutil"
)

// CAS is a minimal content-addressable storage interface.
//
// Contract:
// - Put MUST be idempotent: identical bytes yield the identical CID.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written. Single-block writes use
//   cidutil.Prefix; backends that chunk large blobs (Kubo) return a dag-pb root.
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Has(ctx context.Context, id cid.Cid) bool
}

// Pinner is implemented by backends that garbage-collect unpinned content.
type Pinner interface {
	Pin(ctx context.Context, id cid.Cid) error
}

// PathGetter is implemented by backends that can resolve a path inside a
// directory DAG rooted at id (e.g. "<cid>/metadata.json").
type PathGetter interface {
	GetPath(ctx context.Context, id cid.Cid, path string) ([]byte, error)
}

// Pin makes id durable on every backend: backends implementing Pinner pin it,
// the rest receive a copy of the bytes if they do not already have them.
func Pin(ctx context.Context, id cid.Cid, backends ...CAS) error {
	if !id.Defined() {
		return ErrInvalidCID
	}
	var data []byte
	all := MultiCAS{Adapters: backends}
	for _, b := range backends {
		if p, ok := b.(Pinner); ok {
			if err := p.Pin(ctx, id); err != nil {
				return err
			}
			continue
		}
		if b.Has(ctx, id) {
			continue
		}
		if data == nil {
			var err error
			if data, err = all.Get(ctx, id); err != nil {
				return err
			}
		}
		got, err := b.Put(ctx, data)
		if err != nil {
			return err
		}
		// A chunked root cannot be reproduced by a single-block store; the copy
		// lands under its raw CID instead.
		if !got.Equals(id) && (cidutil.Verifiable(id) || !cidutil.Matches(got, data)) {
			return ErrCIDMismatch
		}
	}
	return nil
}

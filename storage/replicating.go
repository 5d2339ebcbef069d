package storage

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/pixelz/cidutil"
)

// NamedCAS associates a CAS with a stable backend name.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// ReplicatingCAS writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends; the first backend's CID
// is canonical. Every raw CID returned must hash the written bytes, otherwise
// ErrCIDMismatch is returned. Chunked roots (Kubo, blobs over 256 KiB) cannot
// be checked locally and differ from the raw CID of single-block backends.
type ReplicatingCAS struct {
	Backends []NamedCAS
}

var _ CAS = ReplicatingCAS{}

// PutAll writes the same bytes to all backends and returns the canonical CID
// plus a map of backend name -> returned CID.
func (r ReplicatingCAS) PutAll(ctx context.Context, data []byte) (cid.Cid, map[string]cid.Cid, error) {
	if len(r.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("storage: ReplicatingCAS has no backends")
	}

	var canonical cid.Cid
	out := make(map[string]cid.Cid, len(r.Backends))
	for _, b := range r.Backends {
		if b.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil CAS for backend %q", b.Name)
		}
		got, err := b.CAS.Put(ctx, data)
		if err != nil {
			return cid.Undef, nil, fmt.Errorf("storage: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if !got.Defined() || !cidutil.Matches(got, data) {
			return cid.Undef, out, ErrCIDMismatch
		}
		if !canonical.Defined() {
			canonical = got
		}
	}
	return canonical, out, nil
}

func (r ReplicatingCAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(ctx, data)
	return id, err
}

func (r ReplicatingCAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	return MultiCAS{Adapters: r.adapters()}.Get(ctx, id)
}

func (r ReplicatingCAS) GetPath(ctx context.Context, id cid.Cid, path string) ([]byte, error) {
	return MultiCAS{Adapters: r.adapters()}.GetPath(ctx, id, path)
}

func (r ReplicatingCAS) Has(ctx context.Context, id cid.Cid) bool {
	return MultiCAS{Adapters: r.adapters()}.Has(ctx, id)
}

// Pin makes id durable on every backend.
func (r ReplicatingCAS) Pin(ctx context.Context, id cid.Cid) error {
	return Pin(ctx, id, r.adapters()...)
}

func (r ReplicatingCAS) adapters() []CAS {
	out := make([]CAS, 0, len(r.Backends))
	for _, b := range r.Backends {
		if b.CAS != nil {
			out = append(out, b.CAS)
		}
	}
	return out
}

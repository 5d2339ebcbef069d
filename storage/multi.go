package storage

import (
	"context"
	"errors"

	"github.com/ipfs/go-cid"
)

// MultiCAS provides deterministic, ordered fallback across multiple CAS adapters.
//
// Read order is the slice order in Adapters; callers MUST supply a fixed order.
//
// Put is defined to write only to the first adapter.
type MultiCAS struct {
	Adapters []CAS
}

var _ CAS = MultiCAS{}

func (m MultiCAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if len(m.Adapters) == 0 {
		return cid.Undef, errors.New("storage: MultiCAS has no adapters")
	}
	return m.Adapters[0].Put(ctx, data)
}

func (m MultiCAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	for _, cas := range m.Adapters {
		b, err := cas.Get(ctx, id)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

// GetPath asks each adapter that supports path resolution in order.
func (m MultiCAS) GetPath(ctx context.Context, id cid.Cid, path string) ([]byte, error) {
	var sawResolver bool
	for _, cas := range m.Adapters {
		pg, ok := cas.(PathGetter)
		if !ok {
			continue
		}
		sawResolver = true
		b, err := pg.GetPath(ctx, id, path)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	if !sawResolver {
		return nil, ErrPathUnsupported
	}
	return nil, ErrNotFound
}

func (m MultiCAS) Has(ctx context.Context, id cid.Cid) bool {
	for _, cas := range m.Adapters {
		if cas.Has(ctx, id) {
			return true
		}
	}
	return false
}

// Pin pins id on the write adapter only.
func (m MultiCAS) Pin(ctx context.Context, id cid.Cid) error {
	if len(m.Adapters) == 0 {
		return errors.New("storage: MultiCAS has no adapters")
	}
	if !m.Adapters[0].Has(ctx, id) {
		data, err := m.Get(ctx, id)
		if err != nil {
			return err
		}
		if _, err := m.Adapters[0].Put(ctx, data); err != nil {
			return err
		}
	}
	if p, ok := m.Adapters[0].(Pinner); ok {
		return p.Pin(ctx, id)
	}
	return nil
}

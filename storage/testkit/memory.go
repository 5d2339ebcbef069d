package testkit

import (
	"context"
	"strings"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/pixelz/cidutil"
	"xdao.co/pixelz/storage"
)

// Memory is an in-process CAS for tests. It also implements storage.Pinner
// and storage.PathGetter; paths are served from entries added with AddPath.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	paths   map[string][]byte
	pinned  map[string]bool
	puts    int
}

var (
	_ storage.CAS        = (*Memory)(nil)
	_ storage.Pinner     = (*Memory)(nil)
	_ storage.PathGetter = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		objects: map[string][]byte{},
		paths:   map[string][]byte{},
		pinned:  map[string]bool{},
	}
}

func (m *Memory) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if _, ok := m.objects[id.KeyString()]; !ok {
		m.objects[id.KeyString()] = append([]byte(nil), data...)
	}
	return id, nil
}

func (m *Memory) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[id.KeyString()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) Has(ctx context.Context, id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[id.KeyString()]
	return ok
}

func (m *Memory) Pin(ctx context.Context, id cid.Cid) error {
	if !id.Defined() {
		return storage.ErrInvalidCID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id.KeyString()]; !ok {
		return storage.ErrNotFound
	}
	m.pinned[id.KeyString()] = true
	return nil
}

func (m *Memory) GetPath(ctx context.Context, id cid.Cid, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.paths[id.String()+"/"+strings.Trim(path, "/")]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

// AddPath makes data resolvable as <id>/<path> via GetPath.
func (m *Memory) AddPath(id cid.Cid, path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[id.String()+"/"+strings.Trim(path, "/")] = append([]byte(nil), data...)
}

// Pinned reports whether id was pinned.
func (m *Memory) Pinned(id cid.Cid) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pinned[id.KeyString()]
}

// Puts returns the number of Put calls seen, including repeats.
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Len returns the number of distinct objects stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

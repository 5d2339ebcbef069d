// Package casregistry maps the backend names used in the "storage" section
// of pixelz.json (and in pixelz-casd --backend) to constructors.
//
// Backend packages register from init(); a binary only offers the backends
// it blank-imports:
//
//	import _ "xdao.co/pixelz/storage/ipfs"
package casregistry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"xdao.co/pixelz/storage"
)

// Backend describes one content store implementation.
type Backend struct {
	Name        string
	Description string
	Usage       Usage

	// Open builds the store from the backend's "config" map, e.g.
	// {"api": "http://localhost:5001"} for ipfs or {"dir": "./cas"} for
	// localfs. The returned close function may be nil.
	Open func(cfg map[string]string) (storage.CAS, func() error, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

func Register(b Backend) error {
	switch {
	case b.Name == "":
		return fmt.Errorf("casregistry: backend name is required")
	case b.Open == nil:
		return fmt.Errorf("casregistry: backend %q has no Open func", b.Name)
	case b.Usage == 0:
		return fmt.Errorf("casregistry: backend %q declares no usage", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, dup := backends[b.Name]; dup {
		return fmt.Errorf("casregistry: backend %q registered twice", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is Register for init functions.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns the backends usable by a CLI or daemon, ordered by name.
func List(usage Usage) []Backend {
	mu.RLock()
	defer mu.RUnlock()
	var out []Backend
	for _, b := range backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func Names(usage Usage) []string {
	var names []string
	for _, b := range List(usage) {
		names = append(names, b.Name)
	}
	return names
}

// Open builds the named store. A nil cfg is treated as empty, so backend
// defaults apply.
func Open(name string, usage Usage, cfg map[string]string) (storage.CAS, func() error, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	switch {
	case !ok:
		return nil, nil, fmt.Errorf("unknown storage backend %q (available: %s)", name, strings.Join(Names(usage), ", "))
	case !b.Usage.allows(usage):
		return nil, nil, fmt.Errorf("storage backend %q is not available to %s", name, usage)
	}
	if cfg == nil {
		cfg = map[string]string{}
	}
	return b.Open(cfg)
}

package localfs

import (
	"fmt"
	"strings"

	"xdao.co/pixelz/storage"
	"xdao.co/pixelz/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "localfs",
		Description: "Local filesystem CAS (directory)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		Open: func(cfg map[string]string) (storage.CAS, func() error, error) {
			dir := strings.TrimSpace(cfg["dir"])
			if dir == "" {
				return nil, nil, fmt.Errorf("localfs: missing \"dir\"")
			}
			cas, err := New(dir)
			return cas, nil, err
		},
	})
}

package ipfs

import (
	"strconv"
	"time"

	"xdao.co/pixelz/storage"
	"xdao.co/pixelz/storage/casregistry"
)

const DefaultAPI = "http://localhost:5001"

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "ipfs",
		Description: "Kubo node over its HTTP API",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		Open: func(cfg map[string]string) (storage.CAS, func() error, error) {
			opts := Options{API: cfg["api"], Pin: true}
			if opts.API == "" {
				opts.API = DefaultAPI
			}
			if v := cfg["pin"]; v != "" {
				b, err := strconv.ParseBool(v)
				if err != nil {
					return nil, nil, err
				}
				opts.Pin = b
			}
			if v := cfg["timeout"]; v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return nil, nil, err
				}
				opts.Timeout = d
			}
			cas, err := New(opts)
			if err != nil {
				return nil, nil, err
			}
			return cas, nil, nil
		},
	})
}

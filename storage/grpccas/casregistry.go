package grpccas

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"xdao.co/pixelz/storage"
	"xdao.co/pixelz/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "grpc",
		Description: "gRPC CAS client (talks to pixelz-casd)",
		Usage:       casregistry.UsageCLI,
		Open: func(cfg map[string]string) (storage.CAS, func() error, error) {
			target := strings.TrimSpace(cfg["target"])
			if target == "" {
				return nil, nil, fmt.Errorf("grpc: missing \"target\"")
			}
			opts := DialOptions{Timeout: 5 * time.Second}
			var rpcTimeout time.Duration
			var err error
			if v := cfg["dial-timeout"]; v != "" {
				if opts.Timeout, err = time.ParseDuration(v); err != nil {
					return nil, nil, fmt.Errorf("grpc: dial-timeout: %w", err)
				}
			}
			if v := cfg["timeout"]; v != "" {
				if rpcTimeout, err = time.ParseDuration(v); err != nil {
					return nil, nil, fmt.Errorf("grpc: timeout: %w", err)
				}
			}
			if v := cfg["max-msg-bytes"]; v != "" {
				if opts.MaxMsgBytes, err = strconv.Atoi(v); err != nil {
					return nil, nil, fmt.Errorf("grpc: max-msg-bytes: %w", err)
				}
			}
			client, err := Dial(target, opts)
			if err != nil {
				return nil, nil, err
			}
			client.Timeout = rpcTimeout
			return client, client.Close, nil
		},
	})
}

// Package config loads the pixelz tool configuration: a JSON file whose
// values can be overridden by PIXELZ_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"xdao.co/pixelz/deployment"
	"xdao.co/pixelz/model"
	"xdao.co/pixelz/storage"
	"xdao.co/pixelz/storage/casconfig"
	"xdao.co/pixelz/storage/casregistry"
)

const (
	DefaultIPFSAPIURL     = "http://localhost:5001"
	DefaultIPFSGatewayURL = "http://localhost:8080/ipfs"
	DefaultRPCURL         = "http://localhost:8545"
	DefaultPath           = "pixelz.json"
)

type File struct {
	IPFSAPIURL           string `json:"ipfsApiUrl,omitempty"`
	IPFSGatewayURL       string `json:"ipfsGatewayUrl,omitempty"`
	DeploymentConfigFile string `json:"deploymentConfigFile,omitempty"`
	RPCURL               string `json:"rpcUrl,omitempty"`
	// Signer names a key in the key store, optionally "name/role".
	Signer string `json:"signer,omitempty"`
	KeyDir string `json:"keyDir,omitempty"`
	// ContentTimeout bounds each content store request, e.g. "30s".
	ContentTimeout string `json:"contentTimeout,omitempty"`
	LogLevel       string `json:"logLevel,omitempty"`
	// Storage replaces the single Kubo backend at IPFSAPIURL when set.
	Storage *casconfig.Config `json:"storage,omitempty"`
}

var envOverrides = []struct {
	name  string
	field func(*File) *string
}{
	{"PIXELZ_IPFS_API_URL", func(f *File) *string { return &f.IPFSAPIURL }},
	{"PIXELZ_IPFS_GATEWAY_URL", func(f *File) *string { return &f.IPFSGatewayURL }},
	{"PIXELZ_DEPLOYMENT", func(f *File) *string { return &f.DeploymentConfigFile }},
	{"PIXELZ_RPC_URL", func(f *File) *string { return &f.RPCURL }},
	{"PIXELZ_SIGNER", func(f *File) *string { return &f.Signer }},
	{"PIXELZ_KEY_DIR", func(f *File) *string { return &f.KeyDir }},
	{"PIXELZ_CONTENT_TIMEOUT", func(f *File) *string { return &f.ContentTimeout }},
	{"PIXELZ_LOG_LEVEL", func(f *File) *string { return &f.LogLevel }},
}

// Load reads path, applies environment overrides and defaults, and
// validates the result. A missing file at DefaultPath is not an error;
// an explicitly named missing file is.
func Load(path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	f := &File{}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(b, f); err != nil {
			return nil, model.WrapError(model.KindConfig, err, "parse config %s", path)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, model.WrapError(model.KindConfig, err, "read config %s", path)
	}

	f.applyEnv()
	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, model.WrapError(model.KindConfig, err, "config %s", path)
	}
	return f, nil
}

func (f *File) applyEnv() {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.field(f) = v
		}
	}
}

func (f *File) applyDefaults() {
	if f.IPFSAPIURL == "" {
		f.IPFSAPIURL = DefaultIPFSAPIURL
	}
	if f.IPFSGatewayURL == "" {
		f.IPFSGatewayURL = DefaultIPFSGatewayURL
	}
	if f.DeploymentConfigFile == "" {
		f.DeploymentConfigFile = deployment.DefaultPath
	}
	if f.RPCURL == "" {
		f.RPCURL = DefaultRPCURL
	}
	if f.LogLevel == "" {
		f.LogLevel = "info"
	}
}

func (f *File) Validate() error {
	for name, v := range map[string]string{
		"ipfsApiUrl":     f.IPFSAPIURL,
		"ipfsGatewayUrl": f.IPFSGatewayURL,
		"rpcUrl":         f.RPCURL,
	} {
		u, err := url.Parse(v)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s %q is not an absolute URL", name, v)
		}
	}
	if _, err := f.Timeout(); err != nil {
		return err
	}
	if f.Storage != nil {
		if err := f.Storage.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Timeout is the parsed ContentTimeout; zero when unset.
func (f *File) Timeout() (time.Duration, error) {
	if f.ContentTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.ContentTimeout)
	if err != nil {
		return 0, fmt.Errorf("contentTimeout: %w", err)
	}
	return d, nil
}

// StorageConfig is the configured storage, or a single Kubo backend at
// IPFSAPIURL.
func (f *File) StorageConfig() casconfig.Config {
	if f.Storage != nil {
		return *f.Storage
	}
	return casconfig.Config{Backends: []casconfig.BackendConfig{{
		Name:   "ipfs",
		Config: map[string]string{"api": f.IPFSAPIURL, "pin": "true", "timeout": f.ContentTimeout},
	}}}
}

// OpenStore opens the configured storage. Backend packages must be linked in
// by the caller (blank imports).
func (f *File) OpenStore(usage casregistry.Usage, preferred string) (storage.CAS, func() error, error) {
	cas, closeFn, err := f.StorageConfig().Open(usage, preferred)
	if err != nil {
		return nil, nil, model.WrapError(model.KindConfig, err, "open content store")
	}
	return cas, closeFn, nil
}

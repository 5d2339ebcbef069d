package main

import (
	"context"
	"crypto/ecdsa"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	"xdao.co/pixelz/config"
	"xdao.co/pixelz/content"
	"xdao.co/pixelz/contract"
	"xdao.co/pixelz/deployment"
	"xdao.co/pixelz/keys"
	"xdao.co/pixelz/model"
	"xdao.co/pixelz/nft"
	"xdao.co/pixelz/storage/casregistry"

	_ "xdao.co/pixelz/storage/grpccas"
	_ "xdao.co/pixelz/storage/ipfs"
	_ "xdao.co/pixelz/storage/localfs"
)

// Prompter asks the user for input.
type Prompter interface {
	Text(label, defaultValue string) (string, error)
	Confirm(label string, defaultValue bool) (bool, error)
}

type ptermPrompter struct{}

func (ptermPrompter) Text(label, defaultValue string) (string, error) {
	return pterm.DefaultInteractiveTextInput.WithDefaultValue(defaultValue).Show(label)
}

func (ptermPrompter) Confirm(label string, defaultValue bool) (bool, error) {
	return pterm.DefaultInteractiveConfirm.WithDefaultValue(defaultValue).Show(label)
}

// cliConfig carries global flags and the collaborators commands build on.
// Flags override the config file and PIXELZ_* environment.
type cliConfig struct {
	configPath     string
	deploymentPath string
	rpcURL         string
	signer         string
	keyDir         string
	logLevel       string
	backend        string

	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	prompter Prompter
	logger   *logrus.Logger
	file     *config.File

	// newService builds the NFT workflow. Tests replace it.
	newService func(ctx context.Context, c *cliConfig, needSigner bool) (*nft.Service, func(), error)
}

func newCLIConfig(in io.Reader, out, errOut io.Writer) *cliConfig {
	logger := logrus.New()
	logger.SetOutput(errOut)
	return &cliConfig{
		in:         in,
		out:        out,
		errOut:     errOut,
		prompter:   ptermPrompter{},
		logger:     logger,
		newService: defaultService,
	}
}

func (c *cliConfig) load() error {
	f, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	override := func(flag string, field *string) {
		if flag != "" {
			*field = flag
		}
	}
	override(c.deploymentPath, &f.DeploymentConfigFile)
	override(c.rpcURL, &f.RPCURL)
	override(c.signer, &f.Signer)
	override(c.keyDir, &f.KeyDir)
	override(c.logLevel, &f.LogLevel)
	if err := f.Validate(); err != nil {
		return model.WrapError(model.KindConfig, err, "config")
	}

	level, err := logrus.ParseLevel(f.LogLevel)
	if err != nil {
		return usageError{err}
	}
	c.logger.SetLevel(level)
	c.file = f
	return nil
}

func (c *cliConfig) keyStore() (*keys.KeyStore, error) {
	return keys.CreateKeyStore(c.file.KeyDir)
}

// loadSigner resolves the configured signer: a key file path, a 0x hex key
// or a key store name with an optional role.
func (c *cliConfig) loadSigner() (*ecdsa.PrivateKey, error) {
	s := strings.TrimSpace(c.file.Signer)
	if s == "" {
		return nil, model.NewError(model.KindConfig, "no signer configured: pass --signer <name>[/<role>] or set PIXELZ_SIGNER")
	}
	ks, err := c.keyStore()
	if err != nil {
		return nil, err
	}
	var key *ecdsa.PrivateKey
	switch {
	case strings.HasPrefix(s, "0x") && len(s) == 66:
		key, err = keys.ParseKeyHex(s)
	case fileExists(s):
		key, err = ks.LoadKey("", "", "", s)
	default:
		name, role := keys.ParseSigner(s)
		key, err = ks.LoadKey("", name, role, "")
	}
	if err != nil {
		return nil, model.WrapError(model.KindConfig, err, "load signer %q", s)
	}
	return key, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (c *cliConfig) openContent() (*content.Client, func() error, error) {
	cas, closeFn, err := c.file.OpenStore(casregistry.UsageCLI, c.backend)
	if err != nil {
		return nil, nil, err
	}
	timeout, err := c.file.Timeout()
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return content.NewClient(cas, content.Options{
		Gateway: c.file.IPFSGatewayURL,
		Timeout: timeout,
		Logger:  c.logger,
	}), closeFn, nil
}

// dial connects to the configured RPC endpoint and, when a signer is
// configured or required, prepares transaction options for it.
func (c *cliConfig) dial(ctx context.Context, needSigner bool) (*ethclient.Client, *bind.TransactOpts, error) {
	client, err := ethclient.DialContext(ctx, c.file.RPCURL)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "connect to %s", c.file.RPCURL)
	}
	if !needSigner && c.file.Signer == "" {
		return client, nil, nil
	}
	key, err := c.loadSigner()
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, errors.Wrapf(err, "chain id from %s", c.file.RPCURL)
	}
	auth, err := keys.Transactor(key, chainID)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return client, auth, nil
}

func (c *cliConfig) openBinding(ctx context.Context, needSigner bool) (*contract.Binding, func(), error) {
	rec, err := deployment.Load(c.file.DeploymentConfigFile)
	if err != nil {
		return nil, nil, err
	}
	client, auth, err := c.dial(ctx, needSigner)
	if err != nil {
		return nil, nil, err
	}
	b, err := contract.New(rec, client, auth, c.logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return b, client.Close, nil
}

func defaultService(ctx context.Context, c *cliConfig, needSigner bool) (*nft.Service, func(), error) {
	store, closeStore, err := c.openContent()
	if err != nil {
		return nil, nil, err
	}
	chain, closeChain, err := c.openBinding(ctx, needSigner)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return nft.NewService(store, chain, c.logger), func() {
		closeChain()
		_ = closeStore()
	}, nil
}

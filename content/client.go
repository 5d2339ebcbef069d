package content

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"xdao.co/pixelz/model"
	"xdao.co/pixelz/storage"
)

// DefaultGateway is used when Options.Gateway is empty.
const DefaultGateway = "http://localhost:8080/ipfs"

// Client stores and fetches blobs by content address on a storage.CAS.
// It keeps no cache; every call reaches the backing store.
type Client struct {
	cas     storage.CAS
	gateway string
	timeout time.Duration
	logger  logrus.FieldLogger
}

type Options struct {
	// Gateway is the HTTP gateway base used by GatewayURL.
	Gateway string
	// Timeout bounds each store or fetch when non-zero.
	Timeout time.Duration
	Logger  logrus.FieldLogger
}

func NewClient(cas storage.CAS, opts Options) *Client {
	if opts.Gateway == "" {
		opts.Gateway = DefaultGateway
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Client{cas: cas, gateway: opts.Gateway, timeout: opts.Timeout, logger: opts.Logger}
}

// Store persists data and returns its address. Identical bytes always yield
// the identical address. pathHint only labels the upload in logs.
func (c *Client) Store(ctx context.Context, data []byte, pathHint string) (URI, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	id, err := c.cas.Put(ctx, data)
	if err != nil {
		return "", mapStorageError(err, "store %s", pathHint)
	}
	uri := URI(scheme + id.String())
	c.logger.WithFields(logrus.Fields{
		"uri":   uri,
		"path":  pathHint,
		"bytes": len(data),
	}).Debug("stored content")
	return uri, nil
}

// Fetch returns the bytes at uriOrCID. Addresses with a path below the root
// need a backend that implements storage.PathGetter.
func (c *Client) Fetch(ctx context.Context, uriOrCID string) ([]byte, error) {
	id, path, err := Split(uriOrCID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var data []byte
	if path == "" {
		data, err = c.cas.Get(ctx, id)
	} else if pg, ok := c.cas.(storage.PathGetter); ok {
		data, err = pg.GetPath(ctx, id, path)
	} else {
		err = storage.ErrPathUnsupported
	}
	if err != nil {
		return nil, mapStorageError(err, "fetch %s", uriOrCID)
	}
	return data, nil
}

func (c *Client) FetchString(ctx context.Context, uriOrCID string) (string, error) {
	b, err := c.Fetch(ctx, uriOrCID)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Client) FetchBase64(ctx context.Context, uriOrCID string) (string, error) {
	b, err := c.Fetch(ctx, uriOrCID)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// FetchJSON decodes the JSON document at uriOrCID into v.
func (c *Client) FetchJSON(ctx context.Context, uriOrCID string, v any) error {
	b, err := c.Fetch(ctx, uriOrCID)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return model.WrapError(model.KindMalformedData, err, "%s is not valid JSON", uriOrCID)
	}
	return nil
}

// StoreJSON marshals v and stores it.
func (c *Client) StoreJSON(ctx context.Context, v any, pathHint string) (URI, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", model.WrapError(model.KindValidation, err, "encode %s", pathHint)
	}
	return c.Store(ctx, b, pathHint)
}

// Pin makes the root of uri durable on the backing store.
func (c *Client) Pin(ctx context.Context, uri string) error {
	id, err := ExtractCID(uri)
	if err != nil {
		return err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := storage.Pin(ctx, id, c.cas); err != nil {
		return mapStorageError(err, "pin %s", uri)
	}
	c.logger.WithField("cid", id.String()).Info("pinned content")
	return nil
}

// GatewayURL returns the HTTP gateway URL for uri.
func (c *Client) GatewayURL(uri string) string {
	return GatewayURL(c.gateway, uri)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func mapStorageError(err error, format string, args ...any) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return model.WrapError(model.KindNotFound, err, format, args...)
	case errors.Is(err, storage.ErrInvalidCID), errors.Is(err, storage.ErrPathUnsupported):
		return model.WrapError(model.KindValidation, err, format, args...)
	case errors.Is(err, storage.ErrCIDMismatch), errors.Is(err, storage.ErrImmutable):
		return model.WrapError(model.KindMalformedData, err, format, args...)
	default:
		return errors.Wrapf(err, format, args...)
	}
}

package content

import (
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/pixelz/model"
)

const scheme = "ipfs://"

// URI is a content address of the form ipfs://<cid>[/<path>].
type URI string

func (u URI) String() string { return string(u) }

// EnsureIPFSPrefix returns cidOrURI as an ipfs:// URI. It is idempotent and
// collapses the legacy "ipfs://ipfs/<cid>" form and bare "/ipfs/<cid>" paths.
func EnsureIPFSPrefix(cidOrURI string) string {
	return scheme + StripIPFSPrefix(cidOrURI)
}

// StripIPFSPrefix returns the "<cid>[/<path>]" part of an address.
func StripIPFSPrefix(uri string) string {
	s := strings.TrimPrefix(uri, scheme)
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimPrefix(s, "ipfs/")
	return s
}

// Split parses an address into its root CID and the optional path below it.
func Split(uri string) (cid.Cid, string, error) {
	rest := StripIPFSPrefix(strings.TrimSpace(uri))
	root, path, _ := strings.Cut(rest, "/")
	if root == "" {
		return cid.Undef, "", model.NewError(model.KindValidation, "empty content address %q", uri)
	}
	id, err := cid.Decode(root)
	if err != nil {
		return cid.Undef, "", model.WrapError(model.KindValidation, err, "invalid content address %q", uri)
	}
	return id, strings.Trim(path, "/"), nil
}

// ExtractCID returns the root CID of an address.
func ExtractCID(uri string) (cid.Cid, error) {
	id, _, err := Split(uri)
	return id, err
}

// GatewayURL maps an address onto an HTTP gateway, e.g.
// ("http://localhost:8080/ipfs", "ipfs://bafy.../meta.json") ->
// "http://localhost:8080/ipfs/bafy.../meta.json".
func GatewayURL(gatewayBase, uri string) string {
	return strings.TrimRight(gatewayBase, "/") + "/" + StripIPFSPrefix(uri)
}

// Package provenance computes the collection provenance hash published with
// setProvenanceHash: sha3-256 over the concatenated hex sha3-256 digests of
// every asset, in token order.
package provenance

import (
	"encoding/hex"
	"os"
	"strings"

	"golang.org/x/crypto/sha3"

	"xdao.co/pixelz/model"
)

// Digest is the hex sha3-256 of one asset.
func Digest(asset []byte) string {
	sum := sha3.Sum256(asset)
	return hex.EncodeToString(sum[:])
}

// Hash combines per-asset digests in order.
func Hash(digests []string) string {
	sum := sha3.Sum256([]byte(strings.Join(digests, "")))
	return hex.EncodeToString(sum[:])
}

// HashFiles reads paths in order and returns the provenance hash together
// with each file's digest.
func HashFiles(paths []string) (string, []string, error) {
	if len(paths) == 0 {
		return "", nil, model.NewError(model.KindValidation, "no asset files given")
	}
	digests := make([]string, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return "", nil, model.WrapError(model.KindValidation, err, "read asset %s", p)
		}
		digests = append(digests, Digest(b))
	}
	return Hash(digests), digests, nil
}

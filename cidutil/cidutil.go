package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Prefix is the addressing profile used for every blob pixelz stores:
// CIDv1, raw codec, sha2-256 with the default digest length.
//
// Stores MUST be configured to produce the same profile so repeated stores of
// identical bytes yield the identical address.
var Prefix = cid.Prefix{
	Version:  1,
	Codec:    cid.Raw,
	MhType:   multihash.SHA2_256,
	MhLength: -1,
}

// Sum returns the CID data would be stored under.
func Sum(data []byte) (cid.Cid, error) {
	return Prefix.Sum(data)
}

// String is Sum rendered as a string. It returns "" only if hashing fails,
// which cannot happen for sha2-256.
func String(data []byte) string {
	id, err := Sum(data)
	if err != nil {
		return ""
	}
	return id.String()
}

// Verifiable reports whether id addresses a single raw block, i.e. whether its
// bytes can be checked locally by re-hashing. Chunked (dag-pb) roots cannot.
func Verifiable(id cid.Cid) bool {
	return id.Defined() && id.Prefix().Codec == cid.Raw
}

// Matches reports whether data hashes to id under id's own prefix.
// Unverifiable CIDs always match.
func Matches(id cid.Cid, data []byte) bool {
	if !Verifiable(id) {
		return true
	}
	got, err := id.Prefix().Sum(data)
	if err != nil {
		return false
	}
	return got.Equals(id)
}

// Package keys is a local-first store for the secp256k1 keys pixelz signs
// transactions with.
//
// Keys live under ~/.pixelz/keys/<name>/root.key as hex, mode 0600. Role keys
// (e.g. "minter") are derived deterministically from a root key and stored
// under <name>/roles/<role>.key, so a lost role key can be re-derived.
package keys

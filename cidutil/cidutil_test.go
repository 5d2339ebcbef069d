package cidutil

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

func TestSum_Deterministic(t *testing.T) {
	a, err := Sum([]byte("hello"))
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	b, err := Sum([]byte("hello"))
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if !a.Equals(b) {
		t.Fatalf("Sum not deterministic: %s vs %s", a, b)
	}
	if a.Version() != 1 || a.Prefix().Codec != cid.Raw || a.Prefix().MhType != multihash.SHA2_256 {
		t.Fatalf("unexpected prefix: %+v", a.Prefix())
	}
	if String([]byte("hello")) != a.String() {
		t.Fatalf("String mismatch")
	}
}

func TestMatches(t *testing.T) {
	id, err := Sum([]byte("asset"))
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if !Matches(id, []byte("asset")) {
		t.Fatalf("expected match")
	}
	if Matches(id, []byte("other")) {
		t.Fatalf("expected mismatch")
	}

	mh, err := multihash.Sum([]byte("asset"), multihash.SHA2_256, -1)
	if err != nil {
		t.Fatalf("multihash.Sum: %v", err)
	}
	dagpb := cid.NewCidV1(cid.DagProtobuf, mh)
	if Verifiable(dagpb) {
		t.Fatalf("dag-pb roots are not locally verifiable")
	}
	if !Matches(dagpb, []byte("anything")) {
		t.Fatalf("unverifiable CIDs should always match")
	}
	if Verifiable(cid.Undef) {
		t.Fatalf("undefined CID is not verifiable")
	}
}

package cryptoffi

import (
	"bytes"
	"testing"

	"github.com/goose-lang/std"
)

func TestHash(t *testing.T) {
	// same hashes for same input.
	d1 := []byte("d1")
	h1 := Hash(d1)
	h2 := Hash(d1)
	if !std.BytesEqual(h1, h2) {
		t.Fatal()
	}
	if uint64(len(h1)) != HashLen {
		t.Fatal()
	}

	// diff hashes for diff inputs.
	if std.BytesEqual(h1, Hash([]byte("d2"))) {
		t.Fatal()
	}

	// incremental hasher agrees with one-shot.
	hr := NewHasher()
	hr.Write([]byte("d"))
	hr.Write([]byte("1"))
	if !std.BytesEqual(h1, hr.Sum(nil)) {
		t.Fatal()
	}
}

func TestContentHash(t *testing.T) {
	d := []byte("d")
	h1 := ContentHash(d)
	if !std.BytesEqual(h1, ContentHash(d)) {
		t.Fatal()
	}
	if uint64(len(h1)) != HashLen {
		t.Fatal()
	}
	// diff domains: content hashes never collide with chain hashes on
	// the same input.
	if std.BytesEqual(h1, Hash(d)) {
		t.Fatal()
	}
}

func TestSig(t *testing.T) {
	d := []byte("d")
	sk, err := SigGenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	sig, err := sk.Sign(d)
	if err != nil {
		t.Fatal(err)
	}

	pubB, err := sk.ExportPublicKeyset()
	if err != nil {
		t.Fatal(err)
	}
	pk, err := ImportPublicKeyset(pubB)
	if err != nil {
		t.Fatal(err)
	}

	// verify true.
	if !pk.Verify(d, sig) {
		t.Fatal()
	}

	// verify false for bad msg.
	if pk.Verify([]byte("d1"), sig) {
		t.Fatal()
	}

	// verify false for bad pk.
	sk2, err := SigGenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	pub2B, err := sk2.ExportPublicKeyset()
	if err != nil {
		t.Fatal(err)
	}
	pk2, err := ImportPublicKeyset(pub2B)
	if err != nil {
		t.Fatal(err)
	}
	if pk2.Verify(d, sig) {
		t.Fatal()
	}

	// verify false for bad sig.
	sig2 := bytes.Clone(sig)
	sig2[len(sig2)-1] = ^sig2[len(sig2)-1]
	if pk.Verify(d, sig2) {
		t.Fatal()
	}
}

func TestImportBad(t *testing.T) {
	if _, err := ImportPublicKeyset([]byte("not a keyset")); err == nil {
		t.Fatal()
	}
	if _, err := ImportPublicKeyset(nil); err == nil {
		t.Fatal()
	}
}

func TestFingerprint(t *testing.T) {
	sk, err := SigGenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	pubB, err := sk.ExportPublicKeyset()
	if err != nil {
		t.Fatal(err)
	}

	// stable per keyset, hex, uppercase.
	fp := Fingerprint(pubB)
	if fp != Fingerprint(pubB) {
		t.Fatal()
	}
	if uint64(len(fp)) != 2*HashLen {
		t.Fatal()
	}
	for _, r := range fp {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'F') {
			t.Fatal(fp)
		}
	}

	// diff keysets get diff fingerprints.
	sk2, err := SigGenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	pub2B, err := sk2.ExportPublicKeyset()
	if err != nil {
		t.Fatal(err)
	}
	if fp == Fingerprint(pub2B) {
		t.Fatal()
	}
}

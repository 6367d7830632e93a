// Package cryptoffi wraps the hashing and signing primitives under the
// registration ledger. signing runs through tink so the backing scheme
// can change without touching callers.
package cryptoffi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/tink-crypto/tink-go/v2/keyset"
	"github.com/tink-crypto/tink-go/v2/signature"
	"github.com/tink-crypto/tink-go/v2/tink"
	"github.com/zeebo/blake3"
)

const (
	HashLen uint64 = 32
)

// # Hash

// Hash is the chain digest. chain hashes are sha256 so links stay
// compatible with the hex form the ledger stores on disk.
func Hash(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

func NewHasher() hash.Hash {
	return sha256.New()
}

// ContentHash is the blake3 digest used for content addresses and key
// fingerprints. it never feeds the chain.
func ContentHash(data []byte) []byte {
	h := blake3.Sum256(data)
	return h[:]
}

// # Signature

// SigPrivateKey holds an unexported tink signer, which can't be
// accessed outside the package without reflection or unsafe.
type SigPrivateKey struct {
	signer tink.Signer
	handle *keyset.Handle
}

// SigPublicKey verifies detached signatures made by the matching
// SigPrivateKey.
type SigPublicKey struct {
	verifier tink.Verifier
	raw      []byte
}

// SigGenerateKey makes a fresh ed25519 keyset.
func SigGenerateKey() (*SigPrivateKey, error) {
	h, err := keyset.NewHandle(signature.ED25519KeyTemplate())
	if err != nil {
		return nil, fmt.Errorf("cryptoffi: generate keyset: %w", err)
	}
	return sigFromHandle(h)
}

// SigFromHandle wraps an existing keyset handle, e.g. one read back
// from a keyset file.
func SigFromHandle(h *keyset.Handle) (*SigPrivateKey, error) {
	return sigFromHandle(h)
}

func sigFromHandle(h *keyset.Handle) (*SigPrivateKey, error) {
	s, err := signature.NewSigner(h)
	if err != nil {
		return nil, fmt.Errorf("cryptoffi: signer from keyset: %w", err)
	}
	return &SigPrivateKey{signer: s, handle: h}, nil
}

// Sign errors instead of returning garbage when the backing primitive
// fails.
func (sk *SigPrivateKey) Sign(msg []byte) ([]byte, error) {
	sig, err := sk.signer.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("cryptoffi: sign: %w", err)
	}
	return sig, nil
}

// ExportPublicKeyset serializes the public half for self-contained
// offline verification.
func (sk *SigPrivateKey) ExportPublicKeyset() ([]byte, error) {
	pub, err := sk.handle.Public()
	if err != nil {
		return nil, fmt.Errorf("cryptoffi: public keyset: %w", err)
	}
	var buf bytes.Buffer
	if err := pub.WriteWithNoSecrets(keyset.NewBinaryWriter(&buf)); err != nil {
		return nil, fmt.Errorf("cryptoffi: export public keyset: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportPublicKeyset parses an exported public keyset.
func ImportPublicKeyset(b []byte) (*SigPublicKey, error) {
	h, err := keyset.ReadWithNoSecrets(keyset.NewBinaryReader(bytes.NewReader(b)))
	if err != nil {
		return nil, fmt.Errorf("cryptoffi: read public keyset: %w", err)
	}
	v, err := signature.NewVerifier(h)
	if err != nil {
		return nil, fmt.Errorf("cryptoffi: verifier from keyset: %w", err)
	}
	raw := make([]byte, len(b))
	copy(raw, b)
	return &SigPublicKey{verifier: v, raw: raw}, nil
}

// Verify rets okay if sig verifies. malformed input is a failed
// verification, not a fault.
func (pk *SigPublicKey) Verify(msg, sig []byte) bool {
	return pk.verifier.Verify(sig, msg) == nil
}

// Bytes returns the exported keyset this key was parsed from.
func (pk *SigPublicKey) Bytes() []byte {
	raw := make([]byte, len(pk.raw))
	copy(raw, pk.raw)
	return raw
}

// Fingerprint derives the stable identifier for an exported public
// keyset: uppercase hex of its blake3 digest.
func Fingerprint(pubKeyset []byte) string {
	return strings.ToUpper(hex.EncodeToString(ContentHash(pubKeyset)))
}

// Package signsvc hosts the signing backend the ledger treats as an
// external collaborator: sign a payload, verify a detached signature
// against exported key material, export the public key.
package signsvc

import (
	"fmt"
)

// Backend is one signing identity. key material crossing this boundary
// is an opaque exported keyset; callers store it and pass it back.
type Backend interface {
	// Sign errors when the backend is unreachable or the key is
	// unusable. it never silently returns an invalid signature.
	Sign(data []byte) ([]byte, error)
	// Verify returns a definite result. malformed input, an unknown
	// keyset, or a backend fault all count as a failed verification.
	Verify(data, sig, pubKeyset []byte) bool
	// ExportPublicKey returns the keyset to verify this identity's
	// signatures offline.
	ExportPublicKey() ([]byte, error)
	// Fingerprint is the stable identifier of the public keyset.
	Fingerprint() string
}

// BackendError reports an unreachable or misbehaving signing backend.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("signsvc: backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

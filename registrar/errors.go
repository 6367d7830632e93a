package registrar

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied rejects a gated operation whose required
	// fingerprint did not verify.
	ErrPermissionDenied = errors.New("registrar: permission denied: identity not verified")

	// ErrNotRegistered means no registration record exists for a
	// fingerprint.
	ErrNotRegistered = errors.New("registrar: no registration for fingerprint")

	// ErrUnknownEntry means a replace targeted an entry the ledger
	// never persisted.
	ErrUnknownEntry = errors.New("registrar: entry not present in ledger")

	// ErrInvalidSignature rejects a member registration whose identity
	// signature does not check out.
	ErrInvalidSignature = errors.New("registrar: invalid identity signature")
)

// ChainBreakError reports the first broken link found by VerifyChain.
// it carries the computed and stored values so a forensic diff can
// decide whether to trust the prefix before the break. the chain is
// never auto-repaired.
type ChainBreakError struct {
	Index    int
	Reason   string
	Computed string
	Stored   string
}

func (e *ChainBreakError) Error() string {
	return fmt.Sprintf("registrar: chain break at entry %d (%s): computed %s, stored %s",
		e.Index, e.Reason, e.Computed, e.Stored)
}

package registrar

import (
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mit-pdos/regledger/cryptoffi"
	"github.com/mit-pdos/regledger/signsvc"
	"github.com/rs/zerolog"
)

const verifiedCacheSize = 128

// IdentityVerifier checks a fingerprint's registration record against
// its embedded identity signature. successful checks are memoized;
// failures never are, so a later fix is picked up on the next call.
type IdentityVerifier struct {
	store   *Store
	backend signsvc.Backend
	cache   *lru.Cache[string, *RegistrationEntry]
	log     zerolog.Logger
}

func NewIdentityVerifier(store *Store, backend signsvc.Backend, log zerolog.Logger) (*IdentityVerifier, error) {
	cache, err := lru.New[string, *RegistrationEntry](verifiedCacheSize)
	if err != nil {
		return nil, err
	}
	return &IdentityVerifier{store: store, backend: backend, cache: cache, log: log}, nil
}

// Verify reports whether fp resolves to a cryptographically verified
// registration. it never panics or errors: any failure along the way
// reads as false.
func (v *IdentityVerifier) Verify(fp string) bool {
	if _, ok := v.cache.Get(fp); ok {
		v.log.Debug().Str("fp", short(fp)).Msg("identity verified (cache)")
		return true
	}

	e, err := v.store.GetRegistration(fp)
	if err != nil {
		v.log.Debug().Str("fp", short(fp)).Err(err).Msg("identity not verified")
		return false
	}
	if !verifyIdentitySignature(e, fp, v.backend) {
		v.log.Warn().Str("fp", short(fp)).Msg("identity signature rejected")
		return false
	}

	v.cache.Add(fp, e)
	v.log.Info().Str("fp", short(fp)).Msg("identity verified")
	return true
}

// Invalidate drops a memoized fingerprint, forcing the next Verify to
// re-check. needed when an identity is rotated or revoked: the cache
// itself never expires entries.
func (v *IdentityVerifier) Invalidate(fp string) {
	v.cache.Remove(fp)
}

// verifyIdentitySignature checks an entry's detached identity
// signature against its embedded public keyset and the claimed
// fingerprint. the embedded keyset must itself fingerprint to fp:
// without that binding, any key holder could claim any fingerprint by
// self-signing under their own keyset.
func verifyIdentitySignature(e *RegistrationEntry, fp string, backend signsvc.Backend) bool {
	if e.IdentitySignature == "" || e.IdentityPublicKey == "" {
		return false
	}
	if e.IdentityFingerprint != fp {
		return false
	}
	msg, err := e.IdentitySignedBytes()
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(e.IdentitySignature)
	if err != nil {
		return false
	}
	pub, err := hex.DecodeString(e.IdentityPublicKey)
	if err != nil {
		return false
	}
	if cryptoffi.Fingerprint(pub) != fp {
		return false
	}
	return backend.Verify(msg, sig, pub)
}

package signsvc

import (
	"errors"

	"github.com/mit-pdos/regledger/cryptoffi"
)

var errNoBackend = errors.New("no signing backend configured")

// VerifyDetached checks a detached signature against an exported
// public keyset. verification is offline: it needs no key holder.
func VerifyDetached(data, sig, pubKeyset []byte) bool {
	pk, err := cryptoffi.ImportPublicKeyset(pubKeyset)
	if err != nil {
		return false
	}
	return pk.Verify(data, sig)
}

// Offline is a verify-only Backend for flows with no signing identity
// configured. verification still works from embedded key material;
// any sign attempt errors.
type Offline struct{}

var _ Backend = Offline{}

func (Offline) Sign(data []byte) ([]byte, error) {
	return nil, &BackendError{Op: "sign", Err: errNoBackend}
}

func (Offline) Verify(data, sig, pubKeyset []byte) bool {
	return VerifyDetached(data, sig, pubKeyset)
}

func (Offline) ExportPublicKey() ([]byte, error) {
	return nil, &BackendError{Op: "export", Err: errNoBackend}
}

func (Offline) Fingerprint() string {
	return ""
}

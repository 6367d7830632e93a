package signsvc

import (
	"fmt"
	"os"

	"github.com/mit-pdos/regledger/cryptoffi"
	"github.com/tink-crypto/tink-go/v2/insecurecleartextkeyset"
	"github.com/tink-crypto/tink-go/v2/keyset"
	"github.com/tink-crypto/tink-go/v2/signature"
)

// Local is an in-process signing backend.
type Local struct {
	sk  *cryptoffi.SigPrivateKey
	pub []byte
	fp  string
}

var _ Backend = (*Local)(nil)

// NewLocal makes an ephemeral identity, e.g. a per-ledger chain key.
func NewLocal() (*Local, error) {
	sk, err := cryptoffi.SigGenerateKey()
	if err != nil {
		return nil, err
	}
	return newLocal(sk)
}

// LoadLocal reads a long-lived identity from a cleartext keyset file.
// protecting that file is the operator's problem, not this package's.
func LoadLocal(path string) (*Local, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("signsvc: open keyset: %w", err)
	}
	defer f.Close()
	h, err := insecurecleartextkeyset.Read(keyset.NewBinaryReader(f))
	if err != nil {
		return nil, fmt.Errorf("signsvc: read keyset: %w", err)
	}
	sk, err := cryptoffi.SigFromHandle(h)
	if err != nil {
		return nil, err
	}
	return newLocal(sk)
}

// WriteKeyset generates a fresh identity keyset at path.
func WriteKeyset(path string) error {
	h, err := keyset.NewHandle(signature.ED25519KeyTemplate())
	if err != nil {
		return fmt.Errorf("signsvc: generate keyset: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("signsvc: create keyset file: %w", err)
	}
	defer f.Close()
	if err := insecurecleartextkeyset.Write(h, keyset.NewBinaryWriter(f)); err != nil {
		return fmt.Errorf("signsvc: write keyset: %w", err)
	}
	return nil
}

func newLocal(sk *cryptoffi.SigPrivateKey) (*Local, error) {
	pub, err := sk.ExportPublicKeyset()
	if err != nil {
		return nil, err
	}
	return &Local{sk: sk, pub: pub, fp: cryptoffi.Fingerprint(pub)}, nil
}

func (l *Local) Sign(data []byte) ([]byte, error) {
	sig, err := l.sk.Sign(data)
	if err != nil {
		return nil, &BackendError{Op: "sign", Err: err}
	}
	return sig, nil
}

func (l *Local) Verify(data, sig, pubKeyset []byte) bool {
	return VerifyDetached(data, sig, pubKeyset)
}

func (l *Local) ExportPublicKey() ([]byte, error) {
	pub := make([]byte, len(l.pub))
	copy(pub, l.pub)
	return pub, nil
}

func (l *Local) Fingerprint() string {
	return l.fp
}

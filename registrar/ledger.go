package registrar

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/mit-pdos/regledger/canonical"
	"github.com/mit-pdos/regledger/cryptoffi"
	"github.com/mit-pdos/regledger/hashchain"
	"github.com/mit-pdos/regledger/signsvc"
	"github.com/rs/zerolog"
)

// entryStore is what the ledger needs from persistence.
type entryStore interface {
	LoadEntries() ([]*RegistrationEntry, error)
	AppendEntry(*RegistrationEntry) error
	ReplaceEntry(*RegistrationEntry) error
}

// Ledger owns the chain: it signs, links, and persists entries.
// the chain key is ephemeral, generated per ledger instance, and used
// for nothing but chain signatures.
type Ledger struct {
	mu       sync.Mutex
	store    entryStore
	chainKey *cryptoffi.SigPrivateKey
	chainPub string
	chain    *hashchain.Chain
	log      zerolog.Logger
}

// OpenLedger generates a fresh chain key and picks up the tip from the
// persisted chain.
func OpenLedger(store entryStore, log zerolog.Logger) (*Ledger, error) {
	sk, err := cryptoffi.SigGenerateKey()
	if err != nil {
		return nil, err
	}
	pub, err := sk.ExportPublicKeyset()
	if err != nil {
		return nil, err
	}

	chain := hashchain.New()
	entries, err := store.LoadEntries()
	if err != nil {
		return nil, err
	}
	if n := len(entries); n > 0 {
		last := entries[n-1]
		if last.ChainHash == "" {
			return nil, fmt.Errorf("registrar: corrupt ledger: entry %d has no chain hash", n-1)
		}
		chain = hashchain.Resume(last.ChainHash)
	}

	log.Debug().Str("tip", chain.Tip()).Int("entries", len(entries)).Msg("ledger opened")
	return &Ledger{
		store:    store,
		chainKey: sk,
		chainPub: hex.EncodeToString(pub),
		chain:    chain,
		log:      log,
	}, nil
}

// Append chains one attestation: draft, chain-sign, hash, persist.
// appends are serialized so two callers can never both extend the same
// tip. nothing becomes visible unless the persist succeeds, and a
// failed persist leaves the tip where it was.
func (l *Ledger) Append(payload canonical.Record, proofName string) (*RegistrationEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := &RegistrationEntry{
		ProofName:     proofName,
		Payload:       payload,
		Timestamp:     time.Now().Unix(),
		PrevChainHash: l.chain.Tip(),
	}

	msg, err := e.ChainSignedBytes()
	if err != nil {
		return nil, err
	}
	sig, err := l.chainKey.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("registrar: chain sign: %w", err)
	}
	e.ChainSignature = hex.EncodeToString(sig)
	e.ChainPublicKey = l.chainPub

	in, err := e.chainHashInput()
	if err != nil {
		return nil, err
	}
	e.ChainHash = hashchain.NextLink(e.PrevChainHash, in)

	if err := l.store.AppendEntry(e); err != nil {
		return nil, fmt.Errorf("registrar: persist entry: %w", err)
	}
	l.chain.Extend(in)

	l.log.Info().Str("proof", proofName).Str("hash", short(e.ChainHash)).Msg("entry registered")
	return e, nil
}

// AttachIdentitySignature adds the detached external-identity
// signature to an already-chained entry and replaces the stored copy.
// the identity fields sit outside the chain hash input, so the chain
// does not move.
func (l *Ledger) AttachIdentitySignature(e *RegistrationEntry, backend signsvc.Backend) (*RegistrationEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := e.Clone()
	c.IdentityFingerprint = backend.Fingerprint()
	pub, err := backend.ExportPublicKey()
	if err != nil {
		return nil, err
	}
	msg, err := c.IdentitySignedBytes()
	if err != nil {
		return nil, err
	}
	sig, err := backend.Sign(msg)
	if err != nil {
		return nil, err
	}
	c.IdentitySignature = hex.EncodeToString(sig)
	c.IdentityPublicKey = hex.EncodeToString(pub)

	if err := l.store.ReplaceEntry(c); err != nil {
		return nil, err
	}
	l.log.Info().Str("hash", short(c.ChainHash)).Str("fp", short(c.IdentityFingerprint)).
		Msg("identity signature attached")
	return c, nil
}

// Load returns the persisted chain in append order. append order is
// the only ordering guarantee; timestamps are advisory.
func (l *Ledger) Load() ([]*RegistrationEntry, error) {
	return l.store.LoadEntries()
}

// VerifyChain replays the persisted chain and re-derives every link.
func (l *Ledger) VerifyChain() error {
	entries, err := l.store.LoadEntries()
	if err != nil {
		return err
	}
	return VerifyEntries(entries)
}

// VerifyEntries checks a loaded chain: each entry's prev pointer must
// equal its predecessor's link, and each link must recompute from the
// entry's own fields. the first mismatch invalidates everything after
// it.
func VerifyEntries(entries []*RegistrationEntry) error {
	chain := hashchain.New()
	for i, e := range entries {
		if e.PrevChainHash != chain.Tip() {
			return &ChainBreakError{Index: i, Reason: "prev link mismatch", Computed: chain.Tip(), Stored: e.PrevChainHash}
		}
		in, err := e.chainHashInput()
		if err != nil {
			return fmt.Errorf("registrar: entry %d: %w", i, err)
		}
		if computed := chain.Extend(in); computed != e.ChainHash {
			return &ChainBreakError{Index: i, Reason: "hash mismatch", Computed: computed, Stored: e.ChainHash}
		}
	}
	return nil
}

func short(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:16]
}

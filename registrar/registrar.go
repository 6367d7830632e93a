package registrar

import (
	"github.com/mit-pdos/regledger/canonical"
	"github.com/mit-pdos/regledger/signsvc"
	"github.com/rs/zerolog"
)

// Registrar ties the ledger, the verifier, and the stores into the
// public registration surface. one long-lived instance is constructed
// at startup and passed through the call graph; there is no process
// global.
type Registrar struct {
	store    *Store
	ledger   *Ledger
	verifier *IdentityVerifier
	log      zerolog.Logger
}

// NewRegistrar wires a registrar over one data directory and one
// external signing backend.
func NewRegistrar(dir string, backend signsvc.Backend, log zerolog.Logger) (*Registrar, error) {
	store, err := NewStore(dir, log)
	if err != nil {
		return nil, err
	}
	ledger, err := OpenLedger(store, log)
	if err != nil {
		return nil, err
	}
	verifier, err := NewIdentityVerifier(store, backend, log)
	if err != nil {
		return nil, err
	}
	return &Registrar{store: store, ledger: ledger, verifier: verifier, log: log}, nil
}

func (r *Registrar) Ledger() *Ledger             { return r.ledger }
func (r *Registrar) Verifier() *IdentityVerifier { return r.verifier }
func (r *Registrar) Store() *Store               { return r.store }

// VerifyIdentity reports whether fp is a cryptographically verified
// member.
func (r *Registrar) VerifyIdentity(fp string) bool {
	return r.verifier.Verify(fp)
}

// RegisterMember persists a registration record for fp. the record's
// identity signature must verify first; an unsigned or forged record
// never lands on disk.
func (r *Registrar) RegisterMember(e *RegistrationEntry, fp string) error {
	if !verifyIdentitySignature(e, fp, r.verifier.backend) {
		return ErrInvalidSignature
	}
	if err := r.store.PutRegistration(fp, e); err != nil {
		return err
	}
	// the new record supersedes whatever was memoized for fp.
	r.verifier.Invalidate(fp)
	r.log.Info().Str("fp", short(fp)).Str("proof", e.ProofName).Msg("member registered")
	return nil
}

// Member is one row of a membership listing.
type Member struct {
	ProofName   string
	Fingerprint string
	Timestamp   int64
	Verified    bool
}

// ListMembers scans the registration records and re-verifies each one.
// records that fail stay in the listing, flagged unverified.
func (r *Registrar) ListMembers() ([]Member, error) {
	entries, err := r.store.ListRegistrations()
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, len(entries))
	for _, e := range entries {
		ok := verifyIdentitySignature(e, e.IdentityFingerprint, r.verifier.backend)
		if !ok {
			r.log.Warn().Str("proof", e.ProofName).Msg("member has invalid signature")
		}
		members = append(members, Member{
			ProofName:   e.ProofName,
			Fingerprint: e.IdentityFingerprint,
			Timestamp:   e.Timestamp,
			Verified:    ok,
		})
	}
	return members, nil
}

// SubmitProposal persists a proposal for fp's holder. the write is
// gated: an unverified fingerprint gets ErrPermissionDenied and
// nothing is stored.
func (r *Registrar) SubmitProposal(content canonical.Record, fp string) (*Proposal, error) {
	var p *Proposal
	op := Gate(r.verifier, fp, func() error {
		prop, err := NewProposal(content, fp)
		if err != nil {
			return err
		}
		if err := r.store.PutProposal(prop); err != nil {
			return err
		}
		p = prop
		return nil
	})
	if err := op(); err != nil {
		return nil, err
	}
	r.log.Info().Str("proposal", p.ProposalID).Str("fp", short(fp)).Msg("proposal submitted")
	return p, nil
}

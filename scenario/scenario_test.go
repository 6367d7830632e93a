// Package scenario runs the full registration flow the way a deployed
// system does: a signing daemon holding the long-lived identity, a
// registrar over a data directory, and an auditor replaying the chain.
package scenario

import (
	"path/filepath"
	"testing"

	"github.com/mit-pdos/regledger/canonical"
	"github.com/mit-pdos/regledger/registrar"
	"github.com/mit-pdos/regledger/signsvc"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRegistrationFlow(t *testing.T) {
	dir := t.TempDir()

	// the operator generates an identity and starts the signing daemon.
	keysetPath := filepath.Join(dir, "id.keyset")
	require.NoError(t, signsvc.WriteKeyset(keysetPath))
	daemon, err := signsvc.LoadLocal(keysetPath)
	require.NoError(t, err)
	addr, err := signsvc.NewServer(daemon, zerolog.Nop()).Serve("127.0.0.1:0")
	require.NoError(t, err)

	remote, err := signsvc.DialRemote(addr, signsvc.DefaultTimeout)
	require.NoError(t, err)
	defer remote.Close()
	require.Equal(t, daemon.Fingerprint(), remote.Fingerprint())

	// the registrar appends attestations and attaches the daemon's
	// identity signature over the wire.
	dataDir := filepath.Join(dir, "public_reg")
	reg, err := registrar.NewRegistrar(dataDir, remote, zerolog.Nop())
	require.NoError(t, err)

	e1, err := reg.Ledger().Append(canonical.Record{"claim": "residency", "year": 2026}, "alice")
	require.NoError(t, err)
	signed, err := reg.Ledger().AttachIdentitySignature(e1, remote)
	require.NoError(t, err)
	_, err = reg.Ledger().Append(canonical.Record{"claim": "membership"}, "bob")
	require.NoError(t, err)

	fp := remote.Fingerprint()
	require.NoError(t, reg.RegisterMember(signed, fp))
	require.True(t, reg.VerifyIdentity(fp))

	// gated writes: the member may submit, a stranger may not.
	p, err := reg.SubmitProposal(canonical.Record{"title": "add quorum rule"}, fp)
	require.NoError(t, err)
	require.NotEmpty(t, p.ProposalID)
	_, err = reg.SubmitProposal(canonical.Record{"title": "drive-by"}, "AB12")
	require.ErrorIs(t, err, registrar.ErrPermissionDenied)

	require.NoError(t, reg.Ledger().VerifyChain())

	// a later process over the same directory, with no signing backend
	// at all, still audits the chain and the membership.
	audit, err := registrar.NewRegistrar(dataDir, signsvc.Offline{}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, audit.Ledger().VerifyChain())
	entries, err := audit.Ledger().Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, audit.VerifyIdentity(fp))

	members, err := audit.ListMembers()
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.True(t, members[0].Verified)
	require.Equal(t, "alice", members[0].ProofName)
}

package registrar

import (
	"testing"

	"github.com/mit-pdos/regledger/canonical"
	"github.com/mit-pdos/regledger/signsvc"
	"github.com/stretchr/testify/require"
)

func TestGate(t *testing.T) {
	local, err := signsvc.NewLocal()
	require.NoError(t, err)
	r := testRegistrar(t, local)
	fp := registerOne(t, r, local)

	ran := 0
	op := func() error { ran++; return nil }

	// denial: op never runs.
	err = Gate(r.Verifier(), "AB12", op)()
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.Zero(t, ran)

	// verified: op runs each call.
	gated := Gate(r.Verifier(), fp, op)
	require.NoError(t, gated())
	require.NoError(t, gated())
	require.Equal(t, 2, ran)
}

func TestSubmitProposal(t *testing.T) {
	local, err := signsvc.NewLocal()
	require.NoError(t, err)
	r := testRegistrar(t, local)
	content := canonical.Record{"title": "rotate keys", "quorum": 3}

	// rejected submissions leave no record behind.
	_, err = r.SubmitProposal(content, "AB12")
	require.ErrorIs(t, err, ErrPermissionDenied)
	props, err := r.Store().ListProposals()
	require.NoError(t, err)
	require.Empty(t, props)

	fp := registerOne(t, r, local)
	p, err := r.SubmitProposal(content, fp)
	require.NoError(t, err)
	require.Len(t, p.ProposalID, proposalIDLen)
	require.Equal(t, fp, p.SubmittedBy)

	props, err = r.Store().ListProposals()
	require.NoError(t, err)
	require.Len(t, props, 1)
	require.Equal(t, p.ProposalID, props[0].ProposalID)

	// the id is content-addressed: same content, same id.
	p2, err := NewProposal(content, fp)
	require.NoError(t, err)
	require.Equal(t, p.ProposalID, p2.ProposalID)
	p3, err := NewProposal(canonical.Record{"title": "other"}, fp)
	require.NoError(t, err)
	require.NotEqual(t, p.ProposalID, p3.ProposalID)
}

package registrar

import (
	"encoding/hex"
	"time"

	"github.com/mit-pdos/regledger/canonical"
	"github.com/mit-pdos/regledger/cryptoffi"
)

// proposalIDLen truncates the content hash to a short stable id.
const proposalIDLen = 16

// Proposal is a gated governance record. it is keyed by a truncated
// content hash of its own canonical bytes and never joins the chain.
type Proposal struct {
	ProposalID  string           `json:"proposal_id"`
	SubmittedBy string           `json:"submitted_by"`
	Timestamp   int64            `json:"timestamp"`
	Proposal    canonical.Record `json:"proposal"`
}

// NewProposal derives the content-addressed id for content submitted
// by the holder of fp.
func NewProposal(content canonical.Record, fp string) (*Proposal, error) {
	canon, err := canonical.Encode(content)
	if err != nil {
		return nil, err
	}
	id := hex.EncodeToString(cryptoffi.Hash(canon))[:proposalIDLen]
	return &Proposal{
		ProposalID:  id,
		SubmittedBy: fp,
		Timestamp:   time.Now().Unix(),
		Proposal:    content,
	}, nil
}

// Package hashchain computes the links binding registration entries to
// their predecessors.
package hashchain

import (
	"encoding/hex"

	"github.com/mit-pdos/regledger/cryptoffi"
)

// Genesis stands in for "no predecessor" at the first entry. the
// non-hex prefix keeps it outside the image of the digest.
const Genesis = "genesis_public_0000000000000000000000000000000000000000000000000000000000000000"

// NextLink chains prev into the canonical bytes of the next entry.
// it is total: any prev string and byte content yield a link.
func NextLink(prev string, canonical []byte) string {
	hr := cryptoffi.NewHasher()
	hr.Write([]byte(prev))
	hr.Write(canonical)
	return hex.EncodeToString(hr.Sum(nil))
}

// Chain tracks the tip of a growing chain.
type Chain struct {
	lastLink string
}

func New() *Chain {
	return &Chain{lastLink: Genesis}
}

// Resume reopens a chain at a known tip, e.g. the last persisted link.
func Resume(tip string) *Chain {
	return &Chain{lastLink: tip}
}

// Extend adds the canonical bytes of one entry and returns the new tip.
func (c *Chain) Extend(canonical []byte) string {
	c.lastLink = NextLink(c.lastLink, canonical)
	return c.lastLink
}

func (c *Chain) Tip() string {
	return c.lastLink
}

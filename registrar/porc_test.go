package registrar

import (
	"sync"
	"testing"
	"time"

	"github.com/anishathalye/porcupine"
	"github.com/mit-pdos/regledger/canonical"
	"github.com/mit-pdos/regledger/hashchain"
	"github.com/stretchr/testify/require"
)

type appendOut struct {
	prev, hash string
}

// appendModel treats the ledger as a register holding the tip: an
// append is legal only if it extended the tip the model holds.
var appendModel = porcupine.Model{
	Init: func() interface{} { return hashchain.Genesis },
	Step: func(state, input, output interface{}) (bool, interface{}) {
		out := output.(appendOut)
		if out.prev != state.(string) {
			return false, state
		}
		return true, out.hash
	},
	Equal: func(a, b interface{}) bool { return a == b },
}

func TestAppendLinearizable(t *testing.T) {
	l, _ := testLedger(t)

	const clients = 4
	const perClient = 8
	ops := make([][]porcupine.Operation, clients)
	var wg sync.WaitGroup
	for c := 0; c < clients; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			for i := 0; i < perClient; i++ {
				call := time.Now().UnixNano()
				e, err := l.Append(canonical.Record{"client": c, "seq": i}, "proof")
				ret := time.Now().UnixNano()
				if err != nil {
					t.Error(err)
					return
				}
				ops[c] = append(ops[c], porcupine.Operation{
					ClientId: c,
					Call:     call,
					Output:   appendOut{prev: e.PrevChainHash, hash: e.ChainHash},
					Return:   ret,
				})
			}
		}(c)
	}
	wg.Wait()

	var history []porcupine.Operation
	for _, clientOps := range ops {
		history = append(history, clientOps...)
	}
	require.True(t, porcupine.CheckOperations(appendModel, history))

	// the persisted chain holds every append, in a verifiable order.
	require.NoError(t, l.VerifyChain())
	entries, err := l.Load()
	require.NoError(t, err)
	require.Len(t, entries, clients*perClient)
}

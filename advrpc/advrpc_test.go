package advrpc

import (
	"testing"
	"time"

	"github.com/mit-pdos/regledger/safemarshal"
	"github.com/rs/zerolog"
	"github.com/tchajed/marshal"
)

const mulRpc uint64 = 2

func mulStub(req []byte) []byte {
	a, req, err := safemarshal.ReadInt(req)
	if err {
		return nil
	}
	b, _, err := safemarshal.ReadInt(req)
	if err {
		return nil
	}
	return marshal.WriteInt(nil, a*b)
}

func serveMul(t *testing.T) string {
	s := NewServer(zerolog.Nop(), map[uint64]func([]byte) []byte{
		mulRpc: mulStub,
	})
	addr, err := s.Serve("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	return addr
}

func TestRPC(t *testing.T) {
	addr := serveMul(t)
	c, err := Dial(addr, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	args := marshal.WriteInt(nil, 7)
	args = marshal.WriteInt(args, 8)
	replyB, err := c.Call(mulRpc, args)
	if err != nil {
		t.Fatal(err)
	}
	reply, _, bad := safemarshal.ReadInt(replyB)
	if bad {
		t.Fatal()
	}
	if reply != 7*8 {
		t.Fatal(reply)
	}
}

func TestRPCSequential(t *testing.T) {
	// replies stay matched to requests across many calls on one conn.
	addr := serveMul(t)
	c, err := Dial(addr, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for i := uint64(1); i < 20; i++ {
		args := marshal.WriteInt(nil, i)
		args = marshal.WriteInt(args, i)
		replyB, err := c.Call(mulRpc, args)
		if err != nil {
			t.Fatal(err)
		}
		reply, _, bad := safemarshal.ReadInt(replyB)
		if bad || reply != i*i {
			t.Fatal(i)
		}
	}
}

func TestUnknownRpcTimesOut(t *testing.T) {
	// the server drops unknown ids, so the caller's deadline fires.
	addr := serveMul(t)
	c, err := Dial(addr, 100*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Call(99, nil); err == nil {
		t.Fatal()
	}

	// a timed-out client reconnects and works again.
	args := marshal.WriteInt(nil, 3)
	args = marshal.WriteInt(args, 4)
	replyB, err := c.Call(mulRpc, args)
	if err != nil {
		t.Fatal(err)
	}
	reply, _, bad := safemarshal.ReadInt(replyB)
	if bad || reply != 12 {
		t.Fatal()
	}
}

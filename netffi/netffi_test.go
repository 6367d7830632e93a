package netffi

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/tchajed/marshal"
)

func TestNet(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	c0, err := Dial(l.Addr())
	if err != nil {
		t.Fatal(err)
	}
	d0 := []byte{1, 2}
	if err := c0.Send(d0); err != nil {
		t.Fatal(err)
	}

	c1, err := l.Accept()
	if err != nil {
		t.Fatal(err)
	}
	d1, err := c1.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(d0, d1) {
		t.Fatal()
	}

	// empty frames survive the round trip.
	if err := c1.Send(nil); err != nil {
		t.Fatal(err)
	}
	d2, err := c0.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if len(d2) != 0 {
		t.Fatal()
	}
}

func TestDeadline(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	c, err := Dial(l.Addr())
	if err != nil {
		t.Fatal(err)
	}
	// nothing will ever arrive; the deadline turns the wait into an err.
	c.SetDeadline(time.Now().Add(50 * time.Millisecond))
	if _, err := c.Receive(); err == nil {
		t.Fatal()
	}
}

func TestOversizedFrame(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	// a raw peer claims an absurd frame length. the receiver must
	// refuse before allocating, not OOM.
	raw, err := net.Dial("tcp", l.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Close()
	header := marshal.WriteInt(nil, 1<<60)
	if _, err := raw.Write(header); err != nil {
		t.Fatal(err)
	}

	c, err := l.Accept()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Receive(); err == nil {
		t.Fatal()
	}
}

func TestDialBad(t *testing.T) {
	if _, err := Dial("127.0.0.1:1"); err == nil {
		t.Fatal()
	}
}

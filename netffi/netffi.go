// Package netffi provides the framed TCP transport under the signing
// service rpc layer. framing is length-prefixed: len(data) ++ data.
package netffi

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/tchajed/marshal"
)

// maxFrameLen bounds what a peer can make us allocate. frames carry
// rpc-sized payloads (signatures, keysets, canonical records), so 16
// MiB is far above any legitimate message.
const maxFrameLen = 16 << 20

// Conn is safe for concurrent Sends and concurrent Receives, but a
// request/reply exchange needs external serialization.
type Conn struct {
	c      net.Conn
	sendMu sync.Mutex
	recvMu sync.Mutex
}

func newConn(c net.Conn) *Conn {
	return &Conn{c: c}
}

func Dial(addr string) (*Conn, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("netffi: dial %s: %w", addr, err)
	}
	return newConn(c), nil
}

// SetDeadline bounds all pending and future Sends and Receives.
// the zero time removes the bound.
func (c *Conn) SetDeadline(t time.Time) {
	c.c.SetDeadline(t)
}

func (c *Conn) Send(data []byte) error {
	e := marshal.NewEnc(8 + uint64(len(data)))
	e.PutInt(uint64(len(data)))
	e.PutBytes(data)
	msg := e.Finish()

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if _, err := c.c.Write(msg); err != nil {
		// prevent sending on this conn again.
		c.c.Close()
		return fmt.Errorf("netffi: send: %w", err)
	}
	return nil
}

func (c *Conn) Receive() ([]byte, error) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	header := make([]byte, 8)
	if _, err := io.ReadFull(c.c, header); err != nil {
		// the other side hung up, or the deadline passed. either way we
		// lost track of where in the framing we are, so close.
		c.c.Close()
		return nil, fmt.Errorf("netffi: receive header: %w", err)
	}
	d := marshal.NewDec(header)
	dataLen := d.GetInt()
	if dataLen > maxFrameLen {
		c.c.Close()
		return nil, fmt.Errorf("netffi: frame length %d exceeds limit", dataLen)
	}

	data := make([]byte, dataLen)
	if _, err := io.ReadFull(c.c, data); err != nil {
		c.c.Close()
		return nil, fmt.Errorf("netffi: receive body: %w", err)
	}
	return data, nil
}

func (c *Conn) Close() error {
	return c.c.Close()
}

// # Listener

type Listener struct {
	l net.Listener
}

func Listen(addr string) (*Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("netffi: listen %s: %w", addr, err)
	}
	return &Listener{l: l}, nil
}

// Addr reports the bound address, useful with ":0" listens.
func (l *Listener) Addr() string {
	return l.l.Addr().String()
}

func (l *Listener) Accept() (*Conn, error) {
	c, err := l.l.Accept()
	if err != nil {
		return nil, fmt.Errorf("netffi: accept: %w", err)
	}
	return newConn(c), nil
}

func (l *Listener) Close() error {
	return l.l.Close()
}

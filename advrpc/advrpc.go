// Package advrpc is a minimal rpc layer over netffi: an rpc id plus an
// opaque request, answered by an opaque reply. peers are untrusted, so
// handlers and clients treat every received byte as adversarial.
package advrpc

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mit-pdos/regledger/netffi"
	"github.com/mit-pdos/regledger/safemarshal"
	"github.com/rs/zerolog"
	"github.com/tchajed/marshal"
)

var ErrTimeout = errors.New("advrpc: call timed out")

// # Server

type Server struct {
	handlers map[uint64]func([]byte) []byte
	log      zerolog.Logger
}

func NewServer(log zerolog.Logger, handlers map[uint64]func([]byte) []byte) *Server {
	return &Server{handlers: handlers, log: log}
}

// Serve binds addr and answers rpcs in the background. it returns the
// bound address so callers can listen on ":0".
func (s *Server) Serve(addr string) (string, error) {
	l, err := netffi.Listen(addr)
	if err != nil {
		return "", err
	}
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go s.read(conn)
		}
	}()
	return l.Addr(), nil
}

// read answers requests on one conn in arrival order, which keeps
// replies matched to requests without correlation ids.
func (s *Server) read(conn *netffi.Conn) {
	for {
		req, err := conn.Receive()
		if err != nil {
			// connection done. quit thread.
			return
		}
		rpcId, data, bad := safemarshal.ReadInt(req)
		if bad {
			// peer didn't even give an rpc id.
			continue
		}
		f, ok := s.handlers[rpcId]
		if !ok {
			s.log.Warn().Uint64("rpc", rpcId).Msg("unknown rpc id")
			continue
		}
		if err := conn.Send(f(data)); err != nil {
			// client will time out and retry.
			return
		}
	}
}

// # Client

// Client serializes calls internally, so one client may be shared.
type Client struct {
	mu      sync.Mutex
	addr    string
	conn    *netffi.Conn
	timeout time.Duration
}

// Dial connects to an rpc server. every call on the returned client is
// bounded by timeout; a timed-out call fails, it never hangs.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := netffi.Dial(addr)
	if err != nil {
		return nil, err
	}
	return &Client{addr: addr, conn: conn, timeout: timeout}, nil
}

// Call does an rpc.
func (c *Client) Call(rpcId uint64, args []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		// reconnect after a previous failure.
		conn, err := netffi.Dial(c.addr)
		if err != nil {
			return nil, err
		}
		c.conn = conn
	}

	req := marshal.WriteInt(make([]byte, 0, 8+len(args)), rpcId)
	req = marshal.WriteBytes(req, args)

	c.conn.SetDeadline(time.Now().Add(c.timeout))
	defer c.conn.SetDeadline(time.Time{})
	if err := c.conn.Send(req); err != nil {
		c.conn = nil
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	reply, err := c.conn.Receive()
	if err != nil {
		c.conn = nil
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return reply, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

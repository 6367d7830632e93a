package signsvc

import (
	"errors"
	"time"

	"github.com/mit-pdos/regledger/advrpc"
)

// DefaultTimeout bounds every call to a remote backend. a slow backend
// reads as a signing or verification failure, never as a hang.
const DefaultTimeout = 5 * time.Second

// Remote is a Backend on the other side of an advrpc connection.
type Remote struct {
	cli *advrpc.Client
	pub []byte
	fp  string
}

var _ Backend = (*Remote)(nil)

// DialRemote connects to a signing daemon and fetches its public
// keyset up front, so Fingerprint never needs the network afterwards.
func DialRemote(addr string, timeout time.Duration) (*Remote, error) {
	cli, err := advrpc.Dial(addr, timeout)
	if err != nil {
		return nil, &BackendError{Op: "dial", Err: err}
	}
	replyB, err := cli.Call(ExportRpc, nil)
	if err != nil {
		return nil, &BackendError{Op: "export", Err: err}
	}
	reply, _, bad := ExportReplyDecode(replyB)
	if bad || reply.Err {
		return nil, &BackendError{Op: "export", Err: errors.New("bad export reply")}
	}
	return &Remote{cli: cli, pub: reply.Pub, fp: reply.Fp}, nil
}

func (r *Remote) Sign(data []byte) ([]byte, error) {
	replyB, err := r.cli.Call(SignRpc, SignArgEncode(nil, &SignArg{Data: data}))
	if err != nil {
		return nil, &BackendError{Op: "sign", Err: err}
	}
	reply, _, bad := SignReplyDecode(replyB)
	if bad || reply.Err {
		return nil, &BackendError{Op: "sign", Err: errors.New("bad sign reply")}
	}
	return reply.Sig, nil
}

func (r *Remote) Verify(data, sig, pubKeyset []byte) bool {
	arg := &VerifyArg{Data: data, Sig: sig, Pub: pubKeyset}
	replyB, err := r.cli.Call(VerifyRpc, VerifyArgEncode(nil, arg))
	if err != nil {
		// timeouts and transport faults are verification failures.
		return false
	}
	reply, _, bad := VerifyReplyDecode(replyB)
	if bad {
		return false
	}
	return reply.Ok
}

func (r *Remote) ExportPublicKey() ([]byte, error) {
	pub := make([]byte, len(r.pub))
	copy(pub, r.pub)
	return pub, nil
}

func (r *Remote) Fingerprint() string {
	return r.fp
}

func (r *Remote) Close() error {
	return r.cli.Close()
}

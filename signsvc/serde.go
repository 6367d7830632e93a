package signsvc

import (
	"github.com/mit-pdos/regledger/safemarshal"
)

// rpc ids.
const (
	SignRpc   uint64 = 1
	VerifyRpc uint64 = 2
	ExportRpc uint64 = 3
)

type SignArg struct {
	Data []byte
}

type SignReply struct {
	Err bool
	Sig []byte
}

type VerifyArg struct {
	Data []byte
	Sig  []byte
	Pub  []byte
}

type VerifyReply struct {
	Ok bool
}

type ExportReply struct {
	Err bool
	Pub []byte
	Fp  string
}

func SignArgEncode(b []byte, o *SignArg) []byte {
	return safemarshal.WriteSlice1D(b, o.Data)
}

func SignArgDecode(b []byte) (*SignArg, []byte, bool) {
	data, b, err := safemarshal.ReadSlice1D(b)
	if err {
		return nil, nil, true
	}
	return &SignArg{Data: data}, b, false
}

func SignReplyEncode(b []byte, o *SignReply) []byte {
	b = safemarshal.WriteBool(b, o.Err)
	return safemarshal.WriteSlice1D(b, o.Sig)
}

func SignReplyDecode(b []byte) (*SignReply, []byte, bool) {
	errFlag, b, err := safemarshal.ReadBool(b)
	if err {
		return nil, nil, true
	}
	sig, b, err := safemarshal.ReadSlice1D(b)
	if err {
		return nil, nil, true
	}
	return &SignReply{Err: errFlag, Sig: sig}, b, false
}

func VerifyArgEncode(b []byte, o *VerifyArg) []byte {
	b = safemarshal.WriteSlice1D(b, o.Data)
	b = safemarshal.WriteSlice1D(b, o.Sig)
	return safemarshal.WriteSlice1D(b, o.Pub)
}

func VerifyArgDecode(b []byte) (*VerifyArg, []byte, bool) {
	data, b, err := safemarshal.ReadSlice1D(b)
	if err {
		return nil, nil, true
	}
	sig, b, err := safemarshal.ReadSlice1D(b)
	if err {
		return nil, nil, true
	}
	pub, b, err := safemarshal.ReadSlice1D(b)
	if err {
		return nil, nil, true
	}
	return &VerifyArg{Data: data, Sig: sig, Pub: pub}, b, false
}

func VerifyReplyEncode(b []byte, o *VerifyReply) []byte {
	return safemarshal.WriteBool(b, o.Ok)
}

func VerifyReplyDecode(b []byte) (*VerifyReply, []byte, bool) {
	ok, b, err := safemarshal.ReadBool(b)
	if err {
		return nil, nil, true
	}
	return &VerifyReply{Ok: ok}, b, false
}

func ExportReplyEncode(b []byte, o *ExportReply) []byte {
	b = safemarshal.WriteBool(b, o.Err)
	b = safemarshal.WriteSlice1D(b, o.Pub)
	return safemarshal.WriteString(b, o.Fp)
}

func ExportReplyDecode(b []byte) (*ExportReply, []byte, bool) {
	errFlag, b, err := safemarshal.ReadBool(b)
	if err {
		return nil, nil, true
	}
	pub, b, err := safemarshal.ReadSlice1D(b)
	if err {
		return nil, nil, true
	}
	fp, b, err := safemarshal.ReadString(b)
	if err {
		return nil, nil, true
	}
	return &ExportReply{Err: errFlag, Pub: pub, Fp: fp}, b, false
}

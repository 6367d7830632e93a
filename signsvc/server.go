package signsvc

import (
	"github.com/mit-pdos/regledger/advrpc"
	"github.com/rs/zerolog"
)

// Server exposes a Local backend over advrpc.
type Server struct {
	backend *Local
	log     zerolog.Logger
}

func NewServer(backend *Local, log zerolog.Logger) *Server {
	return &Server{backend: backend, log: log}
}

// Serve answers rpcs in the background and returns the bound address.
func (s *Server) Serve(addr string) (string, error) {
	rpc := advrpc.NewServer(s.log, map[uint64]func([]byte) []byte{
		SignRpc:   s.handleSign,
		VerifyRpc: s.handleVerify,
		ExportRpc: s.handleExport,
	})
	bound, err := rpc.Serve(addr)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("addr", bound).Str("fp", s.backend.Fingerprint()).
		Msg("signing backend listening")
	return bound, nil
}

func (s *Server) handleSign(req []byte) []byte {
	arg, _, bad := SignArgDecode(req)
	if bad {
		return SignReplyEncode(nil, &SignReply{Err: true})
	}
	sig, err := s.backend.Sign(arg.Data)
	if err != nil {
		s.log.Error().Err(err).Msg("sign failed")
		return SignReplyEncode(nil, &SignReply{Err: true})
	}
	return SignReplyEncode(nil, &SignReply{Sig: sig})
}

func (s *Server) handleVerify(req []byte) []byte {
	arg, _, bad := VerifyArgDecode(req)
	if bad {
		return VerifyReplyEncode(nil, &VerifyReply{Ok: false})
	}
	ok := s.backend.Verify(arg.Data, arg.Sig, arg.Pub)
	return VerifyReplyEncode(nil, &VerifyReply{Ok: ok})
}

func (s *Server) handleExport(req []byte) []byte {
	pub, err := s.backend.ExportPublicKey()
	if err != nil {
		return ExportReplyEncode(nil, &ExportReply{Err: true})
	}
	return ExportReplyEncode(nil, &ExportReply{Pub: pub, Fp: s.backend.Fingerprint()})
}

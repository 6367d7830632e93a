// Package registrar implements the append-only registration ledger:
// chain-hashed, dual-signed attestation entries, the identity verifier
// that gates on them, and the proposal store behind the gate.
package registrar

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mit-pdos/regledger/canonical"
	"github.com/mit-pdos/regledger/cryptoffi"
	"github.com/mit-pdos/regledger/hashchain"
)

// field names as they appear in an entry's canonical form.
const (
	fieldProofName           = "proof_name"
	fieldPayload             = "payload"
	fieldTimestamp           = "timestamp"
	fieldPrevChainHash       = "prev_chain_hash"
	fieldChainHash           = "chain_hash"
	fieldChainSignature      = "chain_signature"
	fieldChainPublicKey      = "chain_public_key"
	fieldIdentitySignature   = "identity_signature"
	fieldIdentityPublicKey   = "identity_public_key"
	fieldIdentityFingerprint = "identity_fingerprint"
)

// RegistrationEntry is one attestation in the ledger. immutable once
// chained: corrections are new entries, never edits. signatures and
// key material are hex so the canonical form stays plain strings.
type RegistrationEntry struct {
	ProofName     string           `json:"proof_name"`
	Payload       canonical.Record `json:"payload"`
	Timestamp     int64            `json:"timestamp"`
	PrevChainHash string           `json:"prev_chain_hash"`
	ChainHash     string           `json:"chain_hash,omitempty"`

	ChainSignature string `json:"chain_signature,omitempty"`
	ChainPublicKey string `json:"chain_public_key,omitempty"`

	IdentitySignature   string `json:"identity_signature,omitempty"`
	IdentityPublicKey   string `json:"identity_public_key,omitempty"`
	IdentityFingerprint string `json:"identity_fingerprint,omitempty"`
}

// The three exclusion sets below must match the sign-time field layout
// exactly, or verification of an untampered entry silently fails. each
// one enumerates every field that is absent or excluded when its digest
// is taken.

// the chain signature covers exactly the draft fields the append call
// provides: proof_name, payload, timestamp, prev_chain_hash.
var chainSigExclude = []string{
	fieldChainSignature, fieldChainPublicKey, fieldChainHash,
	fieldIdentitySignature, fieldIdentityPublicKey, fieldIdentityFingerprint,
}

// the chain hash additionally covers the chain public key. identity
// fields stay outside, so attaching an identity signature later never
// moves the chain.
var chainHashExclude = []string{
	fieldChainSignature, fieldChainHash,
	fieldIdentitySignature, fieldIdentityPublicKey, fieldIdentityFingerprint,
}

// the identity signature covers everything except both signatures and
// its own public key. the claimed fingerprint is inside the covered
// set, binding it to the key holder.
var identitySigExclude = []string{
	fieldChainSignature, fieldIdentitySignature, fieldIdentityPublicKey,
}

func (e *RegistrationEntry) record() canonical.Record {
	rec := canonical.Record{
		fieldProofName:     e.ProofName,
		fieldPayload:       e.Payload,
		fieldTimestamp:     e.Timestamp,
		fieldPrevChainHash: e.PrevChainHash,
	}
	if e.ChainHash != "" {
		rec[fieldChainHash] = e.ChainHash
	}
	if e.ChainSignature != "" {
		rec[fieldChainSignature] = e.ChainSignature
	}
	if e.ChainPublicKey != "" {
		rec[fieldChainPublicKey] = e.ChainPublicKey
	}
	if e.IdentitySignature != "" {
		rec[fieldIdentitySignature] = e.IdentitySignature
	}
	if e.IdentityPublicKey != "" {
		rec[fieldIdentityPublicKey] = e.IdentityPublicKey
	}
	if e.IdentityFingerprint != "" {
		rec[fieldIdentityFingerprint] = e.IdentityFingerprint
	}
	return rec
}

// ChainSignedBytes is the message under the chain signature.
func (e *RegistrationEntry) ChainSignedBytes() ([]byte, error) {
	return canonical.Encode(e.record(), chainSigExclude...)
}

// IdentitySignedBytes is the message under the identity signature.
func (e *RegistrationEntry) IdentitySignedBytes() ([]byte, error) {
	return canonical.Encode(e.record(), identitySigExclude...)
}

// chainHashInput is the canonical byte content fed to the link digest.
func (e *RegistrationEntry) chainHashInput() ([]byte, error) {
	return canonical.Encode(e.record(), chainHashExclude...)
}

// ComputeChainHash re-derives the link value from the entry's own
// fields and its predecessor pointer.
func (e *RegistrationEntry) ComputeChainHash() (string, error) {
	in, err := e.chainHashInput()
	if err != nil {
		return "", err
	}
	return hashchain.NextLink(e.PrevChainHash, in), nil
}

// VerifyChainSignature checks the chain signature against the entry's
// embedded chain public key. false means tampered, missing material,
// or a key that can't be parsed.
func (e *RegistrationEntry) VerifyChainSignature() bool {
	if e.ChainSignature == "" || e.ChainPublicKey == "" {
		return false
	}
	msg, err := e.ChainSignedBytes()
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(e.ChainSignature)
	if err != nil {
		return false
	}
	pubB, err := hex.DecodeString(e.ChainPublicKey)
	if err != nil {
		return false
	}
	pk, err := cryptoffi.ImportPublicKeyset(pubB)
	if err != nil {
		return false
	}
	return pk.Verify(msg, sig)
}

// DecodeEntry parses a JSON entry, keeping payload numerics in their
// literal form so re-encoding is byte stable.
func DecodeEntry(b []byte) (*RegistrationEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var e RegistrationEntry
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("registrar: decode entry: %w", err)
	}
	return &e, nil
}

func (e *RegistrationEntry) Clone() *RegistrationEntry {
	c := *e
	if e.Payload != nil {
		c.Payload = make(canonical.Record, len(e.Payload))
		for k, v := range e.Payload {
			c.Payload[k] = v
		}
	}
	return &c
}

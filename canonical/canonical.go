// Package canonical produces the unique byte form of structured records.
// every hash and signature in the ledger is computed over these bytes,
// so Encode must give byte-identical output for semantically identical
// records, no matter how they were built or reloaded.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a structured registration payload. nested values follow the
// shapes Decode produces: Record, []any, json.Number, string, bool, nil.
type Record = map[string]any

// CanonicalizeError reports a record with no canonical byte form,
// e.g. one holding a cyclic or non-serializable value.
type CanonicalizeError struct {
	Err error
}

func (e *CanonicalizeError) Error() string {
	return fmt.Sprintf("canonical: record has no canonical form: %v", e.Err)
}

func (e *CanonicalizeError) Unwrap() error { return e.Err }

// Encode serializes rec deterministically, dropping the named top-level
// fields first. object keys come out lexicographically sorted at every
// level (encoding/json orders map keys), separators are compact, and
// numbers decoded through Decode keep their original literal form.
func Encode(rec Record, exclude ...string) ([]byte, error) {
	filtered := make(Record, len(rec))
	for k, v := range rec {
		filtered[k] = v
	}
	for _, f := range exclude {
		delete(filtered, f)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(filtered); err != nil {
		return nil, &CanonicalizeError{Err: err}
	}
	// Encode terminates the value with a newline, which is not part of
	// the canonical form.
	out := buf.Bytes()
	return out[:len(out)-1], nil
}

// Decode parses b into a Record, keeping numbers as json.Number so a
// later Encode reproduces the exact bytes that were hashed and signed.
func Decode(b []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("canonical: decode: %w", err)
	}
	return rec, nil
}

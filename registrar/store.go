package registrar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

const (
	ledgerFile = "ledger.json"
	regSubdir  = "registrations"
	propSubdir = "proposals"
)

// Store persists the ordered ledger, the per-fingerprint registration
// records, and the proposal records under one directory. every write
// replaces a whole file atomically, so a concurrent reader sees either
// the old snapshot or the new one, never a half-written entry.
type Store struct {
	dir string
	mu  sync.Mutex
	log zerolog.Logger
}

func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	for _, d := range []string{dir, filepath.Join(dir, regSubdir), filepath.Join(dir, propSubdir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("registrar: store dir: %w", err)
		}
	}
	return &Store{dir: dir, log: log}, nil
}

// # Ordered ledger

func (s *Store) ledgerPath() string {
	return filepath.Join(s.dir, ledgerFile)
}

// LoadEntries returns the persisted chain in append order. a missing
// ledger file is an empty chain.
func (s *Store) LoadEntries() ([]*RegistrationEntry, error) {
	var entries []*RegistrationEntry
	err := readJSON(s.ledgerPath(), &entries)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) AppendEntry(e *RegistrationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.LoadEntries()
	if err != nil {
		return err
	}
	entries = append(entries, e)
	return s.writeAtomic(s.ledgerPath(), entries)
}

// ReplaceEntry swaps the stored entry with the same chain hash, the
// only post-hoc mutation the ledger allows (identity signature
// attachment).
func (s *Store) ReplaceEntry(e *RegistrationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.LoadEntries()
	if err != nil {
		return err
	}
	found := false
	for i, old := range entries {
		if old.ChainHash == e.ChainHash {
			entries[i] = e
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownEntry, e.ChainHash)
	}
	return s.writeAtomic(s.ledgerPath(), entries)
}

// # Per-fingerprint registration records

func (s *Store) regPath(fp string) (string, error) {
	if !validFingerprint(fp) {
		return "", fmt.Errorf("registrar: malformed fingerprint %q", fp)
	}
	return filepath.Join(s.dir, regSubdir, "reg_"+fp+".json"), nil
}

func (s *Store) PutRegistration(fp string, e *RegistrationEntry) error {
	path, err := s.regPath(fp)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomic(path, e)
}

func (s *Store) GetRegistration(fp string) (*RegistrationEntry, error) {
	path, err := s.regPath(fp)
	if err != nil {
		return nil, err
	}
	var e RegistrationEntry
	err = readJSON(path, &e)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, fp)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListRegistrations loads every registration record, sorted by file
// name for a stable listing order.
func (s *Store) ListRegistrations() ([]*RegistrationEntry, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, regSubdir, "reg_*.json"))
	if err != nil {
		return nil, fmt.Errorf("registrar: scan registrations: %w", err)
	}
	sort.Strings(paths)
	var out []*RegistrationEntry
	for _, p := range paths {
		var e RegistrationEntry
		if err := readJSON(p, &e); err != nil {
			s.log.Warn().Str("file", p).Err(err).Msg("skipping unreadable registration")
			continue
		}
		out = append(out, &e)
	}
	return out, nil
}

// # Proposals

func (s *Store) PutProposal(p *Proposal) error {
	path := filepath.Join(s.dir, propSubdir, "proposal_"+p.ProposalID+".json")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomic(path, p)
}

func (s *Store) ListProposals() ([]*Proposal, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, propSubdir, "proposal_*.json"))
	if err != nil {
		return nil, fmt.Errorf("registrar: scan proposals: %w", err)
	}
	sort.Strings(paths)
	var out []*Proposal
	for _, p := range paths {
		var prop Proposal
		if err := readJSON(p, &prop); err != nil {
			s.log.Warn().Str("file", p).Err(err).Msg("skipping unreadable proposal")
			continue
		}
		out = append(out, &prop)
	}
	return out, nil
}

// # Helpers

// writeAtomic stages the file beside its target and renames into
// place.
func (s *Store) writeAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("registrar: encode %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("registrar: stage %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("registrar: stage %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("registrar: stage %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("registrar: replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readJSON decodes with UseNumber so payload numerics keep the literal
// form their canonical bytes were hashed with.
func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("registrar: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func validFingerprint(fp string) bool {
	if fp == "" {
		return false
	}
	for _, r := range fp {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

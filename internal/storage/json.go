package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"tontine/internal/core"
)

// document is the on-disk shape: one JSON file holding every section, the
// same layout the ledger has always used.
type document struct {
	Members      map[string]core.Member `json:"members"`
	Cycles       map[string]core.Cycle  `json:"cycles"`
	Transactions []core.Transaction     `json:"transactions"`
	Balances     map[string]int64       `json:"balances"`
}

// JSONStore persists the ledger as a single JSON document. Each Save*
// rereads the file and replaces only its own section, so the sections stay
// independent. Writes go through a temp file and rename.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

func NewJSONStore(path string) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &JSONStore{path: path}, nil
}

// read loads the current document. A missing or corrupt file yields an
// empty document rather than an error; the next save rewrites it.
func (s *JSONStore) read(ctx context.Context) document {
	doc := document{}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.WarnContext(ctx, "Ledger file unreadable, starting empty", "path", s.path, "error", err)
		}
		return doc
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		slog.WarnContext(ctx, "Ledger file corrupt, starting empty", "path", s.path, "error", err)
		return document{}
	}
	return doc
}

func (s *JSONStore) write(doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

func (s *JSONStore) LoadMembers(ctx context.Context) (map[string]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.read(ctx)
	if doc.Members == nil {
		doc.Members = make(map[string]core.Member)
	}
	return doc.Members, nil
}

func (s *JSONStore) SaveMembers(ctx context.Context, members map[string]core.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.read(ctx)
	doc.Members = copyMembers(members)
	return s.write(doc)
}

func (s *JSONStore) LoadCycles(ctx context.Context) (map[string]core.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.read(ctx)
	if doc.Cycles == nil {
		doc.Cycles = make(map[string]core.Cycle)
	}
	return doc.Cycles, nil
}

func (s *JSONStore) SaveCycles(ctx context.Context, cycles map[string]core.Cycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.read(ctx)
	doc.Cycles = copyCycles(cycles)
	return s.write(doc)
}

func (s *JSONStore) LoadFinances(ctx context.Context) ([]core.Transaction, map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.read(ctx)
	if doc.Balances == nil {
		doc.Balances = make(map[string]int64)
	}
	return doc.Transactions, doc.Balances, nil
}

func (s *JSONStore) SaveFinances(ctx context.Context, txs []core.Transaction, balances map[string]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.read(ctx)
	doc.Transactions = append([]core.Transaction(nil), txs...)
	doc.Balances = copyBalances(balances)
	return s.write(doc)
}

func (s *JSONStore) Close() error { return nil }

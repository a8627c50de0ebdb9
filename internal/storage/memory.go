package storage

import (
	"context"
	"sync"

	"tontine/internal/core"
)

// MemoryStore keeps all sections in memory. Used as the default backend for
// quick local runs and throughout the tests.
type MemoryStore struct {
	mu       sync.Mutex
	members  map[string]core.Member
	cycles   map[string]core.Cycle
	txs      []core.Transaction
	balances map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members:  make(map[string]core.Member),
		cycles:   make(map[string]core.Cycle),
		balances: make(map[string]int64),
	}
}

func (s *MemoryStore) LoadMembers(_ context.Context) (map[string]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMembers(s.members), nil
}

func (s *MemoryStore) SaveMembers(_ context.Context, members map[string]core.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = copyMembers(members)
	return nil
}

func (s *MemoryStore) LoadCycles(_ context.Context) (map[string]core.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCycles(s.cycles), nil
}

func (s *MemoryStore) SaveCycles(_ context.Context, cycles map[string]core.Cycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = copyCycles(cycles)
	return nil
}

func (s *MemoryStore) LoadFinances(_ context.Context) ([]core.Transaction, map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs...), copyBalances(s.balances), nil
}

func (s *MemoryStore) SaveFinances(_ context.Context, txs []core.Transaction, balances map[string]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append([]core.Transaction(nil), txs...)
	s.balances = copyBalances(balances)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

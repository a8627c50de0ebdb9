// Package storage provides the persistence boundary for the ledger: one
// document-style store with a section per engine (members, cycles,
// finances), backed by SQLite, a JSON file, or memory.
package storage

import (
	"context"

	"tontine/internal/core"
)

// Store persists the engines' records. Each engine loads its section once at
// startup and saves the whole section after every accepted mutation; a save
// replaces the section without touching the others. Corrupt or missing data
// loads as empty, a failed save is always surfaced.
type Store interface {
	LoadMembers(ctx context.Context) (map[string]core.Member, error)
	SaveMembers(ctx context.Context, members map[string]core.Member) error

	LoadCycles(ctx context.Context) (map[string]core.Cycle, error)
	SaveCycles(ctx context.Context, cycles map[string]core.Cycle) error

	// Finances couple the transaction log with the cached balances so the
	// two can never be persisted out of step.
	LoadFinances(ctx context.Context) ([]core.Transaction, map[string]int64, error)
	SaveFinances(ctx context.Context, txs []core.Transaction, balances map[string]int64) error

	Close() error
}

func copyMembers(in map[string]core.Member) map[string]core.Member {
	out := make(map[string]core.Member, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyCycles(in map[string]core.Cycle) map[string]core.Cycle {
	out := make(map[string]core.Cycle, len(in))
	for k, v := range in {
		v.Participants = append([]string(nil), v.Participants...)
		v.PayoutOrder = append([]string(nil), v.PayoutOrder...)
		out[k] = v
	}
	return out
}

func copyBalances(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tontine/internal/core"
)

func testCycle(id string) core.Cycle {
	return core.Cycle{
		ID:             id,
		Contribution:   core.Money{Cents: 500000},
		DurationMonths: 4,
		StartDate:      core.NewDate(2026, 1, 1),
		Participants:   []string{"M001", "M002", "M003", "M004"},
		PayoutOrder:    []string{"M003", "M001", "M004", "M002"},
		CreatedAt:      time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestJSONStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tontine.json")
	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}

	members := map[string]core.Member{
		"M001": {ID: "M001", LastName: "Diallo", FirstName: "Awa", Email: "awa@example.com", Phone: "+22170000001", Active: true},
	}
	if err := store.SaveMembers(ctx, members); err != nil {
		t.Fatalf("SaveMembers: %v", err)
	}

	cycles := map[string]core.Cycle{"C001": testCycle("C001")}
	if err := store.SaveCycles(ctx, cycles); err != nil {
		t.Fatalf("SaveCycles: %v", err)
	}

	txs := []core.Transaction{{
		ID: "T0001", MemberID: "M001", CycleID: "C001",
		Amount: core.Money{Cents: 500000}, Kind: core.KindContribution,
	}}
	balances := map[string]int64{"M001": -500000}
	if err := store.SaveFinances(ctx, txs, balances); err != nil {
		t.Fatalf("SaveFinances: %v", err)
	}

	// Fresh store over the same file sees all three sections.
	store2, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	gotMembers, err := store2.LoadMembers(ctx)
	if err != nil || len(gotMembers) != 1 {
		t.Fatalf("LoadMembers = %v, %v", gotMembers, err)
	}
	if gotMembers["M001"].Email != "awa@example.com" {
		t.Errorf("member lost fields: %+v", gotMembers["M001"])
	}

	gotCycles, err := store2.LoadCycles(ctx)
	if err != nil || len(gotCycles) != 1 {
		t.Fatalf("LoadCycles = %v, %v", gotCycles, err)
	}
	c := gotCycles["C001"]
	if c.StartDate.String() != "2026-01-01" || len(c.PayoutOrder) != 4 {
		t.Errorf("cycle lost fields: %+v", c)
	}

	gotTxs, gotBalances, err := store2.LoadFinances(ctx)
	if err != nil || len(gotTxs) != 1 {
		t.Fatalf("LoadFinances = %v, %v", gotTxs, err)
	}
	if gotBalances["M001"] != -500000 {
		t.Errorf("balance = %d, want -500000", gotBalances["M001"])
	}
}

func TestJSONStore_SectionsIndependent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tontine.json")
	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}

	if err := store.SaveCycles(ctx, map[string]core.Cycle{"C001": testCycle("C001")}); err != nil {
		t.Fatalf("SaveCycles: %v", err)
	}
	// Saving members must not clobber the cycles section.
	if err := store.SaveMembers(ctx, map[string]core.Member{"M001": {ID: "M001", Active: true}}); err != nil {
		t.Fatalf("SaveMembers: %v", err)
	}

	cycles, err := store.LoadCycles(ctx)
	if err != nil || len(cycles) != 1 {
		t.Fatalf("cycles section lost after member save: %v, %v", cycles, err)
	}
}

func TestJSONStore_CorruptFileLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tontine.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	members, err := store.LoadMembers(ctx)
	if err != nil {
		t.Fatalf("corrupt file must load as empty, got error: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected empty members, got %d", len(members))
	}
	cycles, err := store.LoadCycles(ctx)
	if err != nil || len(cycles) != 0 {
		t.Fatalf("expected empty cycles, got %v, %v", cycles, err)
	}
}

func TestMemoryStore_CopiesOnLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.SaveCycles(ctx, map[string]core.Cycle{"C001": testCycle("C001")}); err != nil {
		t.Fatalf("SaveCycles: %v", err)
	}

	first, _ := store.LoadCycles(ctx)
	c := first["C001"]
	c.PayoutOrder[0] = "tampered"
	c.Finished = true
	first["C001"] = c

	second, _ := store.LoadCycles(ctx)
	if second["C001"].PayoutOrder[0] == "tampered" || second["C001"].Finished {
		t.Fatal("store state mutated through a loaded copy")
	}
}

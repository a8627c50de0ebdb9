package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"tontine/internal/core"
)

func TestWriteTransactions(t *testing.T) {
	txs := []core.Transaction{
		{
			ID:        "T0001",
			MemberID:  "M001",
			CycleID:   "C001",
			Amount:    core.Money{Cents: 100000},
			Kind:      core.KindContribution,
			Month:     0,
			CreatedAt: time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:        "T0002",
			MemberID:  "M002",
			CycleID:   "C001",
			Amount:    core.Money{Cents: 80000},
			Kind:      core.KindContribution,
			Month:     0,
			Penalty:   core.Money{Cents: 2000},
			CreatedAt: time.Date(2026, 2, 2, 14, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := WriteTransactions(&buf, txs); err != nil {
		t.Fatalf("WriteTransactions: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus 2 rows:\n%s", len(lines), buf.String())
	}
	if lines[0] != "id,member_id,cycle_id,kind,month,amount,penalty,created_at" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "T0001,M001,C001,contribution,0,1000.00,0.00,2026-02-01 09:30:00" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "T0002,M002,C001,contribution,0,800.00,20.00,2026-02-02 14:00:00" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestWriteTransactions_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTransactions(&buf, nil); err != nil {
		t.Fatalf("WriteTransactions: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "id,member_id,cycle_id,kind,month,amount,penalty,created_at" {
		t.Errorf("empty export = %q, want header only", got)
	}
}

func TestWriteBalances(t *testing.T) {
	balances := []core.MemberBalance{
		{MemberID: "M001", DisplayName: "Awa Diop", Balance: core.Money{Cents: -82000}},
		{MemberID: "M002", DisplayName: "Moussa Ndiaye", Balance: core.Money{Cents: 0}},
	}

	var buf bytes.Buffer
	if err := WriteBalances(&buf, balances); err != nil {
		t.Fatalf("WriteBalances: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if lines[1] != "M001,Awa Diop,-820.00" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "M002,Moussa Ndiaye,0.00" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

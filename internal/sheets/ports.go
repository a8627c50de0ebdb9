// Package sheets defines the spreadsheet port the mirror worker writes
// through. Implementations live in subpackages: google for the real
// spreadsheet, memory for tests.
package sheets

import (
	"context"
	"time"

	"tontine/internal/core"
)

// TransactionRow is one ledger record flattened for a spreadsheet.
type TransactionRow struct {
	TransactionID string
	MemberID      string
	MemberName    string
	CycleID       string
	Month         int
	Amount        core.Money
	Penalty       core.Money
	RecordedAt    time.Time
}

// TransactionAppender appends a ledger row and returns a reference to where
// it landed.
type TransactionAppender interface {
	AppendTransaction(ctx context.Context, row TransactionRow) (string, error)
}

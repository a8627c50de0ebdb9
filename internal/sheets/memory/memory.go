// Package memory is an in-memory TransactionAppender used in tests and when
// no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "tontine/internal/sheets"
)

type Appender struct {
	mu   sync.Mutex
	rows []ports.TransactionRow
}

var _ ports.TransactionAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

func (a *Appender) AppendTransaction(_ context.Context, row ports.TransactionRow) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, row)
	return fmt.Sprintf("memory:%d", len(a.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []ports.TransactionRow {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ports.TransactionRow(nil), a.rows...)
}

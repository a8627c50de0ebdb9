// Package export renders ledger data as CSV for spreadsheets and archives.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"tontine/internal/core"
)

// WriteTransactions writes the transaction log as CSV, one row per record.
// Amounts are whole units with two decimals, matching Money.String.
func WriteTransactions(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "member_id", "cycle_id", "kind", "month", "amount", "penalty", "created_at"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		row := []string{
			tx.ID,
			tx.MemberID,
			tx.CycleID,
			string(tx.Kind),
			fmt.Sprintf("%d", tx.Month),
			tx.Amount.String(),
			tx.Penalty.String(),
			tx.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBalances writes the member balances as CSV.
func WriteBalances(w io.Writer, balances []core.MemberBalance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"member_id", "name", "balance"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, b := range balances {
		if err := cw.Write([]string{b.MemberID, b.DisplayName, b.Balance.String()}); err != nil {
			return fmt.Errorf("write row %s: %w", b.MemberID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

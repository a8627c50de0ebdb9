// Package worker mirrors persisted ledger transactions to a spreadsheet. It
// is driven by AMQP events, with a periodic catch-up pass as backup in case
// messages are lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"tontine/internal/amqp"
	"tontine/internal/core"
	"tontine/internal/sheets"
	"tontine/internal/storage"
)

// MirrorWorker copies transactions from the store to the spreadsheet,
// tracking the last mirrored transaction in a small state file so restarts
// and catch-up passes never duplicate rows.
type MirrorWorker struct {
	store     storage.Store
	appender  sheets.TransactionAppender
	statePath string
}

func NewMirrorWorker(store storage.Store, appender sheets.TransactionAppender, statePath string) *MirrorWorker {
	return &MirrorWorker{
		store:     store,
		appender:  appender,
		statePath: statePath,
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP.
func (w *MirrorWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	if msg.Type != amqp.EventContributionRecorded {
		slog.InfoContext(ctx, "Ignoring ledger event", "type", msg.Type, "cycle_id", msg.CycleID)
		return nil
	}

	txs, _, err := w.store.LoadFinances(ctx)
	if err != nil {
		return fmt.Errorf("load finances: %w", err)
	}

	for _, tx := range txs {
		if tx.ID == msg.TransactionID {
			return w.mirror(ctx, tx)
		}
	}
	return fmt.Errorf("transaction %s not found in store", msg.TransactionID)
}

// CatchUp mirrors every transaction newer than the last mirrored one, oldest
// first. Run at startup and periodically as a safety net.
func (w *MirrorWorker) CatchUp(ctx context.Context) error {
	txs, _, err := w.store.LoadFinances(ctx)
	if err != nil {
		return fmt.Errorf("load finances: %w", err)
	}

	mark := w.readMark()
	var pending []core.Transaction
	for _, tx := range txs {
		if txSeq(tx.ID) > mark {
			pending = append(pending, tx)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.Slice(pending, func(i, j int) bool { return txSeq(pending[i].ID) < txSeq(pending[j].ID) })

	slog.InfoContext(ctx, "Catching up unmirrored transactions", "count", len(pending))

	for _, tx := range pending {
		if err := w.mirror(ctx, tx); err != nil {
			return fmt.Errorf("mirror %s: %w", tx.ID, err)
		}
	}
	return nil
}

func (w *MirrorWorker) mirror(ctx context.Context, tx core.Transaction) error {
	if txSeq(tx.ID) <= w.readMark() {
		slog.InfoContext(ctx, "Transaction already mirrored", "transaction_id", tx.ID)
		return nil
	}

	members, err := w.store.LoadMembers(ctx)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	name := tx.MemberID
	if m, ok := members[tx.MemberID]; ok {
		name = m.DisplayName()
	}

	row := sheets.TransactionRow{
		TransactionID: tx.ID,
		MemberID:      tx.MemberID,
		MemberName:    name,
		CycleID:       tx.CycleID,
		Month:         tx.Month,
		Amount:        tx.Amount,
		Penalty:       tx.Penalty,
		RecordedAt:    tx.CreatedAt,
	}

	ref, err := w.appender.AppendTransaction(ctx, row)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}
	if err := w.writeMark(tx.ID); err != nil {
		// The row landed; losing the mark only risks a duplicate next run.
		slog.ErrorContext(ctx, "Failed to persist mirror mark", "transaction_id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"transaction_id", tx.ID,
		"member_id", tx.MemberID,
		"sheet_ref", ref)
	return nil
}

// readMark returns the numeric suffix of the last mirrored transaction id,
// or 0 when nothing was mirrored yet.
func (w *MirrorWorker) readMark() int {
	if w.statePath == "" {
		return 0
	}
	data, err := os.ReadFile(w.statePath)
	if err != nil {
		return 0
	}
	return txSeq(strings.TrimSpace(string(data)))
}

func (w *MirrorWorker) writeMark(txID string) error {
	if w.statePath == "" {
		return nil
	}
	return os.WriteFile(w.statePath, []byte(txID+"\n"), 0644)
}

func txSeq(id string) int {
	if !strings.HasPrefix(id, core.TransactionIDPrefix) {
		return 0
	}
	n, err := strconv.Atoi(id[len(core.TransactionIDPrefix):])
	if err != nil {
		return 0
	}
	return n
}

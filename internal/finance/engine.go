// Package finance is the settlement side of the ledger: it records
// contributions against the active cycle, applies shortfall penalties,
// tracks running balances and produces the monthly reports.
package finance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"tontine/internal/core"
	"tontine/internal/storage"
)

// CycleSource is the view of the cycle engine the settlement engine needs.
type CycleSource interface {
	Active() (core.Cycle, bool, error)
	Get(id string) (core.Cycle, error)
}

// EventPublisher emits ledger events after a mutation was persisted. A nil
// publisher disables events.
type EventPublisher interface {
	PublishContributionRecorded(ctx context.Context, tx core.Transaction) error
}

// Engine owns the transaction log and the balance cache. Mutations are staged
// on copies and committed to memory only after the store accepted them.
type Engine struct {
	mu        sync.Mutex
	store     storage.Store
	directory core.Directory
	cycleSrc  CycleSource
	publisher EventPublisher

	txs      []core.Transaction
	balances map[string]int64

	now func() time.Time
}

func NewEngine(ctx context.Context, store storage.Store, directory core.Directory, cycleSrc CycleSource, publisher EventPublisher) (*Engine, error) {
	txs, balances, err := store.LoadFinances(ctx)
	if err != nil {
		return nil, fmt.Errorf("load finances: %w", err)
	}
	return &Engine{
		store:     store,
		directory: directory,
		cycleSrc:  cycleSrc,
		publisher: publisher,
		txs:       txs,
		balances:  balances,
		now:       time.Now,
	}, nil
}

// PenaltyCents computes the shortfall penalty: 10% of the missing amount,
// rounded half-up to the cent. Overpaying or paying exactly incurs nothing.
func PenaltyCents(expected, paid int64) int64 {
	if paid >= expected {
		return 0
	}
	shortfall := expected - paid
	return (shortfall*10 + 50) / 100
}

// RecordContribution records a member's payment for the active cycle's
// current month. Paying less than the cycle's contribution adds a 10%
// penalty on the shortfall; one contribution per member per month.
func (e *Engine) RecordContribution(ctx context.Context, memberID string, amount core.Money) (core.Transaction, error) {
	if err := amount.Validate(); err != nil {
		return core.Transaction{}, err
	}

	cycle, ok, err := e.cycleSrc.Active()
	if err != nil {
		return core.Transaction{}, err
	}
	if !ok {
		return core.Transaction{}, core.ErrNoActiveCycle
	}
	if !cycle.IsParticipant(memberID) {
		return core.Transaction{}, core.ErrNotParticipant
	}
	if !e.directory.ExistsAndActive(memberID) {
		return core.Transaction{}, core.ErrMemberNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, tx := range e.txs {
		if tx.MemberID == memberID && tx.CycleID == cycle.ID &&
			tx.Month == cycle.CurrentMonth && tx.Kind == core.KindContribution {
			return core.Transaction{}, core.ErrDuplicateContribution
		}
	}

	penalty := PenaltyCents(cycle.Contribution.Cents, amount.Cents)
	tx := core.Transaction{
		ID:        core.NextID(core.TransactionIDPrefix, core.TransactionIDWidth, txIDs(e.txs)),
		MemberID:  memberID,
		CycleID:   cycle.ID,
		Amount:    amount,
		Kind:      core.KindContribution,
		Month:     cycle.CurrentMonth,
		Penalty:   core.Money{Cents: penalty},
		CreatedAt: e.now(),
	}

	stagedTxs := append(append([]core.Transaction(nil), e.txs...), tx)
	stagedBalances := cloneBalances(e.balances)
	stagedBalances[memberID] -= amount.Cents + penalty

	if err := e.store.SaveFinances(ctx, stagedTxs, stagedBalances); err != nil {
		return core.Transaction{}, fmt.Errorf("save finances: %w", err)
	}
	e.txs = stagedTxs
	e.balances = stagedBalances

	if e.publisher != nil {
		if err := e.publisher.PublishContributionRecorded(ctx, tx); err != nil {
			slog.WarnContext(ctx, "Failed to publish contribution event",
				"transaction_id", tx.ID, "error", err)
		}
	}
	return tx, nil
}

// Outstanding lists every participant of the active cycle with their payment
// status for the current month, unpaid and partial first.
func (e *Engine) Outstanding(ctx context.Context) ([]core.MemberDue, error) {
	cycle, ok, err := e.cycleSrc.Active()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrNoActiveCycle
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	paid := make(map[string]int64)
	for _, tx := range e.txs {
		if tx.CycleID == cycle.ID && tx.Month == cycle.CurrentMonth && tx.Kind == core.KindContribution {
			paid[tx.MemberID] += tx.Amount.Cents
		}
	}

	out := make([]core.MemberDue, 0, len(cycle.Participants))
	for _, id := range cycle.Participants {
		due := core.MemberDue{
			MemberID:    id,
			DisplayName: e.directory.DisplayName(id),
		}
		amount, has := paid[id]
		switch {
		case !has:
			due.Status = core.StatusUnpaid
			due.AmountDue = cycle.Contribution
		case amount < cycle.Contribution.Cents:
			due.Status = core.StatusPartial
			due.AmountDue = core.Money{Cents: cycle.Contribution.Cents - amount}
		default:
			due.Status = core.StatusPaid
		}
		out = append(out, due)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return statusRank(out[i].Status) < statusRank(out[j].Status)
	})
	return out, nil
}

// MonthlyReport aggregates the active cycle's current month: what came in,
// what is missing and who the pool goes to.
func (e *Engine) MonthlyReport(ctx context.Context) (core.MonthlyReport, error) {
	cycle, ok, err := e.cycleSrc.Active()
	if err != nil {
		return core.MonthlyReport{}, err
	}
	if !ok {
		return core.MonthlyReport{}, core.ErrNoActiveCycle
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	report := core.MonthlyReport{
		CycleID:        cycle.ID,
		Month:          cycle.CurrentMonth,
		DurationMonths: cycle.DurationMonths,
		Participants:   len(cycle.Participants),
		Expected:       core.Money{Cents: cycle.Contribution.Cents * int64(len(cycle.Participants))},
	}
	for _, tx := range e.txs {
		if tx.CycleID != cycle.ID || tx.Month != cycle.CurrentMonth || tx.Kind != core.KindContribution {
			continue
		}
		report.Contributions++
		report.Collected.Cents += tx.Amount.Cents
		report.Penalties.Cents += tx.Penalty.Cents
	}
	if short := report.Expected.Cents - report.Collected.Cents; short > 0 {
		report.Shortfall = core.Money{Cents: short}
	}
	if beneficiary, ok := cycle.CurrentBeneficiary(); ok {
		report.BeneficiaryID = beneficiary
		report.BeneficiaryName = e.directory.DisplayName(beneficiary)
		report.Payout = report.Collected
	}
	return report, nil
}

// BalanceOf returns a member's running balance.
func (e *Engine) BalanceOf(memberID string) core.Money {
	e.mu.Lock()
	defer e.mu.Unlock()
	return core.Money{Cents: e.balances[memberID]}
}

// Balances returns every member's balance, sorted by member id. Members
// without any recorded movement are included at zero.
func (e *Engine) Balances() []core.MemberBalance {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]bool)
	var out []core.MemberBalance
	for _, id := range e.directory.ActiveMemberIDs() {
		seen[id] = true
		out = append(out, core.MemberBalance{
			MemberID:    id,
			DisplayName: e.directory.DisplayName(id),
			Balance:     core.Money{Cents: e.balances[id]},
		})
	}
	for id, cents := range e.balances {
		if !seen[id] {
			out = append(out, core.MemberBalance{
				MemberID:    id,
				DisplayName: e.directory.DisplayName(id),
				Balance:     core.Money{Cents: cents},
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out
}

// History returns the transaction log, newest first. An empty memberID
// returns everything.
func (e *Engine) History(memberID string) []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []core.Transaction
	for _, tx := range e.txs {
		if memberID == "" || tx.MemberID == memberID {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func statusRank(s core.PaymentStatus) int {
	switch s {
	case core.StatusUnpaid:
		return 0
	case core.StatusPartial:
		return 1
	default:
		return 2
	}
}

func txIDs(txs []core.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}

func cloneBalances(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Package cycles runs the rotation lifecycle: one active cycle at a time,
// a payout order frozen at creation, months advanced one by one until the
// cycle finishes.
package cycles

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"tontine/internal/core"
	"tontine/internal/storage"
)

// EventPublisher emits cycle events after a mutation was persisted. A nil
// publisher disables events.
type EventPublisher interface {
	PublishCycleAdvanced(ctx context.Context, cycleID string, month int) error
}

// Engine owns the cycle records. Mutations are staged on copies and committed
// to memory only after the store accepted them.
type Engine struct {
	mu        sync.Mutex
	store     storage.Store
	directory core.Directory
	publisher EventPublisher
	cycles    map[string]core.Cycle

	shuffle func(n int, swap func(i, j int))
	now     func() time.Time
}

func NewEngine(ctx context.Context, store storage.Store, directory core.Directory, publisher EventPublisher) (*Engine, error) {
	cycles, err := store.LoadCycles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cycles: %w", err)
	}
	return &Engine{
		store:     store,
		directory: directory,
		publisher: publisher,
		cycles:    cycles,
		shuffle:   rand.Shuffle,
		now:       time.Now,
	}, nil
}

// Create starts a new cycle. Participants that are unknown, inactive or
// repeated are dropped and reported back as warnings; the cycle is created
// with whoever remains, as long as at least two do. Only one unfinished cycle
// may exist at a time.
func (e *Engine) Create(ctx context.Context, contribution core.Money, durationMonths int, startDate core.Date, participants []string) (core.Cycle, []string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range e.cycles {
		if !c.Finished {
			return core.Cycle{}, nil, core.ErrActiveCycleExists
		}
	}

	var warnings []string
	seen := make(map[string]bool)
	var kept []string
	for _, id := range participants {
		switch {
		case seen[id]:
			warnings = append(warnings, fmt.Sprintf("participant %s listed more than once, ignored", id))
		case !e.directory.ExistsAndActive(id):
			warnings = append(warnings, fmt.Sprintf("participant %s is unknown or inactive, dropped", id))
		default:
			seen[id] = true
			kept = append(kept, id)
		}
	}

	order := append([]string(nil), kept...)
	e.shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	c := core.Cycle{
		Contribution:   contribution,
		DurationMonths: durationMonths,
		StartDate:      startDate,
		Participants:   kept,
		PayoutOrder:    order,
	}
	if err := c.Validate(); err != nil {
		return core.Cycle{}, warnings, err
	}

	c.ID = core.NextID(core.CycleIDPrefix, core.CycleIDWidth, ids(e.cycles))
	c.CreatedAt = e.now()

	staged := clone(e.cycles)
	staged[c.ID] = c
	if err := e.store.SaveCycles(ctx, staged); err != nil {
		return core.Cycle{}, warnings, fmt.Errorf("save cycles: %w", err)
	}
	e.cycles = staged

	slog.InfoContext(ctx, "Cycle created",
		"cycle_id", c.ID,
		"participants", len(kept),
		"duration_months", durationMonths,
		"contribution", contribution.String())
	return c, warnings, nil
}

// Active returns the single unfinished cycle, if any. More than one
// unfinished cycle means the stored data was tampered with.
func (e *Engine) Active() (core.Cycle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var found []core.Cycle
	for _, c := range e.cycles {
		if !c.Finished {
			found = append(found, c)
		}
	}
	switch len(found) {
	case 0:
		return core.Cycle{}, false, nil
	case 1:
		return found[0], true, nil
	default:
		return core.Cycle{}, false, core.ErrCorruptState
	}
}

// Get returns a cycle by id.
func (e *Engine) Get(id string) (core.Cycle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.cycles[id]
	if !ok {
		return core.Cycle{}, core.ErrCycleNotFound
	}
	return c, nil
}

// List returns all cycles sorted by id.
func (e *Engine) List() []core.Cycle {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.Cycle, 0, len(e.cycles))
	for _, c := range e.cycles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ScheduleEntry is one payout slot of a cycle.
type ScheduleEntry struct {
	Month       int    `json:"month"`
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
}

// Schedule returns the cycle's payout order slot by slot, marking each as
// past, current or upcoming relative to the cycle's month.
func (e *Engine) Schedule(id string) ([]ScheduleEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.cycles[id]
	if !ok {
		return nil, core.ErrCycleNotFound
	}

	out := make([]ScheduleEntry, 0, len(c.PayoutOrder))
	for month, memberID := range c.PayoutOrder {
		entry := ScheduleEntry{
			Month:       month,
			MemberID:    memberID,
			DisplayName: e.directory.DisplayName(memberID),
		}
		switch {
		case c.Finished || month < c.CurrentMonth:
			entry.Status = "past"
		case month == c.CurrentMonth:
			entry.Status = "current"
		default:
			entry.Status = "upcoming"
		}
		out = append(out, entry)
	}
	return out, nil
}

// Advance moves the cycle to its next month. Advancing past the last month
// finishes the cycle.
func (e *Engine) Advance(ctx context.Context, id string) (core.Cycle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.cycles[id]
	if !ok {
		return core.Cycle{}, core.ErrCycleNotFound
	}
	if c.Finished {
		return core.Cycle{}, core.ErrCycleFinished
	}

	c.CurrentMonth++
	if c.CurrentMonth >= c.DurationMonths {
		c.Finished = true
	}

	staged := clone(e.cycles)
	staged[id] = c
	if err := e.store.SaveCycles(ctx, staged); err != nil {
		return core.Cycle{}, fmt.Errorf("save cycles: %w", err)
	}
	e.cycles = staged

	slog.InfoContext(ctx, "Cycle advanced",
		"cycle_id", id,
		"current_month", c.CurrentMonth,
		"finished", c.Finished)

	if e.publisher != nil {
		if err := e.publisher.PublishCycleAdvanced(ctx, id, c.CurrentMonth); err != nil {
			slog.WarnContext(ctx, "Failed to publish cycle event", "cycle_id", id, "error", err)
		}
	}
	return c, nil
}

// Terminate finishes a cycle early, regardless of the month it is in.
func (e *Engine) Terminate(ctx context.Context, id string) (core.Cycle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.cycles[id]
	if !ok {
		return core.Cycle{}, core.ErrCycleNotFound
	}
	if c.Finished {
		return core.Cycle{}, core.ErrCycleFinished
	}

	c.Finished = true

	staged := clone(e.cycles)
	staged[id] = c
	if err := e.store.SaveCycles(ctx, staged); err != nil {
		return core.Cycle{}, fmt.Errorf("save cycles: %w", err)
	}
	e.cycles = staged

	slog.InfoContext(ctx, "Cycle terminated", "cycle_id", id, "at_month", c.CurrentMonth)
	return c, nil
}

func ids(cycles map[string]core.Cycle) []string {
	out := make([]string, 0, len(cycles))
	for id := range cycles {
		out = append(out, id)
	}
	return out
}

func clone(cycles map[string]core.Cycle) map[string]core.Cycle {
	out := make(map[string]core.Cycle, len(cycles))
	for k, v := range cycles {
		v.Participants = append([]string(nil), v.Participants...)
		v.PayoutOrder = append([]string(nil), v.PayoutOrder...)
		out[k] = v
	}
	return out
}

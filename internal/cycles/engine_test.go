package cycles

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"tontine/internal/core"
	"tontine/internal/storage"
)

type stubDirectory struct {
	active map[string]bool
}

func (d *stubDirectory) ExistsAndActive(id string) bool { return d.active[id] }
func (d *stubDirectory) DisplayName(id string) string   { return id }
func (d *stubDirectory) ActiveMemberIDs() []string {
	var out []string
	for id, ok := range d.active {
		if ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func newTestEngine(t *testing.T, active ...string) *Engine {
	t.Helper()
	dir := &stubDirectory{active: make(map[string]bool)}
	for _, id := range active {
		dir.active[id] = true
	}
	e, err := NewEngine(context.Background(), storage.NewMemoryStore(), dir, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func mustCreate(t *testing.T, e *Engine, months int, participants ...string) core.Cycle {
	t.Helper()
	c, _, err := e.Create(context.Background(), core.Money{Cents: 100000}, months, core.NewDate(2026, 1, 1), participants)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return c
}

func TestCreate_PayoutOrderIsPermutation(t *testing.T) {
	e := newTestEngine(t, "M001", "M002", "M003", "M004")
	c := mustCreate(t, e, 4, "M001", "M002", "M003", "M004")

	if c.ID != "C001" {
		t.Errorf("id = %q, want C001", c.ID)
	}
	if len(c.PayoutOrder) != len(c.Participants) {
		t.Fatalf("payout order length %d, participants %d", len(c.PayoutOrder), len(c.Participants))
	}
	got := append([]string(nil), c.PayoutOrder...)
	want := append([]string(nil), c.Participants...)
	sort.Strings(got)
	sort.Strings(want)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("payout order %v is not a permutation of %v", c.PayoutOrder, c.Participants)
		}
	}
	if c.CurrentMonth != 0 {
		t.Errorf("new cycle starts at month %d, want 0", c.CurrentMonth)
	}
}

func TestCreate_DropsUnknownAndDuplicateParticipants(t *testing.T) {
	e := newTestEngine(t, "M001", "M002", "M003")
	c, warnings, err := e.Create(context.Background(), core.Money{Cents: 50000}, 6,
		core.NewDate(2026, 3, 1), []string{"M001", "M002", "M001", "M999", "M003"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(c.Participants) != 3 {
		t.Errorf("participants = %v, want 3 kept", c.Participants)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", warnings)
	}
	if !strings.Contains(warnings[0], "M001") || !strings.Contains(warnings[1], "M999") {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	amount := core.Money{Cents: 100000}
	start := core.NewDate(2026, 1, 1)

	tests := []struct {
		name         string
		amount       core.Money
		months       int
		start        core.Date
		participants []string
		want         error
	}{
		{"zero amount", core.Money{}, 3, start, []string{"M001", "M002", "M003"}, core.ErrInvalidAmount},
		{"negative amount", core.Money{Cents: -100}, 3, start, []string{"M001", "M002", "M003"}, core.ErrInvalidAmount},
		{"duration shorter than participants", amount, 2, start, []string{"M001", "M002", "M003"}, core.ErrInvalidDuration},
		{"zero start date", amount, 3, core.Date{}, []string{"M001", "M002", "M003"}, core.ErrInvalidDate},
		{"one participant", amount, 3, start, []string{"M001"}, core.ErrTooFewParticipants},
		{"all participants unknown", amount, 3, start, []string{"M998", "M999"}, core.ErrTooFewParticipants},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, "M001", "M002", "M003")
			_, _, err := e.Create(ctx, tt.amount, tt.months, tt.start, tt.participants)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if got := len(e.List()); got != 0 {
				t.Errorf("rejected create left %d cycles behind", got)
			}
		})
	}
}

func TestCreate_SingleActiveCycle(t *testing.T) {
	e := newTestEngine(t, "M001", "M002", "M003")
	mustCreate(t, e, 3, "M001", "M002", "M003")

	_, _, err := e.Create(context.Background(), core.Money{Cents: 100000}, 3,
		core.NewDate(2026, 2, 1), []string{"M001", "M002", "M003"})
	if !errors.Is(err, core.ErrActiveCycleExists) {
		t.Fatalf("got %v, want ErrActiveCycleExists", err)
	}

	// Finishing the first cycle frees the slot.
	if _, err := e.Terminate(context.Background(), "C001"); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	c := mustCreate(t, e, 3, "M001", "M002", "M003")
	if c.ID != "C002" {
		t.Errorf("second cycle id = %q, want C002", c.ID)
	}
}

func TestAdvance_FinishesAtLastMonth(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, "M001", "M002", "M003")
	c := mustCreate(t, e, 3, "M001", "M002", "M003")

	for month := 1; month <= 3; month++ {
		var err error
		c, err = e.Advance(ctx, c.ID)
		if err != nil {
			t.Fatalf("Advance %d: %v", month, err)
		}
		if c.CurrentMonth != month {
			t.Errorf("after advance %d: current_month = %d", month, c.CurrentMonth)
		}
		wantFinished := month == 3
		if c.Finished != wantFinished {
			t.Errorf("after advance %d: finished = %v, want %v", month, c.Finished, wantFinished)
		}
	}

	if _, err := e.Advance(ctx, c.ID); !errors.Is(err, core.ErrCycleFinished) {
		t.Fatalf("advance past the end: got %v, want ErrCycleFinished", err)
	}
	if _, ok, err := e.Active(); err != nil || ok {
		t.Errorf("Active after finish = (%v, %v), want none", ok, err)
	}
}

func TestSchedule(t *testing.T) {
	e := newTestEngine(t, "M001", "M002", "M003")
	c := mustCreate(t, e, 3, "M001", "M002", "M003")

	if _, err := e.Advance(context.Background(), c.ID); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	schedule, err := e.Schedule(c.ID)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(schedule) != 3 {
		t.Fatalf("schedule length = %d", len(schedule))
	}
	wantStatus := []string{"past", "current", "upcoming"}
	for i, entry := range schedule {
		if entry.Month != i {
			t.Errorf("entry %d month = %d", i, entry.Month)
		}
		if entry.Status != wantStatus[i] {
			t.Errorf("entry %d status = %q, want %q", i, entry.Status, wantStatus[i])
		}
	}

	if _, err := e.Terminate(context.Background(), c.ID); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	schedule, err = e.Schedule(c.ID)
	if err != nil {
		t.Fatalf("Schedule after terminate: %v", err)
	}
	for i, entry := range schedule {
		if entry.Status != "past" {
			t.Errorf("finished cycle entry %d status = %q, want past", i, entry.Status)
		}
	}

	if _, err := e.Schedule("C999"); !errors.Is(err, core.ErrCycleNotFound) {
		t.Errorf("unknown cycle: err = %v", err)
	}
}

func TestTerminate(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, "M001", "M002", "M003")
	c := mustCreate(t, e, 3, "M001", "M002", "M003")

	got, err := e.Terminate(ctx, c.ID)
	if err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if !got.Finished {
		t.Error("cycle not finished after Terminate")
	}
	if _, err := e.Terminate(ctx, c.ID); !errors.Is(err, core.ErrCycleFinished) {
		t.Errorf("second Terminate: got %v, want ErrCycleFinished", err)
	}
	if _, err := e.Terminate(ctx, "C999"); !errors.Is(err, core.ErrCycleNotFound) {
		t.Errorf("unknown cycle: got %v, want ErrCycleNotFound", err)
	}
}

func TestActive_CorruptState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.SaveCycles(ctx, map[string]core.Cycle{
		"C001": {ID: "C001", DurationMonths: 3, Participants: []string{"M001", "M002"}},
		"C002": {ID: "C002", DurationMonths: 3, Participants: []string{"M001", "M002"}},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	e, err := NewEngine(ctx, store, &stubDirectory{}, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, _, err := e.Active(); !errors.Is(err, core.ErrCorruptState) {
		t.Fatalf("got %v, want ErrCorruptState", err)
	}
}

type failingStore struct {
	storage.Store
}

func (f *failingStore) SaveCycles(ctx context.Context, cycles map[string]core.Cycle) error {
	return errors.New("disk full")
}

func TestCreate_SaveFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := &stubDirectory{active: map[string]bool{"M001": true, "M002": true, "M003": true}}
	e, err := NewEngine(ctx, &failingStore{Store: storage.NewMemoryStore()}, dir, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, _, err := e.Create(ctx, core.Money{Cents: 100000}, 3, core.NewDate(2026, 1, 1),
		[]string{"M001", "M002", "M003"}); err == nil {
		t.Fatal("Create should fail when the store cannot save")
	}
	if got := len(e.List()); got != 0 {
		t.Errorf("cycles after failed save = %d, want 0", got)
	}
}

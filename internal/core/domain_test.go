package core

import (
	"encoding/json"
	"testing"
)

func TestCycle_CurrentBeneficiary(t *testing.T) {
	c := Cycle{
		DurationMonths: 4,
		Participants:   []string{"M001", "M002", "M003"},
		PayoutOrder:    []string{"M002", "M003", "M001"},
	}

	got, ok := c.CurrentBeneficiary()
	if !ok || got != "M002" {
		t.Fatalf("month 0 beneficiary = %q, %v", got, ok)
	}

	c.CurrentMonth = 2
	got, ok = c.CurrentBeneficiary()
	if !ok || got != "M001" {
		t.Fatalf("month 2 beneficiary = %q, %v", got, ok)
	}

	// Past the payout order (duration longer than participants): no beneficiary.
	c.CurrentMonth = 3
	if _, ok := c.CurrentBeneficiary(); ok {
		t.Fatal("expected no beneficiary past the payout order")
	}

	c.CurrentMonth = 4
	if _, ok := c.CurrentBeneficiary(); ok {
		t.Fatal("expected no beneficiary on an exhausted cycle")
	}
}

func TestCycle_Validate(t *testing.T) {
	valid := Cycle{
		Contribution:   Money{Cents: 500000},
		DurationMonths: 4,
		StartDate:      NewDate(2026, 1, 1),
		Participants:   []string{"M001", "M002", "M003", "M004"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid cycle rejected: %v", err)
	}

	t.Run("duration shorter than participant count", func(t *testing.T) {
		c := valid
		c.DurationMonths = 3
		if err := c.Validate(); err != ErrInvalidDuration {
			t.Fatalf("expected ErrInvalidDuration, got %v", err)
		}
	})

	t.Run("non-positive contribution", func(t *testing.T) {
		c := valid
		c.Contribution = Money{}
		if err := c.Validate(); err != ErrInvalidAmount {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("too few participants", func(t *testing.T) {
		c := valid
		c.Participants = []string{"M001"}
		c.DurationMonths = 1
		if err := c.Validate(); err != ErrTooFewParticipants {
			t.Fatalf("expected ErrTooFewParticipants, got %v", err)
		}
	})
}

func TestMember_DisplayName(t *testing.T) {
	m := Member{LastName: "Diallo", FirstName: "Awa"}
	if got := m.DisplayName(); got != "Awa Diallo" {
		t.Fatalf("DisplayName = %q", got)
	}
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(2026, 8, 30)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2026-08-30"` {
		t.Fatalf("marshal = %s", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.String() != "2026-08-30" {
		t.Fatalf("round trip = %s", back)
	}
}

func TestNextID(t *testing.T) {
	cases := []struct {
		name     string
		prefix   string
		width    int
		existing []string
		want     string
	}{
		{"empty collection", "C", 3, nil, "C001"},
		{"increments max", "C", 3, []string{"C001", "C003", "C002"}, "C004"},
		{"transactions", "T", 4, []string{"T0001", "T0012"}, "T0013"},
		{"ignores malformed", "T", 4, []string{"T0002", "Txx", "C005"}, "T0003"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextID(tc.prefix, tc.width, tc.existing); got != tc.want {
				t.Fatalf("NextID = %q, want %q", got, tc.want)
			}
		})
	}
}

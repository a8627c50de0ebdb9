package core

import (
	"strings"
	"time"
)

const (
	KindContribution TransactionKind = "contribution"
	// Declared for the record format; the settlement engine only ever
	// produces contribution records, with any penalty embedded in them.
	KindPenalty TransactionKind = "penalty"
	KindPayout  TransactionKind = "payout"
)

type (
	TransactionKind string

	// Date is a day-resolution date serialized as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	// Member is an association member. Members are never deleted, only
	// deactivated; inactive members keep their history and balance.
	Member struct {
		ID        string    `json:"id"`
		LastName  string    `json:"last_name"`
		FirstName string    `json:"first_name"`
		Email     string    `json:"email"`
		Phone     string    `json:"phone"`
		Active    bool      `json:"active"`
		JoinedAt  time.Time `json:"joined_at"`
	}

	// Cycle is one rotation of the tontine: a fixed participant list
	// contributing a fixed amount each month, with a payout order frozen
	// at creation.
	Cycle struct {
		ID             string    `json:"id"`
		Contribution   Money     `json:"contribution_cents"`
		DurationMonths int       `json:"duration_months"`
		StartDate      Date      `json:"start_date"`
		Participants   []string  `json:"participants"`
		PayoutOrder    []string  `json:"payout_order"`
		CurrentMonth   int       `json:"current_month"`
		Finished       bool      `json:"finished"`
		CreatedAt      time.Time `json:"created_at"`
	}

	// Transaction is an immutable cash-flow record. A shortfall penalty is
	// carried on the contribution record itself, never as its own row.
	Transaction struct {
		ID        string          `json:"id"`
		MemberID  string          `json:"member_id"`
		CycleID   string          `json:"cycle_id"`
		Amount    Money           `json:"amount_cents"`
		Kind      TransactionKind `json:"kind"`
		Month     int             `json:"month"`
		Penalty   Money           `json:"penalty_cents"`
		CreatedAt time.Time       `json:"created_at"`
	}
)

// Directory is the read-only member lookup the engines depend on.
type Directory interface {
	ExistsAndActive(id string) bool
	DisplayName(id string) string
	ActiveMemberIDs() []string
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// DisplayName returns the member's presentation name.
func (m Member) DisplayName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.LastName) == "" || strings.TrimSpace(m.FirstName) == "" {
		return ErrEmptyName
	}
	return nil
}

// CurrentBeneficiary returns the participant entitled to this month's pool,
// or false once the cycle is past its last month.
func (c Cycle) CurrentBeneficiary() (string, bool) {
	if c.CurrentMonth < len(c.PayoutOrder) && c.CurrentMonth < c.DurationMonths {
		return c.PayoutOrder[c.CurrentMonth], true
	}
	return "", false
}

// IsParticipant reports whether the member takes part in this cycle.
func (c Cycle) IsParticipant(memberID string) bool {
	for _, id := range c.Participants {
		if id == memberID {
			return true
		}
	}
	return false
}

func (c Cycle) Validate() error {
	if err := c.Contribution.Validate(); err != nil {
		return err
	}
	if c.DurationMonths < len(c.Participants) {
		return ErrInvalidDuration
	}
	if err := c.StartDate.Validate(); err != nil {
		return err
	}
	if len(c.Participants) < 2 {
		return ErrTooFewParticipants
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.MemberID == "" || t.CycleID == "" {
		return ErrInvalidID
	}
	if t.Month < 0 {
		return ErrInvalidMonth
	}
	if t.Penalty.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

package core

// Payment status of a participant for a given cycle month.
const (
	StatusUnpaid  PaymentStatus = "unpaid"
	StatusPartial PaymentStatus = "partial"
	StatusPaid    PaymentStatus = "paid"
)

type PaymentStatus string

// MemberDue is one participant's payment position for the current month.
type MemberDue struct {
	MemberID    string        `json:"member_id"`
	DisplayName string        `json:"display_name"`
	Status      PaymentStatus `json:"status"`
	AmountDue   Money         `json:"amount_due_cents"`
}

// MemberBalance pairs a member with their running balance. The balance is
// decremented by every payment (and penalty), so a regularly paying member
// trends negative; negative reads as "has contributed", not "owes".
type MemberBalance struct {
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	Balance     Money  `json:"balance_cents"`
}

// MonthlyReport aggregates the current month of the active cycle.
type MonthlyReport struct {
	CycleID         string `json:"cycle_id"`
	Month           int    `json:"month"`
	DurationMonths  int    `json:"duration_months"`
	Contributions   int    `json:"contributions"`
	Participants    int    `json:"participants"`
	Collected       Money  `json:"collected_cents"`
	Penalties       Money  `json:"penalties_cents"`
	Expected        Money  `json:"expected_cents"`
	Shortfall       Money  `json:"shortfall_cents"`
	BeneficiaryID   string `json:"beneficiary_id,omitempty"`
	BeneficiaryName string `json:"beneficiary_name,omitempty"`
	Payout          Money  `json:"payout_cents"`
}

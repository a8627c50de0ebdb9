package amqp

import (
	"encoding/json"
	"time"
)

// Event types carried on the ledger queue.
const (
	EventContributionRecorded = "contribution.recorded"
	EventCycleAdvanced        = "cycle.advanced"
)

// LedgerEventMessage is a lightweight notification that something happened in
// the ledger. It carries ids only; the worker loads the full record from the
// store before mirroring it.
type LedgerEventMessage struct {
	Type          string    `json:"type"`
	TransactionID string    `json:"transaction_id,omitempty"`
	CycleID       string    `json:"cycle_id,omitempty"`
	Month         int       `json:"month,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewContributionRecordedMessage creates the event published after a
// contribution was persisted.
func NewContributionRecordedMessage(transactionID, cycleID string, month int) *LedgerEventMessage {
	return &LedgerEventMessage{
		Type:          EventContributionRecorded,
		TransactionID: transactionID,
		CycleID:       cycleID,
		Month:         month,
		Timestamp:     time.Now(),
	}
}

// NewCycleAdvancedMessage creates the event published after a cycle moved to
// a new month.
func NewCycleAdvancedMessage(cycleID string, month int) *LedgerEventMessage {
	return &LedgerEventMessage{
		Type:      EventCycleAdvanced,
		CycleID:   cycleID,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// LedgerEvent signals that the expense ledger changed. It carries only the
// expense ID and action; consumers refetch whatever state they need.
type LedgerEvent struct {
	Action    string    `json:"action"`
	ExpenseID int64     `json:"expense_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event for an expense mutation.
func NewLedgerEvent(action string, expenseID int64) *LedgerEvent {
	return &LedgerEvent{
		Action:    action,
		ExpenseID: expenseID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var event LedgerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

package amqp

import (
	"encoding/json"
	"time"
)

// Mutation kinds carried by transaction events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEventMessage notifies the audit worker of a transaction
// mutation. It carries identifiers only; consumers fetch details from the
// store when they need them.
type TransactionEventMessage struct {
	TransactionID string    `json:"transactionId"`
	UserID        string    `json:"userId"`
	Action        string    `json:"action"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func NewTransactionEventMessage(transactionID, userID, action string) *TransactionEventMessage {
	return &TransactionEventMessage{
		TransactionID: transactionID,
		UserID:        userID,
		Action:        action,
		OccurredAt:    time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON parses a message from JSON bytes.
func TransactionEventFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

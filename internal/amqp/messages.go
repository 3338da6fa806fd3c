package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"expenses/internal/core"
)

// RecordAddedMessage announces a record that has been persisted to the ledger.
// Amount travels as a decimal string to avoid float rounding.
type RecordAddedMessage struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRecordAddedMessage creates a message with a fresh ID.
func NewRecordAddedMessage(r core.Record) *RecordAddedMessage {
	return &RecordAddedMessage{
		ID:          uuid.NewString(),
		Date:        r.Timestamp(),
		Category:    r.Category,
		Description: r.Description,
		Amount:      r.Amount.String(),
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordAddedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

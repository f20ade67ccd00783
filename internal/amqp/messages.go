package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"tiledash/internal/core"
)

// PaymentReminderMessage announces that a tile's payment is due soon.
type PaymentReminderMessage struct {
	TileID    int64      `json:"tileId"`
	Name      string     `json:"name"`
	DueDate   core.Date  `json:"dueDate"`
	DaysUntil int        `json:"daysUntil"`
	Amount    core.Money `json:"amount"`
	Frequency string     `json:"frequency,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewPaymentReminderMessage creates a reminder stamped with the current time.
func NewPaymentReminderMessage(tileID int64, name string, due core.Date, daysUntil int, amount core.Money, freq core.Frequency) *PaymentReminderMessage {
	return &PaymentReminderMessage{
		TileID:    tileID,
		Name:      name,
		DueDate:   due,
		DaysUntil: daysUntil,
		Amount:    amount,
		Frequency: string(freq),
		Timestamp: time.Now(),
	}
}

// Key identifies one payment occurrence of a tile.
func (m *PaymentReminderMessage) Key() string {
	return fmt.Sprintf("%d@%s", m.TileID, m.DueDate)
}

// ToJSON converts the message to JSON bytes
func (m *PaymentReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentReminderMessageFromJSON creates a message from JSON bytes
func PaymentReminderMessageFromJSON(data []byte) (*PaymentReminderMessage, error) {
	var msg PaymentReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

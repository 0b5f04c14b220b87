package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ActionRecorded = "recorded"
	ActionDeleted  = "deleted"
)

// SaleEvent announces a change to the sales journal. It carries enough to
// act on without a database round trip.
type SaleEvent struct {
	Action        string          `json:"action"`
	TransactionID string          `json:"transactionId"`
	ItemName      string          `json:"itemName"`
	Total         decimal.Decimal `json:"total"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewSaleRecorded creates an event for a freshly recorded sale.
func NewSaleRecorded(transactionID, itemName string, total decimal.Decimal) *SaleEvent {
	return &SaleEvent{
		Action:        ActionRecorded,
		TransactionID: transactionID,
		ItemName:      itemName,
		Total:         total,
		Timestamp:     time.Now(),
	}
}

// NewSaleDeleted creates an event for a deleted sale.
func NewSaleDeleted(transactionID string) *SaleEvent {
	return &SaleEvent{
		Action:        ActionDeleted,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (m *SaleEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SaleEventFromJSON creates an event from JSON bytes.
func SaleEventFromJSON(data []byte) (*SaleEvent, error) {
	var msg SaleEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

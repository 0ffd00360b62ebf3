package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
)

const (
	EventChargeCompleted = "charge.completed"
	EventChargeFailed    = "charge.failed"
)

// Event is the provider envelope. Data stays raw until the event type has
// picked its schema.
type Event struct {
	Type string          `json:"event" validate:"required"`
	Data json.RawMessage `json:"data" validate:"required"`
}

// EventData is implemented by every registered payload schema.
type EventData interface {
	Reference() string
}

// TransactionID is the provider's transaction id, sent as a number but
// tolerated as a string.
type TransactionID string

func (t *TransactionID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = TransactionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("transaction id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("transaction id %s is not an integer", n)
	}
	*t = TransactionID(n.String())
	return nil
}

type Customer struct {
	Email string `json:"email"`
}

// ChargeData is the payload of charge.completed and charge.failed.
type ChargeData struct {
	ID          TransactionID `json:"id" validate:"required"`
	TxRef       string        `json:"tx_ref" validate:"required"`
	Status      string        `json:"status"`
	Amount      billing.Money `json:"amount"`
	Currency    string        `json:"currency"`
	PaymentType string        `json:"payment_type"`
	Customer    Customer      `json:"customer"`
	Processor   string        `json:"processor_response"`
}

func (c *ChargeData) Reference() string { return c.TxRef }

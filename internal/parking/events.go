package parking

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
)

const (
	EventReservationConfirmed = "ReservationConfirmed"
	EventPaymentFailed        = "PaymentFailed"
	EventCheckoutCompleted    = "CheckoutCompleted"
	EventReconcileRequested   = "ReconcileRequested"
)

const (
	TopicReservationConfirmed = "parking.reservation.confirmed"
	TopicPaymentFailed        = "parking.payment.failed"
	TopicCheckoutCompleted    = "parking.checkout.completed"
	TopicReconcileRequested   = "parking.reconcile.requested"
)

// PartitionKey keeps every event of one space on one partition.
func PartitionKey(spaceNumber string) []byte { return []byte(spaceNumber) }

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // space number
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, producer, correlationID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

type ReservationConfirmedPayload struct {
	ReservationID string        `json:"reservation_id"`
	PaymentID     string        `json:"payment_id"`
	SpaceNumber   string        `json:"space_number"`
	Charge        billing.Money `json:"charge"`
}

type PaymentFailedPayload struct {
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason,omitempty"`
}

type CheckoutCompletedPayload struct {
	ReservationID string        `json:"reservation_id"`
	SpaceNumber   string        `json:"space_number"`
	BillID        string        `json:"bill_id"`
	Charge        billing.Money `json:"charge"`
}

const (
	ReconcileCheckout = "checkout"
	ReconcileConfirm  = "confirm"
)

// ReconcileRequestedPayload asks the reconciler to replay a partially
// applied saga step.
type ReconcileRequestedPayload struct {
	Kind          string        `json:"kind"`
	PaymentID     string        `json:"payment_id,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	Checkout      *CheckoutPlan `json:"checkout,omitempty"`
	Reason        string        `json:"reason,omitempty"`
}

package parking

import (
	"context"
	"time"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
)

type SpaceStore interface {
	GetSpace(ctx context.Context, spaceNumber string) (*Space, error)
	ListAvailable(ctx context.Context, limit int, after string) (SpacePage, error)
	// ReserveSpace marks the space reserved by holder. It succeeds when the
	// space is free or already held by holder, otherwise ErrConditionFailed.
	ReserveSpace(ctx context.Context, spaceNumber, holder string, at time.Time) error
	// ReleaseSpace frees the space when it is held by holder or already free,
	// otherwise ErrConditionFailed.
	ReleaseSpace(ctx context.Context, spaceNumber, holder string, at time.Time) error
}

type PaymentStore interface {
	// CreatePayment fails with ErrAlreadyExists when the id is taken.
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
	// TransitionPayment moves the payment to "to" only if its current status
	// is one of from. A mismatch yields ErrConditionFailed.
	TransitionPayment(ctx context.Context, id string, from []PaymentStatus, to PaymentStatus, upd PaymentUpdate) (*Payment, error)
}

type ReservationStore interface {
	// CreateReservation fails with ErrAlreadyExists when the id is taken.
	CreateReservation(ctx context.Context, r *Reservation) error
	GetReservation(ctx context.Context, id string) (*Reservation, error)
	FindActiveBySpace(ctx context.Context, spaceNumber string) (*Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
}

type HistoryStore interface {
	// ArchiveReservation fails with ErrAlreadyExists when already archived.
	ArchiveReservation(ctx context.Context, h *ReservationHistory) error
	GetHistory(ctx context.Context, id string) (*ReservationHistory, error)
}

// Store bundles the four tables the orchestrators work on.
type Store interface {
	SpaceStore
	PaymentStore
	ReservationStore
	HistoryStore
}

type InitiateRequest struct {
	Amount      billing.Money
	Email       string
	PaymentID   string
	RedirectURL string
}

type InitiateResult struct {
	PaymentLink string `json:"paymentLink"`
	Reference   string `json:"reference"`
}

type Verification struct {
	Status        string        `json:"status"`
	Amount        billing.Money `json:"amount"`
	Currency      string        `json:"currency"`
	Reference     string        `json:"reference"`
	PaymentMethod string        `json:"paymentMethod"`
	Message       string        `json:"message,omitempty"`
}

func (v *Verification) Successful() bool { return v.Status == "successful" }

// Gateway is the outbound card-payment processor.
type Gateway interface {
	InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	VerifyPayment(ctx context.Context, transactionID string) (*Verification, error)
}

// Publisher emits domain events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, topic string, ev Envelope)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, Envelope) {}

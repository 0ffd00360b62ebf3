package parking

import (
	"time"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
)

type SpaceStatus string

const (
	SpaceAvailable   SpaceStatus = "available"
	SpaceReserved    SpaceStatus = "reserved"
	SpaceMaintenance SpaceStatus = "maintenance"
)

type Space struct {
	SpaceNumber     string      `json:"spaceNumber"`
	Reserved        bool        `json:"reserved"`
	Status          SpaceStatus `json:"status"`
	ReservedBy      string      `json:"-"` // payment id holding the space
	ReservationDate *time.Time  `json:"reservationDate,omitempty"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// Reservable reports whether a new reservation may be requested for s.
func (s *Space) Reservable() bool {
	return !s.Reserved && s.Status == SpaceAvailable
}

type PaymentPurpose string

const (
	PurposeReservation PaymentPurpose = "reservation"
	PurposeCheckout    PaymentPurpose = "checkout"
)

type Payment struct {
	ID            string         `json:"id"`
	Purpose       PaymentPurpose `json:"purpose"`
	SpaceNumber   string         `json:"spaceNumber"`
	UserEmail     string         `json:"userEmail"`
	ReserveTime   time.Time      `json:"reserveTime"`
	CheckoutTime  time.Time      `json:"checkoutTime"`
	Charge        billing.Money  `json:"charge"`
	Status        PaymentStatus  `json:"paymentStatus"`
	ReservationID string         `json:"reservationId,omitempty"`
	TransactionID string         `json:"transactionId,omitempty"`
	PaymentMethod string         `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// PaymentUpdate carries the optional fields written with a status transition.
type PaymentUpdate struct {
	TransactionID string
	PaymentMethod string
	At            time.Time
}

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCompleted ReservationStatus = "completed"
)

type Reservation struct {
	ID           string            `json:"id"`
	PaymentID    string            `json:"paymentId"`
	SpaceNumber  string            `json:"spaceNumber"`
	UserEmail    string            `json:"userEmail"`
	ReserveTime  time.Time         `json:"reserveTime"`
	CheckoutTime time.Time         `json:"checkoutTime"`
	Status       ReservationStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// ReservationHistory is the archived copy of a checked-out reservation.
// ID equals the original reservation id.
type ReservationHistory struct {
	Reservation
	RequestedCheckoutTime time.Time     `json:"requestedCheckoutTime"`
	Charge                billing.Money `json:"charge"`
	BillID                string        `json:"billId"`
	ArchivedAt            time.Time     `json:"archivedAt"`
}

// SpacePage is one page of available spaces. Next is the last key of the
// page, empty when the listing is exhausted.
type SpacePage struct {
	Items []Space
	Next  string
}

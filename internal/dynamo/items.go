package dynamo

import (
	"time"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
)

type spaceItem struct {
	SpaceNumber     string     `dynamodbav:"space_no"`
	Reserved        bool       `dynamodbav:"reserved"`
	Status          string     `dynamodbav:"status"`
	ReservedBy      string     `dynamodbav:"reserved_by,omitempty"`
	ReservationDate *time.Time `dynamodbav:"reservation_date,omitempty"`
	UpdatedAt       time.Time  `dynamodbav:"updated_at"`
}

func (it spaceItem) toSpace() *parking.Space {
	status := parking.SpaceStatus(it.Status)
	if status == "" {
		// older rows only carry the reserved flag
		status = parking.SpaceAvailable
		if it.Reserved {
			status = parking.SpaceReserved
		}
	}
	return &parking.Space{
		SpaceNumber:     it.SpaceNumber,
		Reserved:        it.Reserved,
		Status:          status,
		ReservedBy:      it.ReservedBy,
		ReservationDate: it.ReservationDate,
		UpdatedAt:       it.UpdatedAt,
	}
}

type paymentItem struct {
	ID            string    `dynamodbav:"id"`
	Purpose       string    `dynamodbav:"purpose"`
	SpaceNumber   string    `dynamodbav:"space_no"`
	UserEmail     string    `dynamodbav:"userEmail"`
	ReserveTime   time.Time `dynamodbav:"reserveTime"`
	CheckoutTime  time.Time `dynamodbav:"checkoutTime"`
	ChargeMinor   int64     `dynamodbav:"charge_minor"`
	Status        string    `dynamodbav:"paymentStatus"`
	ReservationID string    `dynamodbav:"reservationId,omitempty"`
	TransactionID string    `dynamodbav:"transactionId,omitempty"`
	PaymentMethod string    `dynamodbav:"paymentMethod,omitempty"`
	CreatedAt     time.Time `dynamodbav:"createdAt"`
	UpdatedAt     time.Time `dynamodbav:"updatedAt"`
}

func paymentToItem(p *parking.Payment) paymentItem {
	return paymentItem{
		ID:            p.ID,
		Purpose:       string(p.Purpose),
		SpaceNumber:   p.SpaceNumber,
		UserEmail:     p.UserEmail,
		ReserveTime:   p.ReserveTime,
		CheckoutTime:  p.CheckoutTime,
		ChargeMinor:   int64(p.Charge),
		Status:        string(p.Status),
		ReservationID: p.ReservationID,
		TransactionID: p.TransactionID,
		PaymentMethod: p.PaymentMethod,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (it paymentItem) toPayment() *parking.Payment {
	return &parking.Payment{
		ID:            it.ID,
		Purpose:       parking.PaymentPurpose(it.Purpose),
		SpaceNumber:   it.SpaceNumber,
		UserEmail:     it.UserEmail,
		ReserveTime:   it.ReserveTime,
		CheckoutTime:  it.CheckoutTime,
		Charge:        billing.Money(it.ChargeMinor),
		Status:        parking.PaymentStatus(it.Status),
		ReservationID: it.ReservationID,
		TransactionID: it.TransactionID,
		PaymentMethod: it.PaymentMethod,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}
}

type reservationItem struct {
	ID           string    `dynamodbav:"id"`
	PaymentID    string    `dynamodbav:"paymentId"`
	SpaceNumber  string    `dynamodbav:"space_no"`
	UserEmail    string    `dynamodbav:"userEmail"`
	ReserveTime  time.Time `dynamodbav:"reserveTime"`
	CheckoutTime time.Time `dynamodbav:"checkoutTime"`
	Status       string    `dynamodbav:"status"`
	CreatedAt    time.Time `dynamodbav:"createdAt"`
}

func reservationToItem(r *parking.Reservation) reservationItem {
	return reservationItem{
		ID:           r.ID,
		PaymentID:    r.PaymentID,
		SpaceNumber:  r.SpaceNumber,
		UserEmail:    r.UserEmail,
		ReserveTime:  r.ReserveTime,
		CheckoutTime: r.CheckoutTime,
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt,
	}
}

func (it reservationItem) toReservation() parking.Reservation {
	return parking.Reservation{
		ID:           it.ID,
		PaymentID:    it.PaymentID,
		SpaceNumber:  it.SpaceNumber,
		UserEmail:    it.UserEmail,
		ReserveTime:  it.ReserveTime,
		CheckoutTime: it.CheckoutTime,
		Status:       parking.ReservationStatus(it.Status),
		CreatedAt:    it.CreatedAt,
	}
}

type historyItem struct {
	ID                    string    `dynamodbav:"id"`
	PaymentID             string    `dynamodbav:"paymentId"`
	SpaceNumber           string    `dynamodbav:"space_no"`
	UserEmail             string    `dynamodbav:"userEmail"`
	ReserveTime           time.Time `dynamodbav:"reserveTime"`
	CheckoutTime          time.Time `dynamodbav:"checkoutTime"`
	RequestedCheckoutTime time.Time `dynamodbav:"requestedCheckoutTime"`
	Status                string    `dynamodbav:"status"`
	ChargeMinor           int64     `dynamodbav:"charge_minor"`
	BillID                string    `dynamodbav:"billId"`
	CreatedAt             time.Time `dynamodbav:"createdAt"`
	ArchivedAt            time.Time `dynamodbav:"archivedAt"`
}

func historyToItem(h *parking.ReservationHistory) historyItem {
	return historyItem{
		ID:                    h.ID,
		PaymentID:             h.PaymentID,
		SpaceNumber:           h.SpaceNumber,
		UserEmail:             h.UserEmail,
		ReserveTime:           h.ReserveTime,
		CheckoutTime:          h.CheckoutTime,
		RequestedCheckoutTime: h.RequestedCheckoutTime,
		Status:                string(h.Status),
		ChargeMinor:           int64(h.Charge),
		BillID:                h.BillID,
		CreatedAt:             h.CreatedAt,
		ArchivedAt:            h.ArchivedAt,
	}
}

func (it historyItem) toHistory() *parking.ReservationHistory {
	return &parking.ReservationHistory{
		Reservation: parking.Reservation{
			ID:           it.ID,
			PaymentID:    it.PaymentID,
			SpaceNumber:  it.SpaceNumber,
			UserEmail:    it.UserEmail,
			ReserveTime:  it.ReserveTime,
			CheckoutTime: it.CheckoutTime,
			Status:       parking.ReservationStatus(it.Status),
			CreatedAt:    it.CreatedAt,
		},
		RequestedCheckoutTime: it.RequestedCheckoutTime,
		Charge:                billing.Money(it.ChargeMinor),
		BillID:                it.BillID,
		ArchivedAt:            it.ArchivedAt,
	}
}

package parking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
)

type PayRequest struct {
	PaymentID   string `json:"paymentId" validate:"required"`
	RedirectURL string `json:"redirectUrl" validate:"omitempty,url"`
}

type PaymentLink struct {
	PaymentLink string        `json:"paymentLink"`
	Reference   string        `json:"reference"`
	Amount      billing.Money `json:"amount"`
}

// ProcessPayment moves the payment to processing and asks the gateway for a
// hosted payment link. A settled payment cannot be paid again.
func (s *Service) ProcessPayment(ctx context.Context, req PayRequest) (_ *PaymentLink, err error) {
	ctx, span := tracer.Start(ctx, "parking.ProcessPayment")
	defer func() { endSpan(span, err) }()

	req.PaymentID = strings.TrimSpace(req.PaymentID)
	if err := validate.Struct(req); err != nil {
		return nil, ValidationError("Validation failed", validationDetails(err)...)
	}
	span.SetAttributes(attribute.String("payment_id", req.PaymentID))

	p, err := s.Store.GetPayment(ctx, req.PaymentID)
	if err != nil {
		return nil, storeErr(err, "Payment", "get payment")
	}
	if err := settledConflict(p); err != nil {
		return nil, err
	}

	p, err = s.Store.TransitionPayment(ctx, p.ID, sourcesOf(PaymentProcessing), PaymentProcessing,
		PaymentUpdate{At: s.now()})
	if errors.Is(err, ErrConditionFailed) {
		// settled between the read and the write
		cur, gerr := s.Store.GetPayment(ctx, req.PaymentID)
		if gerr != nil {
			return nil, storeErr(gerr, "Payment", "get payment")
		}
		if err := settledConflict(cur); err != nil {
			return nil, err
		}
		return nil, ConflictError("Payment " + req.PaymentID + " changed concurrently")
	}
	if err != nil {
		return nil, storeErr(err, "Payment", "update payment status")
	}

	redirect := req.RedirectURL
	if redirect == "" {
		redirect = s.RedirectURL
	}
	res, err := s.Gateway.InitiatePayment(ctx, InitiateRequest{
		Amount:      p.Charge,
		Email:       p.UserEmail,
		PaymentID:   p.ID,
		RedirectURL: redirect,
	})
	if err != nil {
		return nil, err
	}

	s.logger().InfoContext(ctx, "payment initiated", "payment_id", p.ID, "reference", res.Reference)
	return &PaymentLink{PaymentLink: res.PaymentLink, Reference: res.Reference, Amount: p.Charge}, nil
}

func settledConflict(p *Payment) error {
	switch p.Status {
	case PaymentSuccessful:
		return ConflictError("Payment already processed successfully")
	case PaymentFailed:
		return ConflictError("Payment has failed, request a new reservation")
	}
	return nil
}

func (s *Service) GetPayment(ctx context.Context, id string) (*Payment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ValidationError("Validation failed", "paymentId is required")
	}
	p, err := s.Store.GetPayment(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Payment", "get payment")
	}
	return p, nil
}

type Confirmation struct {
	TransactionID string
	PaymentMethod string
}

type ConfirmResult struct {
	Payment     *Payment
	Reservation *Reservation // nil for checkout bills
	Duplicate   bool
}

// ConfirmPayment settles a payment the gateway has verified. For a
// reservation payment it also reserves the space and records the active
// reservation. Every write is conditional, so a replay after a partial
// failure finishes the remaining writes and a replay after success changes
// nothing.
func (s *Service) ConfirmPayment(ctx context.Context, paymentID string, c Confirmation) (_ *ConfirmResult, err error) {
	ctx, span := tracer.Start(ctx, "parking.ConfirmPayment")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("payment_id", paymentID))

	p, err := s.Store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, storeErr(err, "Payment", "get payment")
	}

	dup := p.Status == PaymentSuccessful
	if !dup {
		p, err = s.Store.TransitionPayment(ctx, paymentID, sourcesOf(PaymentSuccessful), PaymentSuccessful,
			PaymentUpdate{TransactionID: c.TransactionID, PaymentMethod: c.PaymentMethod, At: s.now()})
		switch {
		case errors.Is(err, ErrConditionFailed):
			p, err = s.Store.GetPayment(ctx, paymentID)
			if err != nil {
				return nil, storeErr(err, "Payment", "get payment")
			}
			if p.Status != PaymentSuccessful {
				return nil, ConflictError(fmt.Sprintf("Payment %s cannot move from %s to successful", paymentID, p.Status))
			}
			dup = true
		case err != nil:
			return nil, storeErr(err, "Payment", "update payment status")
		}
	}

	if p.Purpose == PurposeCheckout {
		return &ConfirmResult{Payment: p, Duplicate: dup}, nil
	}

	rid := ReservationIDFor(p.ID)
	if dup {
		// already checked out: replaying the confirm must not reserve again
		h, err := s.Store.GetHistory(ctx, rid)
		if err == nil {
			r := h.Reservation
			return &ConfirmResult{Payment: p, Reservation: &r, Duplicate: true}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, storeErr(err, "Reservation history", "get reservation history")
		}
	}

	r, created, err := s.holdSpace(ctx, p, rid)
	if err != nil {
		var de *Error
		if errors.As(err, &de) && de.Kind == KindDatabase {
			s.requestReconcile(ctx, p.SpaceNumber, ReconcileRequestedPayload{
				Kind:          ReconcileConfirm,
				PaymentID:     p.ID,
				TransactionID: c.TransactionID,
				PaymentMethod: c.PaymentMethod,
				Reason:        err.Error(),
			})
		}
		return nil, err
	}

	if created {
		s.logger().InfoContext(ctx, "reservation confirmed",
			"payment_id", p.ID, "reservation_id", r.ID, "space_number", r.SpaceNumber)
		s.publish(ctx, TopicReservationConfirmed, EventReservationConfirmed, r.SpaceNumber, ReservationConfirmedPayload{
			ReservationID: r.ID,
			PaymentID:     p.ID,
			SpaceNumber:   r.SpaceNumber,
			Charge:        p.Charge,
		})
	}
	return &ConfirmResult{Payment: p, Reservation: r, Duplicate: dup && !created}, nil
}

// holdSpace reserves the space for p and records the active reservation.
// created reports whether this call wrote the reservation.
func (s *Service) holdSpace(ctx context.Context, p *Payment, rid string) (_ *Reservation, created bool, _ error) {
	// a checkout that freed the space but has not yet removed its
	// reservation leaves the space looking free
	active, err := s.Store.FindActiveBySpace(ctx, p.SpaceNumber)
	switch {
	case err == nil && active.ID != rid:
		s.logger().ErrorContext(ctx, "paid reservation blocked by active reservation",
			"payment_id", p.ID, "space_number", p.SpaceNumber, "reservation_id", active.ID)
		return nil, false, ConflictError(fmt.Sprintf("Parking space %s already has an active reservation", p.SpaceNumber))
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, false, DatabaseError("find active reservation", err)
	}

	now := s.now()
	err = s.Store.ReserveSpace(ctx, p.SpaceNumber, p.ID, now)
	switch {
	case errors.Is(err, ErrConditionFailed):
		s.logger().ErrorContext(ctx, "paid reservation lost the space to another payment",
			"payment_id", p.ID, "space_number", p.SpaceNumber)
		return nil, false, ConflictError(fmt.Sprintf("Parking space %s is no longer available", p.SpaceNumber))
	case err != nil:
		return nil, false, storeErr(err, "Parking space "+p.SpaceNumber, "reserve parking space")
	}

	r := &Reservation{
		ID:           rid,
		PaymentID:    p.ID,
		SpaceNumber:  p.SpaceNumber,
		UserEmail:    p.UserEmail,
		ReserveTime:  p.ReserveTime,
		CheckoutTime: p.CheckoutTime,
		Status:       ReservationActive,
		CreatedAt:    now,
	}
	err = s.Store.CreateReservation(ctx, r)
	switch {
	case err == nil:
		return r, true, nil
	case errors.Is(err, ErrAlreadyExists):
		prev, err := s.Store.GetReservation(ctx, rid)
		if err != nil {
			return nil, false, storeErr(err, "Reservation", "get reservation")
		}
		return prev, false, nil
	case errors.Is(err, ErrConditionFailed):
		// lost to another active reservation: give the space back
		if rerr := s.Store.ReleaseSpace(ctx, p.SpaceNumber, p.ID, now); rerr != nil {
			s.logger().ErrorContext(ctx, "release space after lost reservation",
				"payment_id", p.ID, "space_number", p.SpaceNumber, "error", rerr)
		}
		return nil, false, ConflictError(fmt.Sprintf("Parking space %s already has an active reservation", p.SpaceNumber))
	default:
		return nil, false, DatabaseError("create reservation", err)
	}
}

// FailPayment records a failed charge. It never downgrades a settled
// payment and is a no-op for one already failed.
func (s *Service) FailPayment(ctx context.Context, paymentID, transactionID, reason string) (_ *Payment, err error) {
	ctx, span := tracer.Start(ctx, "parking.FailPayment")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("payment_id", paymentID))

	p, err := s.Store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, storeErr(err, "Payment", "get payment")
	}
	if p.Status.Terminal() {
		if p.Status == PaymentSuccessful {
			s.logger().WarnContext(ctx, "ignoring failure for settled payment", "payment_id", p.ID)
		}
		return p, nil
	}

	p, err = s.Store.TransitionPayment(ctx, paymentID, sourcesOf(PaymentFailed), PaymentFailed,
		PaymentUpdate{TransactionID: transactionID, At: s.now()})
	if errors.Is(err, ErrConditionFailed) {
		return s.GetPayment(ctx, paymentID)
	}
	if err != nil {
		return nil, storeErr(err, "Payment", "update payment status")
	}

	s.logger().InfoContext(ctx, "payment failed", "payment_id", p.ID, "reason", reason)
	s.publish(ctx, TopicPaymentFailed, EventPaymentFailed, p.SpaceNumber, PaymentFailedPayload{
		PaymentID:     p.ID,
		TransactionID: transactionID,
		Reason:        reason,
	})
	return p, nil
}

func (s *Service) requestReconcile(ctx context.Context, spaceNumber string, p ReconcileRequestedPayload) {
	s.logger().WarnContext(ctx, "saga step incomplete, requesting reconcile",
		"kind", p.Kind, "space_number", spaceNumber, "reason", p.Reason)
	s.publish(ctx, TopicReconcileRequested, EventReconcileRequested, spaceNumber, p)
}

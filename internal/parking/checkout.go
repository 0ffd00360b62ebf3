package parking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
)

type CheckoutRequest struct {
	SpaceNumber   string `json:"spaceNumber" validate:"required_without=ReservationID,omitempty,alphanum,len=2"`
	ReservationID string `json:"reservationId" validate:"required_without=SpaceNumber,omitempty,uuid"`
}

// CheckoutPlan is everything needed to finish a checkout. It is computed
// once and replayed unchanged by the reconciler, so the bill, the freed
// space and the archived reservation always agree.
type CheckoutPlan struct {
	Reservation  Reservation   `json:"reservation"`
	CheckoutTime time.Time     `json:"checkout_time"`
	Charge       billing.Money `json:"charge"`
	BillID       string        `json:"bill_id"`
}

type CheckoutResult struct {
	Reservation *ReservationHistory `json:"reservation"`
	Charge      billing.Money       `json:"charge"`
	PaymentID   string              `json:"paymentId"`
}

// CheckOut ends the active reservation, bills the actual time parked and
// frees the space.
func (s *Service) CheckOut(ctx context.Context, req CheckoutRequest) (_ *CheckoutResult, err error) {
	ctx, span := tracer.Start(ctx, "parking.CheckOut")
	defer func() { endSpan(span, err) }()

	req.SpaceNumber = strings.ToUpper(strings.TrimSpace(req.SpaceNumber))
	req.ReservationID = strings.TrimSpace(req.ReservationID)
	if err := validate.Struct(req); err != nil {
		return nil, ValidationError("Validation failed", validationDetails(err)...)
	}

	r, err := s.activeReservation(ctx, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("reservation_id", r.ID),
		attribute.String("space_number", r.SpaceNumber),
	)
	if r.Status != ReservationActive {
		return nil, ConflictError(fmt.Sprintf("Reservation %s is not active", r.ID))
	}

	now := s.now()
	plan := CheckoutPlan{
		Reservation:  *r,
		CheckoutTime: now,
		Charge:       s.Billing.Charge(r.ReserveTime, now),
		BillID:       BillIDFor(r.ID),
	}

	hist, err := s.finishCheckout(ctx, plan)
	if err != nil {
		s.requestReconcile(ctx, r.SpaceNumber, ReconcileRequestedPayload{
			Kind:     ReconcileCheckout,
			Checkout: &plan,
			Reason:   err.Error(),
		})
		return nil, DatabaseError("checkout", err)
	}

	s.logger().InfoContext(ctx, "checked out",
		"reservation_id", r.ID, "space_number", r.SpaceNumber,
		"bill_id", hist.BillID, "charge", hist.Charge.String())
	s.publish(ctx, TopicCheckoutCompleted, EventCheckoutCompleted, r.SpaceNumber, CheckoutCompletedPayload{
		ReservationID: r.ID,
		SpaceNumber:   r.SpaceNumber,
		BillID:        hist.BillID,
		Charge:        hist.Charge,
	})

	return &CheckoutResult{Reservation: hist, Charge: hist.Charge, PaymentID: hist.BillID}, nil
}

func (s *Service) activeReservation(ctx context.Context, req CheckoutRequest) (*Reservation, error) {
	if req.ReservationID == "" {
		r, err := s.Store.FindActiveBySpace(ctx, req.SpaceNumber)
		if err != nil {
			return nil, storeErr(err, "Active reservation for space "+req.SpaceNumber, "find active reservation")
		}
		return r, nil
	}

	r, err := s.Store.GetReservation(ctx, req.ReservationID)
	if err != nil {
		return nil, storeErr(err, "Reservation "+req.ReservationID, "get reservation")
	}
	if req.SpaceNumber != "" && r.SpaceNumber != req.SpaceNumber {
		return nil, ValidationError("Validation failed",
			fmt.Sprintf("reservation %s is not for space %s", r.ID, req.SpaceNumber))
	}
	return r, nil
}

// finishCheckout writes the bill, then frees the space and archives the
// reservation concurrently. Each write tolerates having already happened.
// The stored bill wins: when another checkout of the same reservation billed
// first, its charge and checkout time are used for everything after.
func (s *Service) finishCheckout(ctx context.Context, plan CheckoutPlan) (*ReservationHistory, error) {
	r := plan.Reservation
	bill := &Payment{
		ID:            plan.BillID,
		Purpose:       PurposeCheckout,
		SpaceNumber:   r.SpaceNumber,
		UserEmail:     r.UserEmail,
		ReserveTime:   r.ReserveTime,
		CheckoutTime:  plan.CheckoutTime,
		Charge:        plan.Charge,
		Status:        PaymentUnsuccessful,
		ReservationID: r.ID,
		CreatedAt:     plan.CheckoutTime,
		UpdatedAt:     plan.CheckoutTime,
	}
	err := s.Store.CreatePayment(ctx, bill)
	switch {
	case errors.Is(err, ErrAlreadyExists):
		stored, err := s.Store.GetPayment(ctx, plan.BillID)
		if err != nil {
			return nil, fmt.Errorf("read bill: %w", err)
		}
		if stored.Charge != plan.Charge {
			s.logger().WarnContext(ctx, "reservation already billed, keeping stored charge",
				"reservation_id", r.ID, "bill_id", plan.BillID,
				"stored_charge", stored.Charge.String(), "charge", plan.Charge.String())
		}
		plan.Charge = stored.Charge
		plan.CheckoutTime = stored.CheckoutTime
	case err != nil:
		return nil, fmt.Errorf("write bill: %w", err)
	}

	archived := r
	archived.Status = ReservationCompleted
	archived.CheckoutTime = plan.CheckoutTime
	hist := &ReservationHistory{
		Reservation:           archived,
		RequestedCheckoutTime: r.CheckoutTime,
		Charge:                plan.Charge,
		BillID:                plan.BillID,
		ArchivedAt:            plan.CheckoutTime,
	}

	// Not errgroup.WithContext: a failed write must not cancel the others.
	var g errgroup.Group
	g.Go(func() error {
		err := s.Store.ReleaseSpace(ctx, r.SpaceNumber, r.PaymentID, plan.CheckoutTime)
		if errors.Is(err, ErrConditionFailed) {
			s.logger().WarnContext(ctx, "space already taken by another payment, leaving it",
				"space_number", r.SpaceNumber, "reservation_id", r.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("release space: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.Store.ArchiveReservation(ctx, hist); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("archive reservation: %w", err)
		}
		if err := s.Store.DeleteReservation(ctx, r.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete reservation: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hist, nil
}

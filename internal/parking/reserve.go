package parking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
)

type ReservationRequest struct {
	SpaceNumber  string `json:"spaceNumber" validate:"required,alphanum,len=2"`
	CheckoutTime string `json:"checkoutTime" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
}

type ReservationQuote struct {
	Charge       billing.Money `json:"charge"`
	PaymentID    string        `json:"paymentId"`
	SpaceNumber  string        `json:"spaceNumber"`
	CheckoutTime time.Time     `json:"checkoutTime"`
}

// MakeReservation prices a stay on a free space and records the payment that
// will hold it. The space itself is only reserved once the payment settles.
func (s *Service) MakeReservation(ctx context.Context, req ReservationRequest) (_ *ReservationQuote, err error) {
	ctx, span := tracer.Start(ctx, "parking.MakeReservation")
	defer func() { endSpan(span, err) }()

	req.SpaceNumber = strings.ToUpper(strings.TrimSpace(req.SpaceNumber))
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, ValidationError("Validation failed", validationDetails(err)...)
	}
	span.SetAttributes(attribute.String("space_number", req.SpaceNumber))

	now := s.now()
	checkout, err := ParseTimestamp(req.CheckoutTime, now.Location())
	if err != nil {
		return nil, ValidationError("Invalid checkoutTime format", err.Error())
	}
	if err := s.validateWindow(now, checkout); err != nil {
		return nil, err
	}

	space, err := s.Store.GetSpace(ctx, req.SpaceNumber)
	if err != nil {
		return nil, storeErr(err, "Parking space "+req.SpaceNumber, "get parking space")
	}
	if !space.Reservable() {
		return nil, ConflictError(fmt.Sprintf("Parking space %s is not available", req.SpaceNumber))
	}

	// A free space with an active reservation is a checkout that has not
	// finished; refuse until the reconciler repairs it.
	stale, err := s.Store.FindActiveBySpace(ctx, req.SpaceNumber)
	switch {
	case err == nil:
		s.logger().WarnContext(ctx, "space free but still referenced by an active reservation",
			"space_number", req.SpaceNumber, "reservation_id", stale.ID)
		return nil, ConflictError(fmt.Sprintf("Parking space %s is not available", req.SpaceNumber))
	case !errors.Is(err, ErrNotFound):
		return nil, storeErr(err, "Reservation", "find active reservation")
	}

	charge := s.Billing.Charge(now, checkout)
	p := &Payment{
		ID:           uuid.NewString(),
		Purpose:      PurposeReservation,
		SpaceNumber:  req.SpaceNumber,
		UserEmail:    req.Email,
		ReserveTime:  now,
		CheckoutTime: checkout,
		Charge:       charge,
		Status:       PaymentUnprocessed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.CreatePayment(ctx, p); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, ConflictError("Payment " + p.ID + " already exists")
		}
		return nil, storeErr(err, "Payment", "create payment")
	}

	s.logger().InfoContext(ctx, "reservation quoted",
		"payment_id", p.ID, "space_number", p.SpaceNumber, "charge", charge.String())

	return &ReservationQuote{
		Charge:       charge,
		PaymentID:    p.ID,
		SpaceNumber:  p.SpaceNumber,
		CheckoutTime: checkout,
	}, nil
}

func (s *Service) validateWindow(now, checkout time.Time) error {
	lim := s.limits()
	ahead := checkout.Sub(now)
	switch {
	case ahead <= 0:
		return ValidationError("Checkout time cannot be in the past")
	case ahead > lim.MaxReservation:
		return ValidationError(fmt.Sprintf("Reservation time cannot exceed %s from now", humanDuration(lim.MaxReservation)))
	case ahead < lim.MinReservation:
		return ValidationError(fmt.Sprintf("Minimum reservation time is %s", humanDuration(lim.MinReservation)))
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTimestamp accepts ISO-8601 timestamps; zone-less values are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range timestampLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 timestamp", s)
}

func humanDuration(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}

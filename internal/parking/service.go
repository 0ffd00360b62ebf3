// Package parking implements the reservation lifecycle: quoting and
// recording a reservation, driving its payment, confirming it from the
// payment provider and checking the space out again.
package parking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
)

var tracer = otel.Tracer("github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking")

var validate = validator.New(validator.WithRequiredStructEnabled())

// idNamespace seeds ids derived from other ids, so replays of the same saga
// step address the same records.
var idNamespace = uuid.MustParse("6f1c2a4e-9b0d-4c55-8a51-0d8f3e7a2b19")

func ReservationIDFor(paymentID string) string {
	return uuid.NewSHA1(idNamespace, []byte("reservation:"+paymentID)).String()
}

func BillIDFor(reservationID string) string {
	return uuid.NewSHA1(idNamespace, []byte("bill:"+reservationID)).String()
}

type Limits struct {
	MinReservation time.Duration
	MaxReservation time.Duration
}

var DefaultLimits = Limits{MinReservation: 10 * time.Minute, MaxReservation: 24 * time.Hour}

type Service struct {
	Store       Store
	Gateway     Gateway
	Billing     *billing.Engine
	Events      Publisher
	Log         *slog.Logger
	Location    *time.Location
	Limits      Limits
	RedirectURL string // used when /pay carries none
	ServiceName string

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s *Service) limits() Limits {
	if s.Limits == (Limits{}) {
		return DefaultLimits
	}
	return s.Limits
}

func (s *Service) publish(ctx context.Context, topic, eventType, correlationID string, payload any) {
	pub := s.Events
	if pub == nil {
		pub = nopPublisher{}
	}
	ev, err := NewEnvelope(eventType, s.ServiceName, correlationID, payload)
	if err != nil {
		s.logger().ErrorContext(ctx, "encode event", "event_type", eventType, "error", err)
		return
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		ev.TraceID = sc.TraceID().String()
	}
	pub.Publish(ctx, topic, ev)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// storeErr converts a store failure into the domain taxonomy.
func storeErr(err error, resource, op string) error {
	var de *Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, ErrNotFound):
		return NotFoundError(resource)
	default:
		return DatabaseError(op, err)
	}
}

func validationDetails(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		switch fe.Tag() {
		case "required", "required_without":
			out = append(out, fe.Field()+" is required")
		case "email":
			out = append(out, "Invalid email format")
		case "len", "alphanum":
			out = append(out, fe.Field()+" must be a "+sizeHint(fe)+"alphanumeric code")
		default:
			out = append(out, fe.Field()+" is invalid")
		}
	}
	return out
}

func sizeHint(fe validator.FieldError) string {
	if fe.Tag() == "len" {
		return fe.Param() + "-character "
	}
	return ""
}

// Package webhook authenticates payment-provider callbacks and routes each
// event type to the payment lifecycle.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/redisx"
)

const (
	StatusConfirmed          = "confirmed"
	StatusVerificationFailed = "verification_failed"
	StatusFailed             = "failed"
	StatusIgnored            = "ignored"
)

// Payments is the slice of the parking service the dispatcher drives.
type Payments interface {
	GetPayment(ctx context.Context, id string) (*parking.Payment, error)
	ConfirmPayment(ctx context.Context, paymentID string, c parking.Confirmation) (*parking.ConfirmResult, error)
	FailPayment(ctx context.Context, paymentID, transactionID, reason string) (*parking.Payment, error)
}

// OutcomeCache remembers settled outcomes so provider retries skip the
// gateway round trip. The stores stay the source of truth.
type OutcomeCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Outcome struct {
	Status        string `json:"status"`
	PaymentID     string `json:"paymentId,omitempty"`
	ReservationID string `json:"reservationId,omitempty"`
	SpaceNumber   string `json:"spaceNumber,omitempty"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Summary is the human message for the response envelope.
func (o *Outcome) Summary() string {
	switch o.Status {
	case StatusConfirmed:
		return "Payment confirmed and reservation created"
	case StatusVerificationFailed:
		return "Payment verification failed"
	case StatusFailed:
		return "Payment failure recorded"
	default:
		return "Webhook received"
	}
}

type route struct {
	schema func() EventData
	handle func(ctx context.Context, data EventData) (*Outcome, error)
}

type Options struct {
	Cache    OutcomeCache // optional
	CacheTTL time.Duration
	Currency string // expected settlement currency; empty skips the check
	Log      *slog.Logger
}

type Dispatcher struct {
	payments Payments
	gateway  parking.Gateway
	cache    OutcomeCache
	cacheTTL time.Duration
	currency string
	log      *slog.Logger
	validate *validator.Validate
	routes   map[string]route
}

func NewDispatcher(payments Payments, gateway parking.Gateway, opt Options) *Dispatcher {
	if opt.Log == nil {
		opt.Log = slog.Default()
	}
	if opt.CacheTTL <= 0 {
		opt.CacheTTL = redisx.TTLIdempotency
	}
	d := &Dispatcher{
		payments: payments,
		gateway:  gateway,
		cache:    opt.Cache,
		cacheTTL: opt.CacheTTL,
		currency: opt.Currency,
		log:      opt.Log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	d.routes = map[string]route{
		EventChargeCompleted: {schema: func() EventData { return &ChargeData{} }, handle: d.chargeCompleted},
		EventChargeFailed:    {schema: func() EventData { return &ChargeData{} }, handle: d.chargeFailed},
	}
	return d
}

// Dispatch decodes one authenticated webhook body and applies it. Unknown
// event types are acknowledged untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) (*Outcome, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, parking.ValidationError("Invalid webhook payload", err.Error())
	}
	if err := d.validate.Struct(ev); err != nil {
		return nil, parking.ValidationError("Invalid webhook payload", "event and data are required")
	}

	rt, ok := d.routes[ev.Type]
	if !ok {
		d.log.InfoContext(ctx, "unhandled webhook event", "event_type", ev.Type)
		return &Outcome{Status: StatusIgnored}, nil
	}

	data := rt.schema()
	if err := json.Unmarshal(ev.Data, data); err != nil {
		return nil, parking.ValidationError("Invalid webhook payload", err.Error())
	}
	if err := d.validate.Struct(data); err != nil {
		return nil, parking.ValidationError("Invalid webhook payload", "data.id and data.tx_ref are required")
	}

	d.log.InfoContext(ctx, "webhook event received", "event_type", ev.Type, "payment_id", data.Reference())
	return rt.handle(ctx, data)
}

func cacheKey(txRef string) string { return fmt.Sprintf(redisx.KeyWebhookOutcome, txRef) }

func (d *Dispatcher) cached(ctx context.Context, txRef string) *Outcome {
	if d.cache == nil {
		return nil
	}
	raw, ok, err := d.cache.Get(ctx, cacheKey(txRef))
	if err != nil {
		d.log.WarnContext(ctx, "webhook cache read failed", "payment_id", txRef, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var o Outcome
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil
	}
	return &o
}

func (d *Dispatcher) remember(ctx context.Context, txRef string, o *Outcome) {
	if d.cache == nil {
		return
	}
	raw, err := json.Marshal(o)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, cacheKey(txRef), raw, d.cacheTTL); err != nil {
		d.log.WarnContext(ctx, "webhook cache write failed", "payment_id", txRef, "error", err)
	}
}

func (d *Dispatcher) chargeCompleted(ctx context.Context, ed EventData) (*Outcome, error) {
	data := ed.(*ChargeData)
	if o := d.cached(ctx, data.TxRef); o != nil {
		d.log.InfoContext(ctx, "duplicate webhook served from cache", "payment_id", data.TxRef)
		return o, nil
	}

	p, err := d.payments.GetPayment(ctx, data.TxRef)
	if err != nil {
		return nil, err
	}

	// Never trust the webhook body: ask the processor.
	v, err := d.gateway.VerifyPayment(ctx, string(data.ID))
	if err != nil {
		return nil, err
	}
	if !v.Successful() {
		d.log.WarnContext(ctx, "payment verification failed",
			"payment_id", p.ID, "transaction_id", data.ID, "status", v.Status)
		return &Outcome{Status: StatusVerificationFailed, PaymentID: p.ID, Message: v.Message}, nil
	}
	if msg := mismatch(p, v, d.currency); msg != "" {
		d.log.ErrorContext(ctx, "verified transaction does not match payment",
			"payment_id", p.ID, "transaction_id", data.ID, "reason", msg)
		return &Outcome{Status: StatusVerificationFailed, PaymentID: p.ID, Message: msg}, nil
	}

	res, err := d.payments.ConfirmPayment(ctx, p.ID, parking.Confirmation{
		TransactionID: string(data.ID),
		PaymentMethod: v.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	o := &Outcome{Status: StatusConfirmed, PaymentID: p.ID, PaymentStatus: string(res.Payment.Status)}
	if res.Reservation != nil {
		o.ReservationID = res.Reservation.ID
		o.SpaceNumber = res.Reservation.SpaceNumber
	}
	d.remember(ctx, data.TxRef, o)
	return o, nil
}

func mismatch(p *parking.Payment, v *parking.Verification, currency string) string {
	switch {
	case currency != "" && v.Currency != "" && v.Currency != currency:
		return fmt.Sprintf("paid in %s, expected %s", v.Currency, currency)
	case v.Reference != "" && v.Reference != p.ID:
		return fmt.Sprintf("transaction reference %s does not belong to payment %s", v.Reference, p.ID)
	case v.Amount < p.Charge:
		return fmt.Sprintf("paid %s is less than charge %s", v.Amount, p.Charge)
	}
	return ""
}

func (d *Dispatcher) chargeFailed(ctx context.Context, ed EventData) (*Outcome, error) {
	data := ed.(*ChargeData)
	reason := data.Processor
	if reason == "" {
		reason = data.Status
	}
	p, err := d.payments.FailPayment(ctx, data.TxRef, string(data.ID), reason)
	if err != nil {
		return nil, err
	}
	return &Outcome{Status: StatusFailed, PaymentID: p.ID, PaymentStatus: string(p.Status)}, nil
}

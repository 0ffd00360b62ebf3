package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/webhook"
)

const maxBody = 1 << 20

type ParkingHandler struct {
	Svc      *parking.Service
	Webhook  *webhook.Dispatcher
	Verifier *webhook.Verifier
	Log      *slog.Logger
	Debug    bool          // expose error causes (STAGE=dev)
	Timeout  time.Duration // per request, including gateway calls
}

func (h *ParkingHandler) Register(r chi.Router) {
	r.Post("/reserve", h.reserve)
	r.Post("/pay", h.pay)
	r.Post("/webhook", h.webhook)
	r.Post("/checkout", h.checkout)
	r.Get("/available-spaces", h.availableSpaces)
	r.Get("/payments/{id}", h.getPayment)
}

func (h *ParkingHandler) errs() errorWriter {
	log := h.Log
	if log == nil {
		log = slog.Default()
	}
	return errorWriter{log: log, debug: h.Debug}
}

func (h *ParkingHandler) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	d := h.Timeout
	if d <= 0 {
		d = 12 * time.Second
	}
	return context.WithTimeout(r.Context(), d)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return parking.ValidationError("Request body is required")
		}
		return parking.ValidationError("Invalid JSON in request body", err.Error())
	}
	return nil
}

func (h *ParkingHandler) reserve(w http.ResponseWriter, r *http.Request) {
	var req parking.ReservationRequest
	if err := decodeBody(r, &req); err != nil {
		h.errs().write(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	quote, err := h.Svc.MakeReservation(ctx, req)
	if err != nil {
		h.errs().write(w, r, err)
		return
	}
	writeOK(w, "Proceed to payment", quote)
}

func (h *ParkingHandler) pay(w http.ResponseWriter, r *http.Request) {
	var req parking.PayRequest
	if err := decodeBody(r, &req); err != nil {
		h.errs().write(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	link, err := h.Svc.ProcessPayment(ctx, req)
	if err != nil {
		h.errs().write(w, r, err)
		return
	}
	if redirect, _ := strconv.ParseBool(r.URL.Query().Get("redirect")); redirect {
		http.Redirect(w, r, link.PaymentLink, http.StatusFound)
		return
	}
	writeOK(w, "Payment initiated", link)
}

// webhook authenticates before reading the body; a bad signature never
// reaches a store.
func (h *ParkingHandler) webhook(w http.ResponseWriter, r *http.Request) {
	if err := h.Verifier.Verify(r.Header.Get(webhook.SignatureHeader)); err != nil {
		h.errs().write(w, r, err)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		h.errs().writeWithFallback(w, r, err, http.StatusBadRequest)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	out, err := h.Webhook.Dispatch(ctx, body)
	if err != nil {
		h.errs().writeWithFallback(w, r, err, http.StatusBadRequest)
		return
	}
	writeOK(w, out.Summary(), out)
}

func (h *ParkingHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req parking.CheckoutRequest
	if err := decodeBody(r, &req); err != nil {
		h.errs().write(w, r, err)
		return
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	res, err := h.Svc.CheckOut(ctx, req)
	if err != nil {
		h.errs().write(w, r, err)
		return
	}
	writeOK(w, "Checkout completed successfully", res)
}

func (h *ParkingHandler) availableSpaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.errs().write(w, r, parking.ValidationError("Validation failed", "limit must be a number"))
			return
		}
		limit = n
	}
	ctx, cancel := h.ctx(r)
	defer cancel()

	page, err := h.Svc.AvailableSpaces(ctx, limit, q.Get("cursor"))
	if err != nil {
		h.errs().write(w, r, err)
		return
	}
	writeOK(w, "Available spaces retrieved", page)
}

func (h *ParkingHandler) getPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	p, err := h.Svc.GetPayment(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.errs().write(w, r, err)
		return
	}
	writeOK(w, "Payment retrieved", p)
}

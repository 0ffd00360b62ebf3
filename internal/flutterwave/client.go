// Package flutterwave is the outbound card-payment client. It only talks to
// the processor and never touches local state.
package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
)

const (
	DefaultBaseURL = "https://api.flutterwave.com/v3"
	DefaultTimeout = 10 * time.Second

	msgUnavailable = "Payment service is currently unavailable"
)

type Config struct {
	BaseURL     string
	SecretKey   string
	Currency    string
	CompanyName string
	Timeout     time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

var _ parking.Gateway = (*Client)(nil)

func New(cfg Config, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Currency == "" {
		cfg.Currency = "NGN"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

type customer struct {
	Email string `json:"email"`
}

type customizations struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type chargeRequest struct {
	TxRef          string         `json:"tx_ref"`
	Amount         billing.Money  `json:"amount"`
	Currency       string         `json:"currency"`
	RedirectURL    string         `json:"redirect_url,omitempty"`
	Customer       customer       `json:"customer"`
	Customizations customizations `json:"customizations"`
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type chargeData struct {
	Link  string `json:"link"`
	TxRef string `json:"tx_ref"`
}

type transactionData struct {
	ID          int64         `json:"id"`
	TxRef       string        `json:"tx_ref"`
	Status      string        `json:"status"`
	Amount      billing.Money `json:"amount"`
	Currency    string        `json:"currency"`
	PaymentType string        `json:"payment_type"`
}

// InitiatePayment creates a hosted payment page for the payment. The
// payment id travels as tx_ref and comes back on the webhook.
func (c *Client) InitiatePayment(ctx context.Context, req parking.InitiateRequest) (*parking.InitiateResult, error) {
	body := chargeRequest{
		TxRef:       req.PaymentID,
		Amount:      req.Amount,
		Currency:    c.cfg.Currency,
		RedirectURL: req.RedirectURL,
		Customer:    customer{Email: req.Email},
		Customizations: customizations{
			Title:       strings.TrimSpace(c.cfg.CompanyName + " Parking Payment"),
			Description: "Parking space reservation payment",
		},
	}

	var out envelope[chargeData]
	if err := c.do(ctx, http.MethodPost, "/payments", body, &out); err != nil {
		c.log.ErrorContext(ctx, "payment initiation failed", "payment_id", req.PaymentID, "error", err)
		return nil, err
	}
	if out.Status != "success" || out.Data.Link == "" {
		c.log.ErrorContext(ctx, "payment initiation rejected", "payment_id", req.PaymentID, "status", out.Status)
		return nil, parking.PaymentError("Failed to initiate payment", errors.New(out.Message))
	}

	ref := out.Data.TxRef
	if ref == "" {
		ref = req.PaymentID
	}
	c.log.InfoContext(ctx, "payment initiated", "payment_id", req.PaymentID)
	return &parking.InitiateResult{PaymentLink: out.Data.Link, Reference: ref}, nil
}

// VerifyPayment asks the processor for the authoritative transaction state.
// A reachable processor reporting anything but success yields a
// non-successful Verification, not an error.
func (c *Client) VerifyPayment(ctx context.Context, transactionID string) (*parking.Verification, error) {
	if transactionID == "" {
		return nil, parking.ValidationError("transaction id is required")
	}
	var out envelope[transactionData]
	path := "/transactions/" + url.PathEscape(transactionID) + "/verify"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		c.log.ErrorContext(ctx, "payment verification error", "transaction_id", transactionID, "error", err)
		var pe *parking.Error
		if errors.As(err, &pe) && pe.Message == msgUnavailable {
			return nil, err
		}
		return nil, parking.PaymentError("Failed to verify payment", err)
	}

	if out.Status == "success" && out.Data.Status == "successful" {
		return &parking.Verification{
			Status:        "successful",
			Amount:        out.Data.Amount,
			Currency:      out.Data.Currency,
			Reference:     out.Data.TxRef,
			PaymentMethod: out.Data.PaymentType,
		}, nil
	}

	status := out.Data.Status
	if status == "" {
		status = "failed"
	}
	c.log.WarnContext(ctx, "payment not successful", "transaction_id", transactionID, "status", status)
	return &parking.Verification{
		Status:    status,
		Amount:    out.Data.Amount,
		Currency:  out.Data.Currency,
		Reference: out.Data.TxRef,
		Message:   out.Message,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			err = fmt.Errorf("no response within %s: %w", c.cfg.Timeout, err)
		}
		return parking.PaymentError(msgUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return parking.PaymentError(msgUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e envelope[json.RawMessage]
		msg := "Unknown error"
		if json.Unmarshal(raw, &e) == nil && e.Message != "" {
			msg = e.Message
		}
		return parking.PaymentError("Payment service error: "+msg, fmt.Errorf("status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return parking.PaymentError("Payment service error: malformed response", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

package flutterwave

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, SecretKey: "FLWSECK_TEST", CompanyName: "Smart", Timeout: time.Second}, nil)
}

func TestInitiatePayment(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "Bearer FLWSECK_TEST", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"link":"https://checkout.flutterwave.com/v3/hosted/pay/abc"}}`))
	})

	res, err := c.InitiatePayment(context.Background(), parking.InitiateRequest{
		Amount: billing.Money(21198), Email: "driver@example.com", PaymentID: "pay-1", RedirectURL: "https://app.example/done",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.flutterwave.com/v3/hosted/pay/abc", res.PaymentLink)
	assert.Equal(t, "pay-1", res.Reference)

	assert.Equal(t, "pay-1", got["tx_ref"])
	assert.Equal(t, 211.98, got["amount"])
	assert.Equal(t, "NGN", got["currency"])
	assert.Equal(t, "https://app.example/done", got["redirect_url"])
	assert.Equal(t, map[string]any{"email": "driver@example.com"}, got["customer"])
}

func TestInitiatePayment_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","message":"Invalid currency"}`))
	})
	_, err := c.InitiatePayment(context.Background(), parking.InitiateRequest{PaymentID: "pay-1"})
	require.Error(t, err)
	assert.True(t, parking.IsKind(err, parking.KindPayment))
	assert.Contains(t, err.Error(), "Invalid currency")
}

func TestInitiatePayment_NonSuccessStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"nope","data":{}}`))
	})
	_, err := c.InitiatePayment(context.Background(), parking.InitiateRequest{PaymentID: "pay-1"})
	assert.True(t, parking.IsKind(err, parking.KindPayment))
}

func TestInitiatePayment_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	c := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)

	_, err := c.InitiatePayment(context.Background(), parking.InitiateRequest{PaymentID: "pay-1"})
	require.Error(t, err)
	var pe *parking.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, parking.KindPayment, pe.Kind)
	assert.Equal(t, "Payment service is currently unavailable", pe.Message)
}

func TestVerifyPayment_Successful(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/4975363/verify", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","message":"Transaction fetched successfully","data":{
			"id":4975363,"tx_ref":"pay-1","status":"successful","amount":105.99,"currency":"NGN","payment_type":"card"}}`))
	})
	v, err := c.VerifyPayment(context.Background(), "4975363")
	require.NoError(t, err)
	assert.True(t, v.Successful())
	assert.Equal(t, billing.Money(10599), v.Amount)
	assert.Equal(t, "pay-1", v.Reference)
	assert.Equal(t, "card", v.PaymentMethod)
}

func TestVerifyPayment_NotSuccessful(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","message":"Transaction fetched","data":{"status":"failed","tx_ref":"pay-1"}}`))
	})
	v, err := c.VerifyPayment(context.Background(), "1")
	require.NoError(t, err)
	assert.False(t, v.Successful())
	assert.Equal(t, "failed", v.Status)
	assert.Equal(t, "Transaction fetched", v.Message)
}

func TestVerifyPayment_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(Config{BaseURL: srv.URL}, nil)
	_, err := c.VerifyPayment(context.Background(), "1")
	assert.True(t, parking.IsKind(err, parking.KindPayment))
}

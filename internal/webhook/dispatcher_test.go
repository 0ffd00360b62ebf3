package webhook

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/webhook/mocks"
)

type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string][]byte{}
	}
	c.m[key] = val
	return nil
}

const completedBody = `{"event":"charge.completed","data":{"id":4975363,"tx_ref":"pay-1","status":"successful","amount":105.99,"currency":"NGN","customer":{"email":"driver@example.com"}}}`

func pendingPayment() *parking.Payment {
	return &parking.Payment{ID: "pay-1", SpaceNumber: "A1", Charge: 10599, Status: parking.PaymentProcessing}
}

func TestDispatch_ChargeCompletedConfirms(t *testing.T) {
	payments := mocks.NewMockPayments(t)
	gw := mocks.NewMockGateway(t)
	d := NewDispatcher(payments, gw, Options{Currency: "NGN"})

	payments.EXPECT().GetPayment(mock.Anything, "pay-1").Return(pendingPayment(), nil)
	gw.EXPECT().VerifyPayment(mock.Anything, "4975363").Return(&parking.Verification{
		Status: "successful", Amount: 10599, Currency: "NGN", Reference: "pay-1", PaymentMethod: "card",
	}, nil)
	payments.EXPECT().ConfirmPayment(mock.Anything, "pay-1",
		parking.Confirmation{TransactionID: "4975363", PaymentMethod: "card"}).
		Return(&parking.ConfirmResult{
			Payment:     &parking.Payment{ID: "pay-1", Status: parking.PaymentSuccessful},
			Reservation: &parking.Reservation{ID: "res-1", SpaceNumber: "A1"},
		}, nil)

	out, err := d.Dispatch(context.Background(), []byte(completedBody))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, out.Status)
	assert.Equal(t, "res-1", out.ReservationID)
	assert.Equal(t, "A1", out.SpaceNumber)
}

func TestDispatch_DuplicateServedFromCache(t *testing.T) {
	payments := mocks.NewMockPayments(t)
	gw := mocks.NewMockGateway(t)
	d := NewDispatcher(payments, gw, Options{Cache: &mapCache{}})

	payments.EXPECT().GetPayment(mock.Anything, "pay-1").Return(pendingPayment(), nil).Once()
	gw.EXPECT().VerifyPayment(mock.Anything, "4975363").
		Return(&parking.Verification{Status: "successful", Amount: 10599, Reference: "pay-1"}, nil).Once()
	payments.EXPECT().ConfirmPayment(mock.Anything, "pay-1", mock.Anything).
		Return(&parking.ConfirmResult{
			Payment:     &parking.Payment{ID: "pay-1", Status: parking.PaymentSuccessful},
			Reservation: &parking.Reservation{ID: "res-1", SpaceNumber: "A1"},
		}, nil).Once()

	first, err := d.Dispatch(context.Background(), []byte(completedBody))
	require.NoError(t, err)
	second, err := d.Dispatch(context.Background(), []byte(completedBody))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDispatch_VerificationFailedDoesNotConfirm(t *testing.T) {
	payments := mocks.NewMockPayments(t)
	gw := mocks.NewMockGateway(t)
	d := NewDispatcher(payments, gw, Options{})

	payments.EXPECT().GetPayment(mock.Anything, "pay-1").Return(pendingPayment(), nil)
	gw.EXPECT().VerifyPayment(mock.Anything, "4975363").
		Return(&parking.Verification{Status: "pending", Message: "Transaction pending"}, nil)

	out, err := d.Dispatch(context.Background(), []byte(completedBody))
	require.NoError(t, err)
	assert.Equal(t, StatusVerificationFailed, out.Status)
	assert.Equal(t, "Transaction pending", out.Message)
	payments.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_UnderpaidIsNotConfirmed(t *testing.T) {
	payments := mocks.NewMockPayments(t)
	gw := mocks.NewMockGateway(t)
	d := NewDispatcher(payments, gw, Options{Currency: "NGN"})

	payments.EXPECT().GetPayment(mock.Anything, "pay-1").Return(pendingPayment(), nil)
	gw.EXPECT().VerifyPayment(mock.Anything, "4975363").
		Return(&parking.Verification{Status: "successful", Amount: billing.Money(100), Currency: "NGN", Reference: "pay-1"}, nil)

	out, err := d.Dispatch(context.Background(), []byte(completedBody))
	require.NoError(t, err)
	assert.Equal(t, StatusVerificationFailed, out.Status)
}

func TestDispatch_WrongCurrencyIsNotConfirmed(t *testing.T) {
	payments := mocks.NewMockPayments(t)
	gw := mocks.NewMockGateway(t)
	d := NewDispatcher(payments, gw, Options{Currency: "NGN"})

	payments.EXPECT().GetPayment(mock.Anything, "pay-1").Return(pendingPayment(), nil)
	gw.EXPECT().VerifyPayment(mock.Anything, "4975363").
		Return(&parking.Verification{Status: "successful", Amount: 10599, Currency: "USD", Reference: "pay-1"}, nil)

	out, err := d.Dispatch(context.Background(), []byte(completedBody))
	require.NoError(t, err)
	assert.Equal(t, StatusVerificationFailed, out.Status)
}

func TestDispatch_GatewayErrorPropagates(t *testing.T) {
	payments := mocks.NewMockPayments(t)
	gw := mocks.NewMockGateway(t)
	d := NewDispatcher(payments, gw, Options{})

	payments.EXPECT().GetPayment(mock.Anything, "pay-1").Return(pendingPayment(), nil)
	gw.EXPECT().VerifyPayment(mock.Anything, "4975363").
		Return(nil, parking.PaymentError("Failed to verify payment", errors.New("boom")))

	_, err := d.Dispatch(context.Background(), []byte(completedBody))
	assert.True(t, parking.IsKind(err, parking.KindPayment))
}

func TestDispatch_ChargeFailedRecordsFailure(t *testing.T) {
	payments := mocks.NewMockPayments(t)
	gw := mocks.NewMockGateway(t)
	d := NewDispatcher(payments, gw, Options{})

	payments.EXPECT().FailPayment(mock.Anything, "pay-1", "99", "Declined").
		Return(&parking.Payment{ID: "pay-1", Status: parking.PaymentFailed}, nil)

	body := `{"event":"charge.failed","data":{"id":"99","tx_ref":"pay-1","status":"failed","processor_response":"Declined"}}`
	out, err := d.Dispatch(context.Background(), []byte(body))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "failed", out.PaymentStatus)
}

func TestDispatch_UnknownEventAcknowledged(t *testing.T) {
	d := NewDispatcher(mocks.NewMockPayments(t), mocks.NewMockGateway(t), Options{})
	out, err := d.Dispatch(context.Background(), []byte(`{"event":"transfer.completed","data":{"id":1}}`))
	require.NoError(t, err)
	assert.Equal(t, StatusIgnored, out.Status)
	assert.Equal(t, "Webhook received", out.Summary())
}

func TestDispatch_MalformedPayloads(t *testing.T) {
	d := NewDispatcher(mocks.NewMockPayments(t), mocks.NewMockGateway(t), Options{})
	for name, body := range map[string]string{
		"not json":       `{`,
		"no event":       `{"data":{"id":1,"tx_ref":"p"}}`,
		"missing tx_ref": `{"event":"charge.completed","data":{"id":1}}`,
		"bad id":         `{"event":"charge.completed","data":{"id":1.5,"tx_ref":"p"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := d.Dispatch(context.Background(), []byte(body))
			assert.True(t, parking.IsKind(err, parking.KindValidation), "got %v", err)
		})
	}
}

func TestVerifier(t *testing.T) {
	v := NewVerifier("s3cret")
	assert.NoError(t, v.Verify("s3cret"))
	assert.True(t, parking.IsKind(v.Verify(""), parking.KindUnauthorized))
	assert.True(t, parking.IsKind(v.Verify("s3cret "), parking.KindUnauthorized))

	assert.Error(t, NewVerifier("").Verify(""), "no secret rejects everything")
}

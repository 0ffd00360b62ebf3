package parking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(PaymentUnprocessed, PaymentProcessing))
	assert.True(t, CanTransition(PaymentProcessing, PaymentSuccessful))
	assert.True(t, CanTransition(PaymentFailed, PaymentSuccessful))
	assert.False(t, CanTransition(PaymentSuccessful, PaymentFailed))
	assert.False(t, CanTransition(PaymentSuccessful, PaymentSuccessful))
	assert.False(t, CanTransition(PaymentFailed, PaymentProcessing))
}

func TestSourcesOf(t *testing.T) {
	assert.ElementsMatch(t,
		[]PaymentStatus{PaymentUnprocessed, PaymentUnsuccessful, PaymentProcessing, PaymentFailed},
		sourcesOf(PaymentSuccessful))
	assert.NotContains(t, sourcesOf(PaymentFailed), PaymentSuccessful)
}

func TestDerivedIDsAreStable(t *testing.T) {
	assert.Equal(t, ReservationIDFor("p1"), ReservationIDFor("p1"))
	assert.NotEqual(t, ReservationIDFor("p1"), ReservationIDFor("p2"))
	assert.NotEqual(t, ReservationIDFor("p1"), BillIDFor("p1"))
}

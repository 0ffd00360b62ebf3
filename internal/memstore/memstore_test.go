package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
)

func TestReserveSpaceIsConditional(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutSpace(parking.Space{SpaceNumber: "A1"})
	now := time.Now()

	require.NoError(t, s.ReserveSpace(ctx, "A1", "pay-1", now))
	require.NoError(t, s.ReserveSpace(ctx, "A1", "pay-1", now), "same holder replays")
	assert.ErrorIs(t, s.ReserveSpace(ctx, "A1", "pay-2", now), parking.ErrConditionFailed)

	assert.ErrorIs(t, s.ReleaseSpace(ctx, "A1", "pay-2", now), parking.ErrConditionFailed)
	require.NoError(t, s.ReleaseSpace(ctx, "A1", "pay-1", now))
	require.NoError(t, s.ReleaseSpace(ctx, "A1", "pay-1", now), "already free")

	sp, err := s.GetSpace(ctx, "A1")
	require.NoError(t, err)
	assert.True(t, sp.Reservable())
}

func TestMaintenanceSpaceCannotBeReserved(t *testing.T) {
	s := New()
	s.PutSpace(parking.Space{SpaceNumber: "B2", Status: parking.SpaceMaintenance})
	err := s.ReserveSpace(context.Background(), "B2", "pay-1", time.Now())
	assert.ErrorIs(t, err, parking.ErrConditionFailed)
}

func TestTransitionPayment(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreatePayment(ctx, &parking.Payment{ID: "p1", Status: parking.PaymentUnprocessed}))
	assert.ErrorIs(t, s.CreatePayment(ctx, &parking.Payment{ID: "p1"}), parking.ErrAlreadyExists)

	p, err := s.TransitionPayment(ctx, "p1",
		[]parking.PaymentStatus{parking.PaymentUnprocessed}, parking.PaymentSuccessful,
		parking.PaymentUpdate{TransactionID: "tx-9"})
	require.NoError(t, err)
	assert.Equal(t, parking.PaymentSuccessful, p.Status)
	assert.Equal(t, "tx-9", p.TransactionID)

	_, err = s.TransitionPayment(ctx, "p1",
		[]parking.PaymentStatus{parking.PaymentUnprocessed}, parking.PaymentSuccessful, parking.PaymentUpdate{})
	assert.ErrorIs(t, err, parking.ErrConditionFailed)

	_, err = s.TransitionPayment(ctx, "missing", nil, parking.PaymentFailed, parking.PaymentUpdate{})
	assert.ErrorIs(t, err, parking.ErrNotFound)
}

func TestListAvailablePaging(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, n := range []string{"A1", "A2", "A3", "B1", "B2"} {
		s.PutSpace(parking.Space{SpaceNumber: n})
	}
	require.NoError(t, s.ReserveSpace(ctx, "A2", "p", time.Now()))

	page, err := s.ListAvailable(ctx, 2, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "A1", page.Items[0].SpaceNumber)
	assert.Equal(t, "A3", page.Items[1].SpaceNumber)
	assert.Equal(t, "A3", page.Next)

	page, err = s.ListAvailable(ctx, 2, page.Next)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "B2", page.Items[1].SpaceNumber)
	assert.Empty(t, page.Next)
}

func TestCreateReservation_OneActivePerSpace(t *testing.T) {
	ctx := context.Background()
	s := New()
	active := func(id, space string) *parking.Reservation {
		return &parking.Reservation{ID: id, SpaceNumber: space, Status: parking.ReservationActive}
	}

	require.NoError(t, s.CreateReservation(ctx, active("r1", "A1")))
	assert.ErrorIs(t, s.CreateReservation(ctx, active("r1", "A1")), parking.ErrAlreadyExists)
	assert.ErrorIs(t, s.CreateReservation(ctx, active("r2", "A1")), parking.ErrConditionFailed)
	require.NoError(t, s.CreateReservation(ctx, active("r3", "A2")))

	require.NoError(t, s.DeleteReservation(ctx, "r1"))
	require.NoError(t, s.CreateReservation(ctx, active("r2", "A1")))
}

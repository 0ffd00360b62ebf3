package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/kafka"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
)

type fakeReconciler struct {
	calls []parking.ReconcileRequestedPayload
	err   error
	fails int // fail this many calls before err applies
}

func (f *fakeReconciler) Reconcile(_ context.Context, p parking.ReconcileRequestedPayload) error {
	f.calls = append(f.calls, p)
	if f.fails > 0 {
		f.fails--
		return errors.New("transient")
	}
	return f.err
}

type captureSender struct {
	sent []kafka.Message
	err  error
}

func (s *captureSender) Send(_ context.Context, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msgs...)
	return nil
}

type memDedup struct {
	keys map[string]bool
	err  error
}

func (d *memDedup) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.keys[key] {
		return false, nil
	}
	d.keys[key] = true
	return true, nil
}

func (d *memDedup) Release(_ context.Context, key string) error {
	delete(d.keys, key)
	return nil
}

func message(t *testing.T, eventType string, p any) kafka.Message {
	t.Helper()
	ev, err := parking.NewEnvelope(eventType, "parking-api", "A1", p)
	require.NoError(t, err)
	return kafka.Message{Topic: parking.TopicReconcileRequested, Value: kafkax.MustMarshal(ev)}
}

func TestHandle_ReplaysOncePerEvent(t *testing.T) {
	svc := &fakeReconciler{}
	w := &Worker{Svc: svc, Dedup: &memDedup{keys: map[string]bool{}}, ServiceName: "reconciler"}
	m := message(t, parking.EventReconcileRequested, parking.ReconcileRequestedPayload{
		Kind: parking.ReconcileConfirm, PaymentID: "p1", TransactionID: "42",
	})

	require.NoError(t, w.Handle(context.Background(), m))
	require.NoError(t, w.Handle(context.Background(), m))

	require.Len(t, svc.calls, 1)
	assert.Equal(t, "p1", svc.calls[0].PaymentID)
	assert.Equal(t, "42", svc.calls[0].TransactionID)
}

func TestHandle_FailureReleasesClaim(t *testing.T) {
	svc := &fakeReconciler{err: errors.New("db down")}
	dedup := &memDedup{keys: map[string]bool{}}
	w := &Worker{Svc: svc, Dedup: dedup, ServiceName: "reconciler"}
	m := message(t, parking.EventReconcileRequested, parking.ReconcileRequestedPayload{Kind: parking.ReconcileConfirm, PaymentID: "p1"})

	assert.Error(t, w.Handle(context.Background(), m))
	assert.Empty(t, dedup.keys)

	svc.err = nil
	require.NoError(t, w.Handle(context.Background(), m))
	assert.Len(t, svc.calls, 2)
}

func TestHandle_DedupOutageStillProcesses(t *testing.T) {
	svc := &fakeReconciler{}
	w := &Worker{Svc: svc, Dedup: &memDedup{err: errors.New("redis down")}}
	m := message(t, parking.EventReconcileRequested, parking.ReconcileRequestedPayload{Kind: parking.ReconcileCheckout})

	require.NoError(t, w.Handle(context.Background(), m))
	assert.Len(t, svc.calls, 1)
}

func TestHandle_SkipsForeignAndPoisonMessages(t *testing.T) {
	svc := &fakeReconciler{}
	w := &Worker{Svc: svc}

	require.NoError(t, w.Handle(context.Background(), kafka.Message{Value: []byte("{not json")}))
	require.NoError(t, w.Handle(context.Background(),
		message(t, parking.EventCheckoutCompleted, parking.CheckoutCompletedPayload{ReservationID: "r1"})))
	require.NoError(t, w.Handle(context.Background(), message(t, parking.EventReconcileRequested, "not an object")))

	assert.Empty(t, svc.calls)
}

func TestHandle_RetriesTransientFailure(t *testing.T) {
	svc := &fakeReconciler{fails: 2}
	q := &captureSender{}
	w := &Worker{Svc: svc, Requeue: q, Attempts: 3, Backoff: time.Millisecond}
	m := message(t, parking.EventReconcileRequested, parking.ReconcileRequestedPayload{Kind: parking.ReconcileCheckout})

	require.NoError(t, w.Handle(context.Background(), m))
	assert.Len(t, svc.calls, 3)
	assert.Empty(t, q.sent)
}

func TestHandle_ExhaustedReplayIsRequeued(t *testing.T) {
	svc := &fakeReconciler{err: errors.New("db down")}
	dedup := &memDedup{keys: map[string]bool{}}
	q := &captureSender{}
	w := &Worker{Svc: svc, Dedup: dedup, Requeue: q, ServiceName: "reconciler", Attempts: 2, Backoff: time.Millisecond}
	m := message(t, parking.EventReconcileRequested, parking.ReconcileRequestedPayload{Kind: parking.ReconcileConfirm, PaymentID: "p1"})
	m.Key = []byte("A1")
	m.Partition, m.Offset = 3, 41

	// nil lets the consumer commit: the message is back on the topic
	require.NoError(t, w.Handle(context.Background(), m))
	assert.Len(t, svc.calls, 2)
	require.Len(t, q.sent, 1)
	assert.Equal(t, parking.TopicReconcileRequested, q.sent[0].Topic)
	assert.Equal(t, m.Key, q.sent[0].Key)
	assert.Equal(t, m.Value, q.sent[0].Value)
	assert.Zero(t, q.sent[0].Offset)
	assert.Empty(t, dedup.keys, "claim released so the requeued copy is not skipped")

	// the requeued copy is replayed once the store recovers
	svc.err = nil
	require.NoError(t, w.Handle(context.Background(), q.sent[0]))
	assert.Len(t, svc.calls, 3)
	assert.Equal(t, "p1", svc.calls[2].PaymentID)
}

func TestHandle_RequeueFailureKeepsOffset(t *testing.T) {
	svc := &fakeReconciler{err: errors.New("db down")}
	w := &Worker{Svc: svc, Requeue: &captureSender{err: errors.New("brokers down")}, Backoff: time.Millisecond}
	m := message(t, parking.EventReconcileRequested, parking.ReconcileRequestedPayload{Kind: parking.ReconcileCheckout})

	assert.Error(t, w.Handle(context.Background(), m))
	assert.Len(t, svc.calls, 1)
}

func TestHandle_StopsRetryingOnCancel(t *testing.T) {
	svc := &fakeReconciler{err: errors.New("db down")}
	q := &captureSender{}
	w := &Worker{Svc: svc, Requeue: q, Attempts: 5, Backoff: time.Hour}
	m := message(t, parking.EventReconcileRequested, parking.ReconcileRequestedPayload{Kind: parking.ReconcileCheckout})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	assert.Error(t, w.Handle(ctx, m))
	assert.Len(t, svc.calls, 1)
	assert.Empty(t, q.sent, "shutdown leaves the offset uncommitted instead")
}

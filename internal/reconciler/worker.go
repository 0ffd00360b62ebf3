// Package reconciler replays saga steps that the request path left half
// applied.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	kafkax "github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/kafka"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/redisx"
)

type Reconciler interface {
	Reconcile(ctx context.Context, p parking.ReconcileRequestedPayload) error
}

// Deduper claims an event id so redeliveries are skipped.
type Deduper interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Sender writes messages before returning; *kafkax.Producer satisfies it.
type Sender interface {
	Send(ctx context.Context, msgs ...kafka.Message) error
}

type Worker struct {
	Svc         Reconciler
	Dedup       Deduper // optional
	Requeue     Sender  // optional; failed replays go back on the topic
	ServiceName string
	Log         *slog.Logger

	// Attempts bounds in-process replays of one message; Backoff is the
	// first pause between them and doubles after each try.
	Attempts int
	Backoff  time.Duration
}

func (w *Worker) logger() *slog.Logger {
	if w.Log == nil {
		return slog.Default()
	}
	return w.Log
}

// Handle processes one parking.reconcile.requested message. Undecodable
// messages are logged and committed. A replay that still fails after
// Attempts tries is written back to the topic, so its offset can be
// committed; without Requeue, or when that write fails, the error is
// returned and the offset stays uncommitted.
func (w *Worker) Handle(ctx context.Context, m kafka.Message) error {
	log := w.logger()

	ev, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		log.ErrorContext(ctx, "dropping undecodable message", "offset", m.Offset, "error", err)
		return nil
	}
	if ev.EventType != parking.EventReconcileRequested {
		return nil
	}
	p, err := kafkax.UnwrapPayload[parking.ReconcileRequestedPayload](ev.Payload)
	if err != nil {
		log.ErrorContext(ctx, "dropping bad reconcile payload", "event_id", ev.EventID, "error", err)
		return nil
	}

	key := fmt.Sprintf(redisx.KeyDedup, w.ServiceName, ev.EventID)
	claimed := false
	if w.Dedup != nil {
		ok, err := w.Dedup.Claim(ctx, key, redisx.TTLDedup)
		switch {
		case err != nil:
			log.WarnContext(ctx, "dedup unavailable, processing anyway", "event_id", ev.EventID, "error", err)
		case !ok:
			log.InfoContext(ctx, "skip duplicate event", "event_id", ev.EventID)
			return nil
		default:
			claimed = true
		}
	}

	log.InfoContext(ctx, "reconciling", "event_id", ev.EventID, "kind", p.Kind,
		"space_number", ev.CorrelationID, "trace_id", ev.TraceID)
	err = w.replay(ctx, ev.EventID, p)
	if err == nil {
		return nil
	}
	if claimed {
		if rerr := w.Dedup.Release(ctx, key); rerr != nil {
			log.WarnContext(ctx, "release dedup claim", "event_id", ev.EventID, "error", rerr)
		}
	}
	if w.Requeue == nil || ctx.Err() != nil {
		return err
	}
	if qerr := w.Requeue.Send(ctx, kafka.Message{
		Topic:   m.Topic,
		Key:     m.Key,
		Value:   m.Value,
		Headers: m.Headers,
	}); qerr != nil {
		log.ErrorContext(ctx, "requeue failed", "event_id", ev.EventID, "error", qerr)
		return err
	}
	log.WarnContext(ctx, "reconcile failed, requeued", "event_id", ev.EventID, "kind", p.Kind, "error", err)
	return nil
}

func (w *Worker) replay(ctx context.Context, eventID string, p parking.ReconcileRequestedPayload) error {
	attempts := max(w.Attempts, 1)
	wait := w.Backoff
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(wait):
			}
			wait *= 2
		}
		if err = w.Svc.Reconcile(ctx, p); err == nil {
			return nil
		}
		w.logger().WarnContext(ctx, "reconcile attempt failed", "event_id", eventID, "attempt", i+1, "error", err)
	}
	return err
}

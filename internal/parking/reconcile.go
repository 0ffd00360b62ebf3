package parking

import (
	"context"
	"fmt"
)

// Reconcile replays a saga step that failed part way. Replays are safe
// because every step is made of conditional writes.
func (s *Service) Reconcile(ctx context.Context, p ReconcileRequestedPayload) (err error) {
	ctx, span := tracer.Start(ctx, "parking.Reconcile")
	defer func() { endSpan(span, err) }()

	switch p.Kind {
	case ReconcileCheckout:
		if p.Checkout == nil {
			return fmt.Errorf("reconcile checkout: missing plan")
		}
		if _, err := s.finishCheckout(ctx, *p.Checkout); err != nil {
			return fmt.Errorf("reconcile checkout %s: %w", p.Checkout.Reservation.ID, err)
		}
		s.logger().InfoContext(ctx, "checkout reconciled", "reservation_id", p.Checkout.Reservation.ID)
	case ReconcileConfirm:
		_, err := s.ConfirmPayment(ctx, p.PaymentID, Confirmation{
			TransactionID: p.TransactionID,
			PaymentMethod: p.PaymentMethod,
		})
		if err != nil {
			if IsKind(err, KindConflict) || IsKind(err, KindNotFound) {
				// nothing a replay can fix
				s.logger().ErrorContext(ctx, "confirm cannot be reconciled", "payment_id", p.PaymentID, "error", err)
				return nil
			}
			return fmt.Errorf("reconcile confirm %s: %w", p.PaymentID, err)
		}
		s.logger().InfoContext(ctx, "confirm reconciled", "payment_id", p.PaymentID)
	default:
		s.logger().WarnContext(ctx, "unknown reconcile kind", "kind", p.Kind)
	}
	return nil
}

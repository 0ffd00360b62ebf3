package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
)

// Store keeps the four parking tables in Postgres. Every state change is a
// single conditional statement, so concurrent handlers never need a lock.
type Store struct{ DB *pgxpool.Pool }

var _ parking.Store = (*Store)(nil)

const uniqueViolation = "23505"

// ---------- spaces ----------

const spaceCols = `space_no, reserved, status, COALESCE(reserved_by, ''), reservation_date, updated_at`

func scanSpace(row pgx.Row) (*parking.Space, error) {
	var sp parking.Space
	var status string
	if err := row.Scan(&sp.SpaceNumber, &sp.Reserved, &status, &sp.ReservedBy, &sp.ReservationDate, &sp.UpdatedAt); err != nil {
		return nil, err
	}
	sp.Status = parking.SpaceStatus(status)
	return &sp, nil
}

func (s *Store) GetSpace(ctx context.Context, spaceNumber string) (*parking.Space, error) {
	sp, err := scanSpace(s.DB.QueryRow(ctx, `SELECT `+spaceCols+` FROM parking_spaces WHERE space_no=$1`, spaceNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, parking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select space %s: %w", spaceNumber, err)
	}
	return sp, nil
}

func (s *Store) ListAvailable(ctx context.Context, limit int, after string) (parking.SpacePage, error) {
	// one extra row tells whether another page exists
	rows, err := s.DB.Query(ctx, `
		SELECT `+spaceCols+` FROM parking_spaces
		WHERE reserved = FALSE AND status = 'available' AND space_no > $1
		ORDER BY space_no
		LIMIT $2`, after, limit+1)
	if err != nil {
		return parking.SpacePage{}, fmt.Errorf("list spaces: %w", err)
	}
	defer rows.Close()

	var page parking.SpacePage
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			return parking.SpacePage{}, fmt.Errorf("scan space: %w", err)
		}
		page.Items = append(page.Items, *sp)
	}
	if err := rows.Err(); err != nil {
		return parking.SpacePage{}, fmt.Errorf("list spaces: %w", err)
	}
	if len(page.Items) > limit {
		page.Items = page.Items[:limit]
		page.Next = page.Items[limit-1].SpaceNumber
	}
	return page, nil
}

func (s *Store) ReserveSpace(ctx context.Context, spaceNumber, holder string, at time.Time) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE parking_spaces
		SET reserved = TRUE, status = 'reserved', reserved_by = $2,
		    reservation_date = COALESCE(reservation_date, $3), updated_at = $3
		WHERE space_no = $1
		  AND ((reserved = FALSE AND status = 'available') OR (reserved AND reserved_by = $2))`,
		spaceNumber, holder, at)
	if err != nil {
		return fmt.Errorf("reserve space %s: %w", spaceNumber, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := s.GetSpace(ctx, spaceNumber); err != nil {
		return err
	}
	return parking.ErrConditionFailed
}

func (s *Store) ReleaseSpace(ctx context.Context, spaceNumber, holder string, at time.Time) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE parking_spaces
		SET reserved = FALSE, status = 'available', reserved_by = NULL,
		    reservation_date = NULL, updated_at = $3
		WHERE space_no = $1 AND reserved AND reserved_by = $2`,
		spaceNumber, holder, at)
	if err != nil {
		return fmt.Errorf("release space %s: %w", spaceNumber, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	sp, err := s.GetSpace(ctx, spaceNumber)
	if err != nil {
		return err
	}
	if !sp.Reserved {
		return nil
	}
	return parking.ErrConditionFailed
}

// ---------- payments ----------

const paymentCols = `id, purpose, space_no, user_email, reserve_time, checkout_time, charge_minor,
	payment_status, COALESCE(reservation_id, ''), COALESCE(transaction_id, ''),
	COALESCE(payment_method, ''), created_at, updated_at`

func scanPayment(row pgx.Row) (*parking.Payment, error) {
	var p parking.Payment
	var purpose, status string
	var charge int64
	err := row.Scan(&p.ID, &purpose, &p.SpaceNumber, &p.UserEmail, &p.ReserveTime, &p.CheckoutTime,
		&charge, &status, &p.ReservationID, &p.TransactionID, &p.PaymentMethod, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Purpose = parking.PaymentPurpose(purpose)
	p.Status = parking.PaymentStatus(status)
	p.Charge = billing.Money(charge)
	return &p, nil
}

func (s *Store) CreatePayment(ctx context.Context, p *parking.Payment) error {
	tag, err := s.DB.Exec(ctx, `
		INSERT INTO payments (id, purpose, space_no, user_email, reserve_time, checkout_time, charge_minor,
			payment_status, reservation_id, transaction_id, payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12, $13)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, string(p.Purpose), p.SpaceNumber, p.UserEmail, p.ReserveTime, p.CheckoutTime, int64(p.Charge),
		string(p.Status), p.ReservationID, p.TransactionID, p.PaymentMethod, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return parking.ErrAlreadyExists
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (*parking.Payment, error) {
	p, err := scanPayment(s.DB.QueryRow(ctx, `SELECT `+paymentCols+` FROM payments WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, parking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select payment %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) TransitionPayment(ctx context.Context, id string, from []parking.PaymentStatus, to parking.PaymentStatus, upd parking.PaymentUpdate) (*parking.Payment, error) {
	sources := make([]string, len(from))
	for i, st := range from {
		sources[i] = string(st)
	}
	p, err := scanPayment(s.DB.QueryRow(ctx, `
		UPDATE payments
		SET payment_status = $3,
		    transaction_id = COALESCE(NULLIF($4, ''), transaction_id),
		    payment_method = COALESCE(NULLIF($5, ''), payment_method),
		    updated_at = $6
		WHERE id = $1 AND payment_status = ANY($2)
		RETURNING `+paymentCols,
		id, sources, string(to), upd.TransactionID, upd.PaymentMethod, upd.At))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, gerr := s.GetPayment(ctx, id); gerr != nil {
			return nil, gerr
		}
		return nil, parking.ErrConditionFailed
	}
	if err != nil {
		return nil, fmt.Errorf("update payment %s: %w", id, err)
	}
	return p, nil
}

// ---------- reservations ----------

const reservationCols = `id, payment_id, space_no, user_email, reserve_time, checkout_time, status, created_at`

func scanReservation(row pgx.Row) (*parking.Reservation, error) {
	var r parking.Reservation
	var status string
	if err := row.Scan(&r.ID, &r.PaymentID, &r.SpaceNumber, &r.UserEmail, &r.ReserveTime, &r.CheckoutTime, &status, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Status = parking.ReservationStatus(status)
	return &r, nil
}

func (s *Store) CreateReservation(ctx context.Context, r *parking.Reservation) error {
	tag, err := s.DB.Exec(ctx, `
		INSERT INTO reservations (`+reservationCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.PaymentID, r.SpaceNumber, r.UserEmail, r.ReserveTime, r.CheckoutTime, string(r.Status), r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// another active reservation already holds the space
			return fmt.Errorf("insert reservation %s: %w", r.ID, parking.ErrConditionFailed)
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return parking.ErrAlreadyExists
	}
	return nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (*parking.Reservation, error) {
	r, err := scanReservation(s.DB.QueryRow(ctx, `SELECT `+reservationCols+` FROM reservations WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, parking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select reservation %s: %w", id, err)
	}
	return r, nil
}

func (s *Store) FindActiveBySpace(ctx context.Context, spaceNumber string) (*parking.Reservation, error) {
	r, err := scanReservation(s.DB.QueryRow(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE space_no=$1 AND status='active'`, spaceNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, parking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select active reservation for %s: %w", spaceNumber, err)
	}
	return r, nil
}

func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM reservations WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete reservation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return parking.ErrNotFound
	}
	return nil
}

// ---------- history ----------

const historyCols = `id, payment_id, space_no, user_email, reserve_time, checkout_time,
	requested_checkout_time, status, charge_minor, bill_id, created_at, archived_at`

func (s *Store) ArchiveReservation(ctx context.Context, h *parking.ReservationHistory) error {
	tag, err := s.DB.Exec(ctx, `
		INSERT INTO reservation_history (`+historyCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`,
		h.ID, h.PaymentID, h.SpaceNumber, h.UserEmail, h.ReserveTime, h.CheckoutTime,
		h.RequestedCheckoutTime, string(h.Status), int64(h.Charge), h.BillID, h.CreatedAt, h.ArchivedAt)
	if err != nil {
		return fmt.Errorf("insert reservation history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return parking.ErrAlreadyExists
	}
	return nil
}

func (s *Store) GetHistory(ctx context.Context, id string) (*parking.ReservationHistory, error) {
	var h parking.ReservationHistory
	var status string
	var charge int64
	err := s.DB.QueryRow(ctx, `SELECT `+historyCols+` FROM reservation_history WHERE id=$1`, id).Scan(
		&h.ID, &h.PaymentID, &h.SpaceNumber, &h.UserEmail, &h.ReserveTime, &h.CheckoutTime,
		&h.RequestedCheckoutTime, &status, &charge, &h.BillID, &h.CreatedAt, &h.ArchivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, parking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select reservation history %s: %w", id, err)
	}
	h.Status = parking.ReservationStatus(status)
	h.Charge = billing.Money(charge)
	return &h, nil
}

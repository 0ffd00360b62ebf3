// Package memstore is a process-local parking.Store. It backs tests and
// STORE_BACKEND=memory runs; every conditional write is checked under one
// mutex, matching the guarantees of the database stores.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
)

type Store struct {
	mu           sync.Mutex
	spaces       map[string]parking.Space
	payments     map[string]parking.Payment
	reservations map[string]parking.Reservation
	history      map[string]parking.ReservationHistory
}

var _ parking.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		spaces:       map[string]parking.Space{},
		payments:     map[string]parking.Payment{},
		reservations: map[string]parking.Reservation{},
		history:      map[string]parking.ReservationHistory{},
	}
}

// PutSpace inserts or replaces a space. Provisioning lives outside the
// service, so this is the only way spaces appear.
func (s *Store) PutSpace(sp parking.Space) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sp.Status == "" {
		sp.Status = parking.SpaceAvailable
	}
	s.spaces[sp.SpaceNumber] = sp
}

func (s *Store) GetSpace(_ context.Context, spaceNumber string) (*parking.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.spaces[spaceNumber]
	if !ok {
		return nil, parking.ErrNotFound
	}
	return &sp, nil
}

func (s *Store) ListAvailable(_ context.Context, limit int, after string) (parking.SpacePage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.spaces))
	for k := range s.spaces {
		if k > after {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var page parking.SpacePage
	for i, k := range keys {
		sp := s.spaces[k]
		if !sp.Reservable() {
			continue
		}
		page.Items = append(page.Items, sp)
		if len(page.Items) == limit {
			if i < len(keys)-1 {
				page.Next = k
			}
			break
		}
	}
	return page, nil
}

func (s *Store) ReserveSpace(_ context.Context, spaceNumber, holder string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.spaces[spaceNumber]
	if !ok {
		return parking.ErrNotFound
	}
	if sp.ReservedBy == holder && sp.Reserved {
		return nil
	}
	if !sp.Reservable() {
		return parking.ErrConditionFailed
	}
	sp.Reserved = true
	sp.Status = parking.SpaceReserved
	sp.ReservedBy = holder
	sp.ReservationDate = &at
	sp.UpdatedAt = at
	s.spaces[spaceNumber] = sp
	return nil
}

func (s *Store) ReleaseSpace(_ context.Context, spaceNumber, holder string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.spaces[spaceNumber]
	if !ok {
		return parking.ErrNotFound
	}
	if !sp.Reserved {
		return nil
	}
	if sp.ReservedBy != holder {
		return parking.ErrConditionFailed
	}
	sp.Reserved = false
	sp.Status = parking.SpaceAvailable
	sp.ReservedBy = ""
	sp.ReservationDate = nil
	sp.UpdatedAt = at
	s.spaces[spaceNumber] = sp
	return nil
}

func (s *Store) CreatePayment(_ context.Context, p *parking.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; ok {
		return parking.ErrAlreadyExists
	}
	s.payments[p.ID] = *p
	return nil
}

func (s *Store) GetPayment(_ context.Context, id string) (*parking.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, parking.ErrNotFound
	}
	return &p, nil
}

func (s *Store) TransitionPayment(_ context.Context, id string, from []parking.PaymentStatus, to parking.PaymentStatus, upd parking.PaymentUpdate) (*parking.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, parking.ErrNotFound
	}
	if !slices.Contains(from, p.Status) {
		return nil, parking.ErrConditionFailed
	}
	p.Status = to
	if upd.TransactionID != "" {
		p.TransactionID = upd.TransactionID
	}
	if upd.PaymentMethod != "" {
		p.PaymentMethod = upd.PaymentMethod
	}
	p.UpdatedAt = upd.At
	s.payments[id] = p
	return &p, nil
}

// CreateReservation refuses a second active reservation for the same space
// with ErrConditionFailed.
func (s *Store) CreateReservation(_ context.Context, r *parking.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[r.ID]; ok {
		return parking.ErrAlreadyExists
	}
	if r.Status == parking.ReservationActive {
		for _, other := range s.reservations {
			if other.SpaceNumber == r.SpaceNumber && other.Status == parking.ReservationActive {
				return parking.ErrConditionFailed
			}
		}
	}
	s.reservations[r.ID] = *r
	return nil
}

func (s *Store) GetReservation(_ context.Context, id string) (*parking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, parking.ErrNotFound
	}
	return &r, nil
}

func (s *Store) FindActiveBySpace(_ context.Context, spaceNumber string) (*parking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.SpaceNumber == spaceNumber && r.Status == parking.ReservationActive {
			return &r, nil
		}
	}
	return nil, parking.ErrNotFound
}

func (s *Store) DeleteReservation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[id]; !ok {
		return parking.ErrNotFound
	}
	delete(s.reservations, id)
	return nil
}

func (s *Store) ArchiveReservation(_ context.Context, h *parking.ReservationHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.history[h.ID]; ok {
		return parking.ErrAlreadyExists
	}
	s.history[h.ID] = *h
	return nil
}

func (s *Store) GetHistory(_ context.Context, id string) (*parking.ReservationHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.history[id]
	if !ok {
		return nil, parking.ErrNotFound
	}
	return &h, nil
}

// Counts reports table sizes; tests use it to prove writes did or did not happen.
func (s *Store) Counts() (payments, reservations, history int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments), len(s.reservations), len(s.history)
}

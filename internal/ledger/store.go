package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bodega55/fototrack/internal/lifecycle"
)

// ErrNotFound is returned when an operation references an unknown photo ID.
var ErrNotFound = errors.New("photo not found")

// Store owns the photo and return ledgers. It is safe for concurrent use:
// a single mutex funnels every read-modify-write, which is what keeps two
// simultaneous confirmations or returns against the same ID from racing.
type Store struct {
	mu      sync.Mutex
	photos  map[string]*PhotoRecord
	returns map[string]*ReturnRecord
	builder lifecycle.StateMachineBuilder
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		photos:  make(map[string]*PhotoRecord),
		returns: make(map[string]*ReturnRecord),
		builder: lifecycle.NewPhotoLifecycle(),
	}
}

// NewStoreFrom seeds a store from loaded snapshot collections. Records from
// the confirmed partition whose ID also appears in the return ledger come
// back as RETURNED; return records without a confirmed photo are dropped,
// since a return may only exist for a confirmed photo.
func NewStoreFrom(pending, confirmed map[string]*PhotoRecord, returns map[string]*ReturnRecord) *Store {
	s := NewStore()
	for id, rec := range pending {
		rec.State = lifecycle.StatePending
		s.photos[id] = rec
	}
	for id, rec := range confirmed {
		rec.State = lifecycle.StateConfirmed
		if _, returned := returns[id]; returned {
			rec.State = lifecycle.StateReturned
		}
		s.photos[id] = rec
	}
	for id, ret := range returns {
		if _, ok := s.photos[id]; ok {
			s.returns[id] = ret
		}
	}
	return s
}

// RegisterPending inserts a new pending record. Duplicate delivery of the
// same attachment event is expected; if the ID is already tracked in any
// state the call is a no-op and returns false.
func (s *Store) RegisterPending(id string, rec *PhotoRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.photos[id]; exists {
		return false
	}

	clone := rec.Clone()
	clone.State = lifecycle.StatePending
	s.photos[id] = clone
	return true
}

// Confirm transitions a pending record to confirmed and attaches the
// reviewer identity and extracted metadata.
func (s *Store) Confirm(ctx context.Context, id string, c Confirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.photos[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	machine := s.builder.Build(rec.State)
	if err := machine.Fire(ctx, lifecycle.TriggerConfirm); err != nil {
		return err
	}

	rec.State = machine.State()
	rec.Confirmer = c.Confirmer
	rec.ConfirmerNumber = c.ConfirmerNumber
	ts := c.Timestamp
	rec.ConfirmedAt = &ts
	rec.ConfirmationText = c.Message
	rec.Sizes = append([]float64(nil), c.Sizes...)
	rec.Color = c.Color
	rec.Method = c.Method
	return nil
}

// MarkReturned records a return for a confirmed photo. Re-marking an
// already returned photo overwrites the prior return record (last write
// wins). A pending photo cannot be returned.
func (s *Store) MarkReturned(ctx context.Context, id string, ret *ReturnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.photos[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	machine := s.builder.Build(rec.State)
	if err := machine.Fire(ctx, lifecycle.TriggerReturn); err != nil {
		return err
	}

	rec.State = machine.State()
	clone := *ret
	if clone.FileName == "" {
		clone.FileName = rec.FileName
	}
	s.returns[id] = &clone
	return nil
}

// IsConfirmed reports whether the ID is in the confirmed partition. Returned
// photos stay in that partition, so re-marking them remains possible.
func (s *Store) IsConfirmed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.photos[id]
	return exists && rec.State != lifecycle.StatePending
}

// IsPending reports whether the ID is awaiting confirmation.
func (s *Store) IsPending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.photos[id]
	return exists && rec.State == lifecycle.StatePending
}

// Pending returns a deep copy of the pending partition.
func (s *Store) Pending() map[string]*PhotoRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*PhotoRecord)
	for id, rec := range s.photos {
		if rec.State == lifecycle.StatePending {
			out[id] = rec.Clone()
		}
	}
	return out
}

// Confirmed returns a deep copy of the confirmed partition, including
// returned photos.
func (s *Store) Confirmed() map[string]*PhotoRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*PhotoRecord)
	for id, rec := range s.photos {
		if rec.State != lifecycle.StatePending {
			out[id] = rec.Clone()
		}
	}
	return out
}

// Returns returns a copy of the return ledger.
func (s *Store) Returns() map[string]*ReturnRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*ReturnRecord, len(s.returns))
	for id, ret := range s.returns {
		clone := *ret
		out[id] = &clone
	}
	return out
}

// StateOf returns the lifecycle state of a photo, or false if unknown.
func (s *Store) StateOf(id string) (lifecycle.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.photos[id]
	if !exists {
		return "", false
	}
	return rec.State, true
}

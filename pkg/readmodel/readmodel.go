// Package readmodel defines the collaborator contracts the engine reads
// from and submits through, plus a thread-safe in-memory implementation.
package readmodel

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

// Provider exposes the caller-owned state for one kind of record. A missing
// current value means "not loaded yet".
type Provider[R any] interface {
	CurrentValue(owner string) (valuebag.Bag, bool)
	Rows(owner string) []R
	IsLoading(owner string) bool
}

// LoadFunc fetches an owner's data into the read model. Calling it while a
// load is outstanding must be harmless.
type LoadFunc func(ctx context.Context, owner string) error

// SubmitFunc sends a payload and returns the value the server resolved.
// Delete requests travel through the same function.
type SubmitFunc func(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error)

type record[R any] struct {
	value   valuebag.Bag
	hasVal  bool
	rows    []R
	loading bool
}

// Store is an in-memory Provider. Values are copied on the way in and out so
// no caller can mutate stored state in place.
type Store[R any] struct {
	mu      sync.RWMutex
	records map[string]*record[R]
}

// NewStore returns an empty store.
func NewStore[R any]() *Store[R] {
	return &Store[R]{records: make(map[string]*record[R])}
}

// CurrentValue implements Provider.
func (s *Store[R]) CurrentValue(owner string) (valuebag.Bag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[owner]
	if !ok || !rec.hasVal {
		return nil, false
	}
	return rec.value.Clone(), true
}

// Rows implements Provider. The returned slice is a copy.
func (s *Store[R]) Rows(owner string) []R {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[owner]
	if !ok {
		return nil
	}
	return append([]R(nil), rec.rows...)
}

// IsLoading implements Provider.
func (s *Store[R]) IsLoading(owner string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[owner]
	return ok && rec.loading
}

// PutValue replaces the owner's current value wholesale.
func (s *Store[R]) PutValue(owner string, value valuebag.Bag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.recordLocked(owner)
	rec.value = value.Clone()
	rec.hasVal = true
}

// DropValue forgets the owner's current value, as after a delete.
func (s *Store[R]) DropValue(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[owner]; ok {
		rec.value = nil
		rec.hasVal = false
	}
}

// PutRows replaces the owner's row collection.
func (s *Store[R]) PutRows(owner string, rows []R) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordLocked(owner).rows = append([]R(nil), rows...)
}

// SetLoading flips the owner's loading flag.
func (s *Store[R]) SetLoading(owner string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordLocked(owner).loading = loading
}

// HasRows reports whether rows were ever stored for owner.
func (s *Store[R]) HasRows(owner string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[owner]
	return ok && rec.rows != nil
}

// Loader wraps fetch so the store's loading flag tracks the call and the
// fetched rows land in the store.
func (s *Store[R]) Loader(fetch func(ctx context.Context, owner string) ([]R, error)) LoadFunc {
	return func(ctx context.Context, owner string) error {
		s.SetLoading(owner, true)
		defer s.SetLoading(owner, false)
		rows, err := fetch(ctx, owner)
		if err != nil {
			return errors.Wrapf(err, "readmodel: load %s", owner)
		}
		if rows == nil {
			rows = []R{}
		}
		s.PutRows(owner, rows)
		return nil
	}
}

// Dispatcher wraps send so a successful result replaces the owner's current
// value, and a delete drops it.
func (s *Store[R]) Dispatcher(owner string, send SubmitFunc) SubmitFunc {
	return func(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error) {
		if send == nil {
			return nil, errors.New("readmodel: no submit function")
		}
		result, err := send(ctx, payload)
		if err != nil {
			return nil, err
		}
		if IsDelete(payload) {
			s.DropValue(owner)
			return result, nil
		}
		s.PutValue(owner, result)
		return result, nil
	}
}

// DeleteKey marks a delete request inside a submit payload.
const DeleteKey = "delete"

// IsDelete reports whether payload is a delete request.
func IsDelete(payload valuebag.Bag) bool {
	flag, _ := payload[DeleteKey].(bool)
	return flag
}

func (s *Store[R]) recordLocked(owner string) *record[R] {
	rec, ok := s.records[owner]
	if !ok {
		rec = &record[R]{}
		s.records[owner] = rec
	}
	return rec
}

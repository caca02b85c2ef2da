package record

import (
	"context"
	"fmt"
	"sync"
)

// Backend loads and saves the whole record list as one document. Both
// bundled backends (a JSON file and a single redis key) work this way, so
// the CRUD operations share one read-modify-write core.
type Backend interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, recs []Record) error
}

// ListStore implements Store over a Backend. A process-wide mutex
// serializes read-modify-write cycles; the backend only ever sees whole
// consistent lists.
type ListStore struct {
	mu sync.Mutex
	b  Backend
}

// NewListStore wraps a backend in the full Store contract.
func NewListStore(b Backend) *ListStore {
	return &ListStore{b: b}
}

func (s *ListStore) LoadAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Load(ctx)
}

func (s *ListStore) SaveAll(ctx context.Context, recs []Record) error {
	for i, r := range recs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Save(ctx, recs)
}

// Add validates r, assigns id and timestamps, and appends it to the list.
func (s *ListStore) Add(ctx context.Context, r Record) (Record, error) {
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.b.Load(ctx)
	if err != nil {
		return Record{}, err
	}
	r = Stamp(r)
	if err := s.b.Save(ctx, append(list, r)); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Update merges p into the stored record. Returns ErrNotFound for an
// unknown id; a patch that would invalidate the record is rejected and
// nothing is written.
func (s *ListStore) Update(ctx context.Context, id string, p Patch) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.b.Load(ctx)
	if err != nil {
		return Record{}, err
	}
	for i, rec := range list {
		if rec.ID != id {
			continue
		}
		merged := p.Apply(rec)
		if err := merged.Validate(); err != nil {
			return Record{}, err
		}
		list[i] = merged
		if err := s.b.Save(ctx, list); err != nil {
			return Record{}, err
		}
		return merged, nil
	}
	return Record{}, ErrNotFound
}

func (s *ListStore) ListByURL(ctx context.Context, url string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.b.Load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range list {
		if rec.URL == url {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Delete removes the record with the given id. The second call for the
// same id reports false.
func (s *ListStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.b.Load(ctx)
	if err != nil {
		return false, err
	}
	for i, rec := range list {
		if rec.ID != id {
			continue
		}
		list = append(list[:i], list[i+1:]...)
		if err := s.b.Save(ctx, list); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *ListStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.b.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// ClearByURL removes every record for the page and reports how many went.
func (s *ListStore) ClearByURL(ctx context.Context, url string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.b.Load(ctx)
	if err != nil {
		return 0, err
	}
	kept := list[:0]
	for _, rec := range list {
		if rec.URL != url {
			kept = append(kept, rec)
		}
	}
	removed := len(list) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.b.Save(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

package audit

import "context"

// Reader queries stored events.
type Reader struct {
	storage Storage
}

// NewReader creates a Reader. Panics if storage is nil.
func NewReader(storage Storage) *Reader {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	return &Reader{storage: storage}
}

// Find returns the events matching criteria, newest first.
func (r *Reader) Find(ctx context.Context, criteria Criteria) ([]Event, error) {
	return r.storage.Query(ctx, criteria)
}

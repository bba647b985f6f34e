package trial

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps rules in memory. It backs tests and file-based deployments
// where rules are loaded once from YAML.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[uuid.UUID]Rule
}

// NewMemoryStore returns a store seeded with rules. Rules without an ID get one.
func NewMemoryStore(rules ...Rule) (*MemoryStore, error) {
	s := &MemoryStore{rules: make(map[uuid.UUID]Rule, len(rules))}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if _, exists := s.rules[r.ID]; exists {
			return nil, errors.Join(ErrInvalidArgument, ErrInvalidRule, errors.New("duplicate rule ID "+r.ID.String()))
		}
		s.rules[r.ID] = r.Clone()
	}
	return s, nil
}

func (s *MemoryStore) ListRules(_ context.Context, activeOnly bool) ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if activeOnly && !r.IsActive {
			continue
		}
		result = append(result, r.Clone())
	}
	slices.SortFunc(result, func(a, b Rule) int {
		if c := cmp.Compare(NormalizeCode(a.PromoCode), NormalizeCode(b.PromoCode)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return result, nil
}

func (s *MemoryStore) GetRule(_ context.Context, id uuid.UUID) (*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	c := r.Clone()
	return &c, nil
}

// SaveRule creates or replaces a rule. A nil ID is assigned before storing.
func (s *MemoryStore) SaveRule(_ context.Context, r *Rule) error {
	if r == nil {
		return errors.Join(ErrInvalidArgument, ErrInvalidRule)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = r.Clone()
	return nil
}

func (s *MemoryStore) DeleteRule(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return ErrRuleNotFound
	}
	delete(s.rules, id)
	return nil
}

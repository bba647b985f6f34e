package audit

import (
	"context"
	"errors"
	"time"
)

// Result is the outcome of an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultError   Result = "error"
)

// Event is a single audit log entry.
type Event struct {
	ID         string         `json:"id"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource,omitempty"`
	ResourceID string         `json:"resource_id,omitempty"`
	Result     Result         `json:"result"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	IP         string         `json:"ip,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Validate checks the fields every stored event must carry.
func (e *Event) Validate() error {
	if e.Action == "" {
		return errors.Join(ErrEventValidation, errors.New("action is required"))
	}
	if e.Actor == "" {
		return errors.Join(ErrEventValidation, errors.New("actor is required"))
	}
	return nil
}

// EventOption sets event fields in Log and LogError.
type EventOption func(*Event)

// Criteria filters events. Zero fields match everything.
type Criteria struct {
	Actor      string
	Action     string
	Resource   string
	ResourceID string
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

// Matches reports whether e satisfies every set filter. Since is inclusive,
// Until exclusive.
func (c Criteria) Matches(e Event) bool {
	switch {
	case c.Actor != "" && e.Actor != c.Actor:
		return false
	case c.Action != "" && e.Action != c.Action:
		return false
	case c.Resource != "" && e.Resource != c.Resource:
		return false
	case c.ResourceID != "" && e.ResourceID != c.ResourceID:
		return false
	case !c.Since.IsZero() && e.CreatedAt.Before(c.Since):
		return false
	case !c.Until.IsZero() && !e.CreatedAt.Before(c.Until):
		return false
	}
	return true
}

// Storage persists events. Query returns matches newest first.
type Storage interface {
	Store(ctx context.Context, event Event) error
	Query(ctx context.Context, criteria Criteria) ([]Event, error)
}

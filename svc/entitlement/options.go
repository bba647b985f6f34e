package entitlement

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now. Nil is ignored.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStoreTimeout bounds every store call. Zero disables the bound.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithAuditStorage sets where admin actions are recorded. Without it events
// are kept in memory. Nil is ignored.
func WithAuditStorage(st audit.Storage) Option {
	return func(s *Service) {
		if st != nil {
			s.auditStorage = st
		}
	}
}

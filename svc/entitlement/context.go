package entitlement

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/entitlekit/pkg/clientip"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
)

// ActorHeader carries the acting administrator on admin routes.
// Authentication happens in front of this service.
const ActorHeader = "X-Actor-ID"

func actorFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(ActorHeader))
}

// RequestIDExtractor enriches log records with the chi request ID.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := middleware.GetReqID(ctx); id != "" {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	}
}

func requestIDFromContext(ctx context.Context) (string, bool) {
	id := middleware.GetReqID(ctx)
	return id, id != ""
}

func clientIPFromContext(ctx context.Context) (string, bool) {
	ip := clientip.FromContext(ctx)
	return ip, ip != ""
}

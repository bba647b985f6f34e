package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under "error". A nil error yields an empty Attr, which
// slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors", keyed by position.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return Group("errors", as...)
}

func UserID(id string) slog.Attr {
	return optional("user_id", id)
}

// Actor records who performed an administrative change.
func Actor(id string) slog.Attr {
	return optional("actor", id)
}

func RequestID(id string) slog.Attr {
	return optional("request_id", id)
}

func SubscriptionID(id string) slog.Attr {
	return optional("subscription_id", id)
}

func Capability(name string) slog.Attr {
	return optional("capability", name)
}

func PromoCode(code string) slog.Attr {
	return optional("promo_code", code)
}

// Layer records which override layer decided a value.
func Layer(name string) slog.Attr {
	return optional("layer", name)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func optional(key, value string) slog.Attr {
	if value == "" {
		return slog.Attr{}
	}
	return slog.String(key, value)
}

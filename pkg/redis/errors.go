package redis

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("redis: empty connection url")
	ErrFailedToParseURL   = errors.New("redis: failed to parse connection url")
	ErrRedisNotReady      = errors.New("redis: server not ready before deadline")
	ErrHealthcheckFailed  = errors.New("redis: healthcheck failed")
)

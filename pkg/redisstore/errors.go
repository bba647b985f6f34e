package redisstore

import "errors"

var (
	ErrCommandFailed = errors.New("redisstore: command failed")
	ErrEncodeFailed  = errors.New("redisstore: failed to encode record")
	ErrDecodeFailed  = errors.New("redisstore: failed to decode record")
)

package mongostore

import "errors"

var (
	ErrCommandFailed = errors.New("mongostore: command failed")
	ErrDecodeFailed  = errors.New("mongostore: failed to decode document")
)

package pgstore

import (
	"errors"

	"github.com/dmitrymomot/entitlekit/pkg/pg"
)

var (
	ErrQueryFailed         = errors.New("pgstore: query failed")
	ErrEncodeFailed        = errors.New("pgstore: failed to encode column")
	ErrDecodeFailed        = errors.New("pgstore: failed to decode column")
	ErrConstraintViolation = errors.New("pgstore: constraint violation")
)

// writeError classifies a failed write. Constraint violations are the
// caller's fault and carry invalid.
func writeError(invalid, err error) error {
	if pg.IsConstraintError(err) {
		return errors.Join(invalid, ErrConstraintViolation, err)
	}
	return errors.Join(ErrQueryFailed, err)
}

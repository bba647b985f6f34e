package entitlement

import (
	"bytes"
	"database/sql/driver"
	"fmt"
)

// TriState is an override value that is either inherited (Unset) or explicitly
// set to true or false. The zero value is Unset.
type TriState uint8

const (
	Unset TriState = iota
	True
	False
)

// Set converts a bool into an explicit TriState.
func Set(v bool) TriState {
	if v {
		return True
	}
	return False
}

func (t TriState) Valid() bool {
	return t <= False
}

// IsSet reports whether the value overrides the inherited one.
func (t TriState) IsSet() bool {
	return t == True || t == False
}

// Bool returns the explicit value and whether one is present.
func (t TriState) Bool() (value, ok bool) {
	switch t {
	case True:
		return true, true
	case False:
		return false, true
	default:
		return false, false
	}
}

func (t TriState) String() string {
	switch t {
	case Unset:
		return "unset"
	case True:
		return "true"
	case False:
		return "false"
	default:
		return fmt.Sprintf("TriState(%d)", uint8(t))
	}
}

// ParseTriState accepts "true", "false" and "unset"; an empty string or "null" is Unset.
func ParseTriState(s string) (TriState, error) {
	switch s {
	case "", "unset", "null":
		return Unset, nil
	case "true":
		return True, nil
	case "false":
		return False, nil
	default:
		return Unset, invalid(fmt.Errorf("%w: %q", ErrInvalidTriState, s))
	}
}

func (t TriState) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, invalid(ErrInvalidTriState)
	}
	return []byte(t.String()), nil
}

func (t *TriState) UnmarshalText(b []byte) error {
	v, err := ParseTriState(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalJSON encodes Unset as null and explicit values as JSON booleans.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case Unset:
		return []byte("null"), nil
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	default:
		return nil, invalid(ErrInvalidTriState)
	}
}

func (t *TriState) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	return t.UnmarshalText(b)
}

// Value implements driver.Valuer.
func (t TriState) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, invalid(ErrInvalidTriState)
	}
	return t.String(), nil
}

// Scan implements sql.Scanner. NULL scans as Unset.
func (t *TriState) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Unset
		return nil
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	case bool:
		*t = Set(v)
		return nil
	default:
		return invalid(fmt.Errorf("%w: cannot scan %T", ErrInvalidTriState, src))
	}
}

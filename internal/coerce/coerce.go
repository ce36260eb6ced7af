// Package coerce turns raw operator input into typed column values.
//
// Every format rule lives here so callers only ever see a typed value or an
// *InvalidInputError; whether to re-prompt or abort is left to them.
package coerce

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Rana718/dataorganizer/internal/types"
)

var (
	ErrNotInteger  = errors.New("not a base-10 integer")
	ErrNotFloat    = errors.New("not a floating point number")
	ErrBadDate     = errors.New("not a valid calendar date")
	ErrBadTime     = errors.New("not a valid time of day")
	ErrBadInterval = errors.New("not a valid interval")
)

// InvalidInputError reports a raw value rejected for a column.
type InvalidInputError struct {
	Column string
	CType  string
	Hint   string
	Err    error
}

func (e *InvalidInputError) Error() string {
	msg := fmt.Sprintf("invalid input for column %s with type %s", e.Column, e.CType)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// IsInvalidInput reports whether err is (or wraps) an *InvalidInputError.
func IsInvalidInput(err error) bool {
	var inv *InvalidInputError
	return errors.As(err, &inv)
}

type coerceFunc func(raw string) (any, string, error)

var coercers = map[types.ColumnKind]coerceFunc{
	types.KindInt:      coerceInt,
	types.KindFloat:    coerceFloat,
	types.KindDate:     coerceDate,
	types.KindTime:     coerceTime,
	types.KindInterval: coerceInterval,
}

// Value coerces raw for col. Null tokens on nullable columns win over
// defaults, defaults win over type parsing.
func Value(col types.ColumnSpec, raw string) (any, error) {
	if col.IsNullable && isNullToken(raw) {
		return nil, nil
	}
	if col.Default != nil && raw == "" {
		return col.TypedDefault(), nil
	}

	fn, ok := coercers[col.Kind]
	if !ok {
		return raw, nil
	}

	v, hint, err := fn(raw)
	if err != nil {
		return nil, &InvalidInputError{Column: col.Name, CType: col.CType, Hint: hint, Err: err}
	}
	return v, nil
}

// Preset coerces a value supplied by the caller instead of the prompt.
// Byte payloads pass through; other scalars are rendered in a form the
// database reads back and parsed so the result has the column's type.
func Preset(col types.ColumnSpec, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return Value(col, "")
	case string:
		return Value(col, val)
	case []byte:
		return val, nil
	case time.Time:
		return Value(col, formatTime(col.Kind, val))
	default:
		return Value(col, fmt.Sprint(val))
	}
}

func formatTime(kind types.ColumnKind, t time.Time) string {
	switch kind {
	case types.KindDate:
		return t.Format("2006-01-02")
	case types.KindTime:
		return t.Format("15:04:05")
	}
	if t.Location() == time.UTC {
		return t.Format("2006-01-02 15:04:05.999999999")
	}
	return t.Format("2006-01-02 15:04:05.999999999-07:00")
}

func isNullToken(raw string) bool {
	if raw == "" {
		return true
	}
	upper := strings.ToUpper(raw)
	return upper == "NULL" || upper == "NONE"
}

func coerceInt(raw string) (any, string, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", ErrNotInteger, raw)
	}
	return v, "", nil
}

func coerceFloat(raw string) (any, string, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", ErrNotFloat, raw)
	}
	return v, "", nil
}

const dateHint = "Use YYYY-MM-DD (iso format) for DATE columns"

func coerceDate(raw string) (any, string, error) {
	if len(raw) != len("2006-01-02") {
		return nil, dateHint, fmt.Errorf("%w: %q", ErrBadDate, raw)
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return nil, dateHint, fmt.Errorf("%w: %q", ErrBadDate, raw)
	}
	return raw, "", nil
}

const timeHint = "Use HH:MM, or HH:MM:SS (iso format) for TIME columns"

// coerceTime accepts HH:MM and HH:MM:SS. A bare HH is rejected even though
// it is a valid ISO time, the database does not take it.
func coerceTime(raw string) (any, string, error) {
	var layout string
	switch len(raw) {
	case len("15:04"):
		layout = "15:04"
	case len("15:04:05"):
		layout = "15:04:05"
	default:
		return nil, timeHint, fmt.Errorf("%w: %q", ErrBadTime, raw)
	}
	if _, err := time.Parse(layout, raw); err != nil {
		return nil, timeHint, fmt.Errorf("%w: %q", ErrBadTime, raw)
	}
	return raw, "", nil
}

const intervalHint = "Only HH:MM:SS or HH:MM formats are supported"

// coerceInterval accepts HH:MM or HH:MM:SS with unbounded hours. Spaces are
// dropped and the normalized form is returned.
func coerceInterval(raw string) (any, string, error) {
	value := strings.ReplaceAll(raw, " ", "")
	if !strings.Contains(value, ":") {
		return nil, intervalHint, fmt.Errorf("%w: %q has no ':'", ErrBadInterval, raw)
	}

	elems := strings.Split(value, ":")
	if len(elems) != 2 && len(elems) != 3 {
		return nil, intervalHint, fmt.Errorf("%w: %q has %d elements", ErrBadInterval, raw, len(elems))
	}

	for i, elem := range elems {
		if elem == "" {
			return nil, fmt.Sprintf("Element %d is empty", i), fmt.Errorf("%w: %q", ErrBadInterval, raw)
		}
		n, err := strconv.Atoi(elem)
		if err != nil {
			return nil, intervalHint, fmt.Errorf("%w: element %d of %q is not an integer", ErrBadInterval, i, raw)
		}
		if i != 0 && n >= 60 {
			return nil, fmt.Sprintf("Element %d must be < 60", i), fmt.Errorf("%w: %q", ErrBadInterval, raw)
		}
	}

	return value, "", nil
}

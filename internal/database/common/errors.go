package common

import (
	"errors"
	"fmt"
)

var (
	ErrTableNotExists      = errors.New("table does not exist")
	ErrQueryReturnedNoData = errors.New("query returned no data")
	ErrUnsupportedColumn   = errors.New("unsupported column definition")
)

// InvalidDataError is returned when a row does not have one value per
// insert column.
type InvalidDataError struct {
	Table string
	Row   int
	Got   int
	Want  int
}

func (e *InvalidDataError) Error() string {
	return fmt.Sprintf("row %d for table %s has %d values, %d columns expected", e.Row, e.Table, e.Got, e.Want)
}

// BinaryDataError is returned when a BYTEA value cannot be turned into a
// binary payload.
type BinaryDataError struct {
	Column string
	Value  any
	Err    error
}

func (e *BinaryDataError) Error() string {
	msg := fmt.Sprintf("value for column %s could not be converted to binary properly (got %T)", e.Column, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BinaryDataError) Unwrap() error { return e.Err }

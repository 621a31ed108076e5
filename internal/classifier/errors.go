package classifier

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below via errors.Is.
var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrEmptyDataset    = errors.New("empty dataset")
	ErrInvalidQuery    = errors.New("invalid query")
)

// MalformedRecordError reports the first record that failed validation.
type MalformedRecordError struct {
	Date   string // Date key of the offending record
	Field  string // Name of the offending field
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("malformed record %q: field %s", e.Date, e.Field)
	}
	return fmt.Sprintf("malformed record %q: field %s: %s", e.Date, e.Field, e.Reason)
}

// Is reports whether target is ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

// EmptyDatasetError is returned when there is nothing to train on.
type EmptyDatasetError struct{}

func (e *EmptyDatasetError) Error() string { return "dataset contains no records" }

// Is reports whether target is ErrEmptyDataset.
func (e *EmptyDatasetError) Is(target error) bool { return target == ErrEmptyDataset }

// InvalidQueryError is returned when a query vector does not fit the tree.
type InvalidQueryError struct {
	Want int
	Got  int
}

func (e *InvalidQueryError) Error() string {
	if e.Want == 0 {
		return "query against an untrained tree"
	}
	return fmt.Sprintf("query vector has %d features, tree expects %d", e.Got, e.Want)
}

// Is reports whether target is ErrInvalidQuery.
func (e *InvalidQueryError) Is(target error) bool { return target == ErrInvalidQuery }

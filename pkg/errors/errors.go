package errors

import "fmt"

// ErrNotFound is returned when a canonical entity is not found.
type ErrNotFound struct {
	Resource string
	Key      string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// ErrMalformedItem marks a source record missing a required field. The item
// is skipped and counted; it never aborts the batch.
type ErrMalformedItem struct {
	Field  string
	Detail string
}

func (e *ErrMalformedItem) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("malformed item: missing %s (%s)", e.Field, e.Detail)
	}
	return fmt.Sprintf("malformed item: missing %s", e.Field)
}

// ErrUnresolved marks an identity-resolution miss: the record is valid but
// nothing local matches its category, parameter or manufacturer reference.
// Counted apart from hard errors.
type ErrUnresolved struct {
	Resource string
	Key      string
}

func (e *ErrUnresolved) Error() string {
	return fmt.Sprintf("could not resolve %s: %s", e.Resource, e.Key)
}

// ErrEmptySource is the catastrophic case: a prerequisite data set came back
// empty, the whole sync-type call aborts and the run is marked failed.
type ErrEmptySource struct {
	SyncType string
}

func (e *ErrEmptySource) Error() string {
	return fmt.Sprintf("source returned no data for %s", e.SyncType)
}

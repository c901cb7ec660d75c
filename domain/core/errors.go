package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Query errors
	ErrInvalidQuery     = errors.New("invalid query")
	ErrInvalidTolerance = fmt.Errorf("%w: tolerance", ErrInvalidQuery)
	ErrInvalidCenter    = fmt.Errorf("%w: center", ErrInvalidQuery)
	ErrUnknownField     = fmt.Errorf("%w: unknown category field", ErrInvalidQuery)

	// Data errors
	ErrInsufficientData = errors.New("insufficient data for estimate")
	ErrSchemaInvalid    = errors.New("schema does not match dataset")
	ErrMissingColumn    = fmt.Errorf("%w: missing column", ErrSchemaInvalid)

	// Source errors
	ErrSourceUnavailable = errors.New("data source unavailable")
	ErrEmptySource       = fmt.Errorf("%w: no data rows", ErrSourceUnavailable)
	ErrNotLoaded         = errors.New("catalog not loaded")
)

// Error constructors with context
func NewQueryError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidQuery, field, reason)
}

func NewMissingColumnError(column string, role string) error {
	return fmt.Errorf("%w %q (%s)", ErrMissingColumn, column, role)
}

func NewSourceError(source string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, source, err)
}

// Error checking helpers
func IsQueryError(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchemaInvalid)
}

func IsSourceError(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

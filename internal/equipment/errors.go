package equipment

import (
	"fmt"
	"strings"
)

// SchemaError is returned when required columns are absent from an upload.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("Missing columns: %s", strings.Join(e.Missing, ", "))
}

// TypeError is returned when a measure column holds a value that is not a number.
type TypeError struct {
	Column string
	Row    int    // 1-based data row, header excluded
	Value  string // offending raw cell
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("Column %s must be numeric", e.Column)
}

// EmptyInputError is returned when no data rows survive parsing.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "File is empty"
}

// ParseError wraps a failure of the CSV reader itself.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Invalid CSV file: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

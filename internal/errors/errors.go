package appErrors

import "fmt"

// ParseError reports a file that is malformed or unusable for its declared format
type ParseError struct {
	Format string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse %s file: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to parse %s file: %s", e.Format, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError builds a ParseError for the given format
func NewParseError(format, reason string, err error) error {
	return &ParseError{Format: format, Reason: reason, Err: err}
}

// ValidationError reports input that parsed but is not acceptable
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// NoAgentsError is returned when a distribution is attempted with an empty roster
type NoAgentsError struct{}

func (e *NoAgentsError) Error() string {
	return "no agents found, please create agents first"
}

func NewNoAgentsError() error {
	return &NoAgentsError{}
}

// PersistenceError wraps a failed storage write
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// NotFoundError is a sentinel-style error for missing resources
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

func NewNotFound(resource string, id uint) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError reports a uniqueness violation such as a duplicate email
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflict(message string) error {
	return &ConflictError{Message: message}
}

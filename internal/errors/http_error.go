package errors

import "fmt"

// NotFoundError reports a parking lot id that matches no stored lot.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Parking lot with id %s does not exist.", e.ID)
}

func NewNotFound(id string) *NotFoundError {
	return &NotFoundError{ID: id}
}

// CapacityExceededError reports a reservation attempt against a full lot.
type CapacityExceededError struct {
	ID string
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("Parking lot with id %s is at full capacity.", e.ID)
}

func NewCapacityExceeded(id string) *CapacityExceededError {
	return &CapacityExceededError{ID: id}
}

// ValidationError carries one message per violated field, keyed by the
// field's JSON path (e.g. "location.shape.coordinates").
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload: %d field(s) failed validation", len(e.Fields))
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

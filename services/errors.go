package services

import "fmt"

// ErrServiceNotFound is returned when Call targets a service with no route
// and no local handler.
type ErrServiceNotFound struct {
	Service string
}

func (e *ErrServiceNotFound) Error() string {
	return fmt.Sprintf("services: collaborator not routable: %s", e.Service)
}

// ErrCircuitOpen is returned when a call is rejected because the service's
// circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("services: circuit open for %s", e.Service)
}

// CollaboratorError wraps a failure from one named collaborator so callers
// can tell the user which one misbehaved without parsing messages.
type CollaboratorError struct {
	Service string
	Cause   error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("services: collaborator %s: %v", e.Service, e.Cause)
}

func (e *CollaboratorError) Unwrap() error { return e.Cause }

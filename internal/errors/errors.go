package errors

import (
	"encoding/json"
	"fmt"
)

// ConflictErr is raised when unique customer attribute is already taken
type ConflictErr struct {
	field   string
	message string
}

func (e *ConflictErr) Error() string {
	return e.message
}

// Field returns name of the conflicting attribute
func (e *ConflictErr) Field() string {
	return e.field
}

func (e *ConflictErr) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}{Field: e.field, Message: e.message})
}

func NewConflictErr(field string, msg string) *ConflictErr {
	return &ConflictErr{
		field:   field,
		message: msg,
	}
}

type EntryNotFoundErr struct {
	message string
}

func (e *EntryNotFoundErr) Error() string {
	return e.message
}

func NewEntryNotFoundErr(msg string) *EntryNotFoundErr {
	return &EntryNotFoundErr{message: msg}
}

// ServiceUnavailableErr is raised when synchronous collaborator can't be reached
type ServiceUnavailableErr struct {
	service string
	message string
	cause   error
}

func (e *ServiceUnavailableErr) Error() string {
	if e.cause == nil {
		return e.message
	}
	return fmt.Sprintf("%s - %v", e.message, e.cause)
}

// Message returns client safe description
func (e *ServiceUnavailableErr) Message() string {
	return e.message
}

// Service returns name of unavailable collaborator
func (e *ServiceUnavailableErr) Service() string {
	return e.service
}

func (e *ServiceUnavailableErr) Unwrap() error {
	return e.cause
}

func NewServiceUnavailableErr(service string, msg string, cause error) *ServiceUnavailableErr {
	return &ServiceUnavailableErr{
		service: service,
		message: msg,
		cause:   cause,
	}
}

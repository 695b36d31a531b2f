package main

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrBookNotFound     = errors.New("book not found")
	ErrBookExists       = errors.New("book already exists")
	ErrValidation       = errors.New("invalid book")
	ErrConflict         = errors.New("the book already exists in the database")
	ErrInvalidInput     = errors.New("invalid input")
	ErrGenerationFailed = errors.New("error generating description from AI")
)

// ValidationError reports a missing or malformed book field.
type ValidationError struct {
	Field  string
	Reason string
}

func (v *ValidationError) Error() string {
	return v.Field + " " + v.Reason
}

// Unwrap allows errors.Is(err, ErrValidation).
func (v *ValidationError) Unwrap() error {
	return ErrValidation
}

// InputError carries the client-facing message of an invalid parameter.
type InputError struct {
	Message string
}

func (i *InputError) Error() string {
	return i.Message
}

func (i *InputError) Unwrap() error {
	return ErrInvalidInput
}

// StoreError wraps any failure returned by the persistent store.
type StoreError struct {
	Op  string
	Err error
}

func (s *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", s.Op, s.Err)
}

func (s *StoreError) Unwrap() error {
	return s.Err
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// StatusFromError maps a domain error to its HTTP status code
// and the message to display to the client.
func StatusFromError(err error) (int, string) {
	var verr *ValidationError
	var ierr *InputError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &ierr):
		return http.StatusBadRequest, ierr.Message
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, ErrConflict), errors.Is(err, ErrBookExists):
		return http.StatusConflict, "The book already exists in the database"
	case errors.Is(err, ErrBookNotFound):
		return http.StatusNotFound, "Book not found"
	case errors.Is(err, ErrGenerationFailed):
		return http.StatusInternalServerError, "Error generating description from AI."
	default:
		return http.StatusInternalServerError, "failed to process the request."
	}
}

package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNoSession     = errors.New("not logged in")
	ErrEmptyCatalog  = errors.New("rule catalog is empty")
	ErrQueryTooShort = errors.New("query too short")
	ErrValidation    = errors.New("validation failed")
)

// ParseError indicates a workbook buffer could not be decoded as a supported
// spreadsheet format. The caller must leave prior table state untouched.
type ParseError struct {
	Source string // filename or format hint
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AuthError carries the server's login failure message. Session state is
// left untouched when this is returned.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

// RemoteCallError wraps a failed call against the EWS backend. During batch
// persistence these are logged and counted, never propagated past the batch.
type RemoteCallError struct {
	Op     string // e.g. "POST /rules"
	Status int    // HTTP status, 0 if the request never completed
	Err    error
}

func (e *RemoteCallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

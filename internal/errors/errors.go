// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrSessionNotFound     = errors.New("session not found or expired")
	ErrAdmissionDenied     = errors.New("campaign limit reached")
	ErrInvalidCampaignKind = errors.New("unknown campaign kind")
	ErrWorkflowFailed      = errors.New("external workflow failed")
	ErrInvalidRequest      = errors.New("invalid request")
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// AdmissionDeniedError reports the counts the admission decision was made on.
type AdmissionDeniedError struct {
	Active int
	Limit  int
}

func (e *AdmissionDeniedError) Error() string {
	return fmt.Sprintf("%s: %d active of %d allowed", ErrAdmissionDenied, e.Active, e.Limit)
}

func (e *AdmissionDeniedError) Unwrap() error { return ErrAdmissionDenied }

func NewAdmissionDenied(active, limit int) error {
	return &AdmissionDeniedError{Active: active, Limit: limit}
}

// UnknownKindError names the routing key that had no workflow target.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("%s %q", ErrInvalidCampaignKind, e.Kind)
}

func (e *UnknownKindError) Unwrap() error { return ErrInvalidCampaignKind }

// WorkflowError wraps a failed webhook call. StatusCode is zero for transport errors.
type WorkflowError struct {
	Kind       string
	StatusCode int
	Err        error
}

func (e *WorkflowError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: workflow %q answered %d", ErrWorkflowFailed, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: workflow %q: %v", ErrWorkflowFailed, e.Kind, e.Err)
}

func (e *WorkflowError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrWorkflowFailed}
	}
	return []error{ErrWorkflowFailed, e.Err}
}

// MissingFieldError names the first required field a request left empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s is required", ErrInvalidRequest, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrInvalidRequest }

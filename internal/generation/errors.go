package generation

import (
	"errors"
	"fmt"
	"strings"
)

// Caller-visible failure taxonomy. Handlers map these onto HTTP
// statuses; everything else surfaces as a generic upstream failure.
var (
	ErrTemplateNotFound   = errors.New("template not found")
	ErrNoModelConfigured  = errors.New("no model specified in request or prompt config")
	ErrGenerationNotFound = errors.New("generation not found")
	ErrNotOwner           = errors.New("generation belongs to another user")
	ErrAlreadyRated       = errors.New("generation already rated")
	ErrInvalidRating      = errors.New("rating must be an integer between 1 and 5")
)

type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model: %s", e.Model)
}

// MissingVariablesError names every template variable the caller failed
// to supply, not just the first.
type MissingVariablesError struct {
	Variables []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("missing variables: %s", strings.Join(e.Variables, ", "))
}

type GatewayError struct {
	Model string
	Err   error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway call for %s failed: %v", e.Model, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

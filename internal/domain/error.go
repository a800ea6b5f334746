package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrUnauthorized    = errors.New("no valid credential")
	ErrConflict        = errors.New("a personalization job is already running for this course and employee")
	// ErrJobTerminal wraps ErrNotFound: a terminal job no longer exists as far
	// as progress mutations are concerned, while errors.Is on ErrJobTerminal
	// still distinguishes the case for callers that care.
	ErrJobTerminal        = fmt.Errorf("%w: job already reached a terminal state", ErrNotFound)
	ErrGenerationFormat   = errors.New("model output could not be parsed into course structures")
	ErrGenerationProvider = errors.New("text generation provider failed")
	ErrStorage            = errors.New("record store write failed")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrQueueFull          = errors.New("background task queue is saturated")
)

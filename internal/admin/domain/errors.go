package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound matches any *NotFoundError through errors.Is.
var ErrNotFound = errors.New("not found")

// ArgumentError reports a missing or malformed argument.
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid argument %q", e.Param)
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Param, e.Reason)
}

// RequireArg returns an *ArgumentError naming param when value is blank.
func RequireArg(param, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ArgumentError{Param: param, Reason: "must not be empty"}
	}
	return nil
}

// ValidationError reports configuration that does not satisfy its schema.
type ValidationError struct {
	Section  string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s configuration: %s", e.Section, strings.Join(e.Problems, "; "))
}

// NotFoundError reports a natural key that does not resolve.
type NotFoundError struct {
	Kind Kind
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ManagerError wraps a failure raised below a manager operation.
type ManagerError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *ManagerError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Kind, e.Op, e.Err)
}

func (e *ManagerError) Unwrap() error { return e.Err }

// SeedingError wraps the failure that aborted a seeding batch.
type SeedingError struct {
	Kind Kind
	Err  error
}

func (e *SeedingError) Error() string {
	return fmt.Sprintf("seeding %s failed: %v", e.Kind, e.Err)
}

func (e *SeedingError) Unwrap() error { return e.Err }

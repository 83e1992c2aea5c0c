// Package errors holds the error types shared by the discovery packages.
package errors

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/hashicorp/go-multierror"
)

// ConfigurationError is raised while a discovery run is being assembled.
// It is fatal: no scan starts once one has been returned.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Component == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid %s configuration: %s", e.Component, e.Reason)
}

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(component, format string, args ...interface{}) error {
	return &ConfigurationError{Component: component, Reason: fmt.Sprintf(format, args...)}
}

// DuplicateComponentError is returned when a rejecting duplicate policy sees a
// component that was already discovered.
type DuplicateComponentError struct {
	Container string
	Existing  string
	Incoming  string
	Type      string
}

func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("component %q (type %q) conflicts with existing component %q in container %q",
		e.Incoming, e.Type, e.Existing, e.Container)
}

// WithStackTrace wraps err in an error that carries the caller's stack trace.
// A nil err stays nil.
func WithStackTrace(err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, 1)
}

// WithStackTraceAndPrefix is WithStackTrace with a formatted message prepended.
func WithStackTraceAndPrefix(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return goerrors.WrapPrefix(err, fmt.Sprintf(message, args...), 1)
}

// IsError reports whether actual is, or wraps, expected.
func IsError(actual, expected error) bool {
	return goerrors.Is(actual, expected)
}

// PrintErrorWithStackTrace renders err including its stack trace when known.
func PrintErrorWithStackTrace(err error) string {
	if err == nil {
		return ""
	}
	if goErr, ok := err.(*goerrors.Error); ok {
		return goErr.ErrorStack()
	}
	return err.Error()
}

// Append collects errs into a single multi-error, skipping nils. It returns
// nil when nothing was collected.
func Append(err error, errs ...error) error {
	var merged *multierror.Error
	if err != nil {
		merged = multierror.Append(merged, err)
	}
	for _, e := range errs {
		if e != nil {
			merged = multierror.Append(merged, e)
		}
	}
	return merged.ErrorOrNil()
}

// Flatten returns the individual errors held by a multi-error produced by
// Append, or err itself.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if merged, ok := err.(*multierror.Error); ok {
		return merged.WrappedErrors()
	}
	return []error{err}
}

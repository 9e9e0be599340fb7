package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched by every error that reports a missing document or global
var ErrNotFound = errors.New("not found")

// ConfigurationError reports an invalid configuration value
type ConfigurationError struct {
	Key   string
	Value string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("invalid configuration %s=%q: %s", e.Key, e.Value, e.Msg)
	}
	return fmt.Sprintf("invalid configuration %s=%q", e.Key, e.Value)
}

// NotFoundError reports a missing document or global
type NotFoundError struct {
	Collection string
	ID         any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil || FormatID(e.ID) == "" {
		return fmt.Sprintf("%s not found", e.Collection)
	}
	return fmt.Sprintf("%s %s not found", e.Collection, FormatID(e.ID))
}

// Is makes NotFoundError match ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// BackendError reports a failure returned by the CMS backend. Message is the
// backend's own message when one was available.
type BackendError struct {
	Provider   Provider
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %s (status %d)", e.Provider, e.Op, msg, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Op, msg)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is makes a backend 404 match ErrNotFound
func (e *BackendError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// UnsupportedOperationError reports an operation the selected backend cannot perform
type UnsupportedOperationError struct {
	Provider Provider
	Op       string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Provider, e.Op)
}

// IsNotFound reports whether err denotes a missing document or global
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnsupported reports whether err is an UnsupportedOperationError
func IsUnsupported(err error) bool {
	var target *UnsupportedOperationError
	return errors.As(err, &target)
}

// Package errors provides the typed errors of the pipeline. Source failures are soft (the
// source is skipped), merge failures stop the run before analysis.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Aliases of the standard library so callers need one import.
var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)

// Sentinel errors
var (
	// ErrSourceFailed marks a source that could not be fetched, normalized or saved
	ErrSourceFailed = errors.New("source failed")

	// ErrMergeFailed marks a merge that produced no table
	ErrMergeFailed = errors.New("merge failed")

	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates invalid input or configuration
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates the remote API refused the request rate
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnavailable indicates a remote API failure on its side
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// SourceError is a failure of one source at one stage (fetch, normalize, save).
type SourceError struct {
	Source string
	Stage  string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s failed at %s: %v", e.Source, e.Stage, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceFailed
}

func NewSourceError(source, stage string, err error) *SourceError {
	return &SourceError{Source: source, Stage: stage, Err: err}
}

// MergeError is a structural failure at merge time. Missing lists canonical columns that
// no input supplied.
type MergeError struct {
	Reason  string
	Missing []string
	Err     error
}

func (e *MergeError) Error() string {
	msg := "merge failed: " + e.Reason
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf(" (missing columns: %s)", strings.Join(e.Missing, ", "))
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MergeError) Is(target error) bool {
	return target == ErrMergeFailed
}

func NewMergeError(reason string, missing []string, err error) *MergeError {
	return &MergeError{Reason: reason, Missing: missing, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}

	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidInput
}

func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// APIError is a non-2xx answer from a remote API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error from %s (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
}

// Is maps status codes onto the sentinels.
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == 404:
		return target == ErrNotFound
	case e.StatusCode == 429:
		return target == ErrRateLimited
	case e.StatusCode >= 500:
		return target == ErrProviderUnavailable
	}

	return false
}

func NewAPIError(endpoint string, statusCode int, message string) *APIError {
	return &APIError{Endpoint: endpoint, StatusCode: statusCode, Message: message}
}

// IsSourceFailure reports whether err is a soft, per-source failure.
func IsSourceFailure(err error) bool {
	return errors.Is(err, ErrSourceFailed)
}

// IsMergeFailure reports whether err stops the run.
func IsMergeFailure(err error) bool {
	return errors.Is(err, ErrMergeFailed)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import "errors"

// Reason classifies a session store failure.
type Reason string

// Failure reasons. Callers only branch on presence of a failure; the
// reason exists for logs, metrics and tests.
const (
	ReasonInvalidCredentials Reason = "invalid_credentials"
	ReasonUserExists         Reason = "user_exists"
	ReasonNotFound           Reason = "not_found"
	ReasonInvalidSession     Reason = "invalid_session"
	ReasonValidation         Reason = "validation"
	ReasonConstraint         Reason = "constraint"
	ReasonUnavailable        Reason = "unavailable"
)

// Failure is the typed error returned across the session store boundary.
type Failure struct {
	Reason  Reason
	Message string
	Err     error
}

// Fail builds a Failure.
func Fail(reason Reason, message string, err error) *Failure {
	return &Failure{Reason: reason, Message: message, Err: err}
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	return string(f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ReasonOf returns the failure reason carried by err, or "" when err is not
// a session store failure.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}

// Result holds either a value or a failure.
type Result[T any] struct {
	value   T
	failure *Failure
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err wraps a failure.
func Err[T any](f *Failure) Result[T] {
	return Result[T]{failure: f}
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.failure == nil
}

// Value returns the value; the zero value when the call failed.
func (r Result[T]) Value() T {
	return r.value
}

// Failure returns the failure, or nil on success.
func (r Result[T]) Failure() *Failure {
	return r.failure
}

// Unwrap returns the value and a plain error, nil on success.
func (r Result[T]) Unwrap() (T, error) {
	if r.failure != nil {
		return r.value, r.failure
	}
	return r.value, nil
}

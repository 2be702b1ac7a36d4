// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package results provides the uniform success/failure envelope returned by
// every boundary operation.
package results

import "errors"

// unknownFailure replaces an empty failure message.
const unknownFailure = "operation failed"

// Result wraps the outcome of an operation.
// Success implies Data is set and Message is empty; failure implies Data is
// nil and Message is non-empty.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data"`
	Message string `json:"message"`
}

// Success returns a successful Result carrying data.
func Success[T any](data T) Result[T] {
	return Result[T]{
		Success: true,
		Data:    &data,
		Message: "",
	}
}

// Failure returns a failed Result carrying message.
func Failure[T any](message string) Result[T] {
	if message == "" {
		message = unknownFailure
	}
	return Result[T]{
		Success: false,
		Data:    nil,
		Message: message,
	}
}

// FromError returns Success(data) when err is nil and Failure(err.Error())
// otherwise.
func FromError[T any](data T, err error) Result[T] {
	if err != nil {
		return Failure[T](err.Error())
	}
	return Success(data)
}

// Unwrap converts r back into a (value, error) pair. A successful Result
// whose Data decoded as JSON null yields the zero T.
func (r Result[T]) Unwrap() (T, error) {
	var zero T
	if !r.Success {
		msg := r.Message
		if msg == "" {
			msg = unknownFailure
		}
		return zero, errors.New(msg)
	}
	if r.Data == nil {
		return zero, nil
	}
	return *r.Data, nil
}

// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package dynamic describes the runtime-typed values produced by an embedded
// script engine, independent of any particular engine.
//
// Engines expose their values through the Value interface. Extraction
// methods return errors because reading a value out of an engine can fail
// regardless of its kind (a getter that throws, a proxy trap, an interrupted
// runtime). Callers decide whether such failures are fatal.
package dynamic

import "errors"

// Kind is the runtime type tag of a Value.
type Kind uint8

const (
	KindUndefined Kind = iota // undefined or uninitialized
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindOther // functions, symbols, bigints and anything else
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "other"
	}
}

// ErrWrongKind is returned by an extraction method that does not apply to
// the value's kind.
var ErrWrongKind = errors.New("dynamic: extraction does not match value kind")

// ErrInterrupted is wrapped by extraction errors raised because the engine
// was stopped mid-read (timeout or cancellation). Such a failure ends the
// whole conversion and is never degraded.
var ErrInterrupted = errors.New("dynamic: engine interrupted")

// Value is a runtime-typed engine value.
//
// Only the methods matching Kind are meaningful; the others return
// ErrWrongKind. A nil Value returned without error from Index or Get is
// treated as undefined.
type Value interface {
	Kind() Kind

	Bool() (bool, error)
	Int() (int64, error)
	Float() (float64, error)
	Text() (string, error)

	// Len returns the length of an array.
	Len() (int, error)
	// Index returns the array element at i.
	Index(i int) (Value, error)

	// Keys returns the own enumerable string keys of an object in
	// enumeration order.
	Keys() ([]string, error)
	// Get returns the property named key of an object.
	Get(key string) (Value, error)

	// Identity returns a comparable token shared by all Values referring to
	// the same engine container, or nil for primitives.
	Identity() any
}

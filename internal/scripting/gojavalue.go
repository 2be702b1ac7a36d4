// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package scripting

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"

	"github.com/dop251/goja"

	"github.com/aplane-algo/jsbridge/internal/dynamic"
)

// valueEnv is shared by a context and every value read out of it.
type valueEnv struct {
	isArray   goja.Callable
	interrupt atomic.Pointer[string] // reason, set once by Interrupt
}

// interrupted returns the interrupt failure once the context has been
// interrupted, nil before.
func (e *valueEnv) interrupted() error {
	r := e.interrupt.Load()
	if r == nil {
		return nil
	}
	return &ScriptError{
		Message: "interrupted: " + *r,
		Err:     dynamic.ErrInterrupted,
	}
}

// read runs fn under guard. After an interrupt no engine code runs and every
// read fails with the interrupt, whatever fn would have raised.
func (e *valueEnv) read(fn func() error) error {
	if err := e.interrupted(); err != nil {
		return err
	}
	err := guard(fn)
	if err == nil {
		return nil
	}
	if ierr := e.interrupted(); ierr != nil {
		return ierr
	}
	return scriptError(err)
}

func (e *valueEnv) wrap(v goja.Value) *gojaValue {
	gv := &gojaValue{v: v, env: e, kind: e.kindOf(v)}
	if gv.kind == dynamic.KindArray || gv.kind == dynamic.KindObject {
		gv.obj = v.(*goja.Object)
	}
	return gv
}

func (e *valueEnv) kindOf(v goja.Value) dynamic.Kind {
	if v == nil || goja.IsUndefined(v) {
		return dynamic.KindUndefined
	}
	if goja.IsNull(v) {
		return dynamic.KindNull
	}

	switch t := v.(type) {
	case *goja.Symbol:
		return dynamic.KindOther
	case *goja.Object:
		if _, isFn := goja.AssertFunction(t); isFn {
			return dynamic.KindOther
		}
		if e.arrayObject(t) {
			return dynamic.KindArray
		}
		return dynamic.KindObject
	}

	switch v.Export().(type) {
	case bool:
		return dynamic.KindBool
	case int64:
		return dynamic.KindInt
	case float64:
		return dynamic.KindFloat
	case string:
		return dynamic.KindString
	default:
		// BigInt and other engine-specific primitives
		return dynamic.KindOther
	}
}

// arrayObject reports whether Array.isArray holds for o, which also sees
// through proxies. If the check itself fails (a revoked proxy) the class
// name decides.
func (e *valueEnv) arrayObject(o *goja.Object) bool {
	if e.isArray == nil {
		return o.ClassName() == "Array"
	}
	var res goja.Value
	err := guard(func() error {
		var err error
		res, err = e.isArray(goja.Undefined(), o)
		return err
	})
	if err != nil {
		return o.ClassName() == "Array"
	}
	return res.ToBoolean()
}

// gojaValue adapts a goja.Value to dynamic.Value. Every read that can run
// script code (getters, proxies) goes through valueEnv.read.
type gojaValue struct {
	v    goja.Value
	obj  *goja.Object
	env  *valueEnv
	kind dynamic.Kind
}

func (g *gojaValue) Kind() dynamic.Kind {
	return g.kind
}

func (g *gojaValue) Bool() (bool, error) {
	if g.kind != dynamic.KindBool {
		return false, dynamic.ErrWrongKind
	}
	return g.v.ToBoolean(), nil
}

func (g *gojaValue) Int() (int64, error) {
	if g.kind != dynamic.KindInt {
		return 0, dynamic.ErrWrongKind
	}
	i, ok := g.v.Export().(int64)
	if !ok {
		return 0, fmt.Errorf("int value exported as %T", g.v.Export())
	}
	return i, nil
}

func (g *gojaValue) Float() (float64, error) {
	if g.kind != dynamic.KindFloat && g.kind != dynamic.KindInt {
		return 0, dynamic.ErrWrongKind
	}
	return g.v.ToFloat(), nil
}

func (g *gojaValue) Text() (string, error) {
	if g.kind != dynamic.KindString {
		return "", dynamic.ErrWrongKind
	}
	s, ok := g.v.Export().(string)
	if !ok {
		return "", fmt.Errorf("string value exported as %T", g.v.Export())
	}
	return s, nil
}

func (g *gojaValue) Len() (int, error) {
	if g.kind != dynamic.KindArray {
		return 0, dynamic.ErrWrongKind
	}
	var n int64
	err := g.env.read(func() error {
		n = g.obj.Get("length").ToInteger()
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxInt32*2+1 {
		return 0, fmt.Errorf("invalid array length %d", n)
	}
	return int(n), nil
}

func (g *gojaValue) Index(i int) (dynamic.Value, error) {
	if g.kind != dynamic.KindArray {
		return nil, dynamic.ErrWrongKind
	}
	return g.get(strconv.Itoa(i))
}

func (g *gojaValue) Keys() ([]string, error) {
	if g.kind != dynamic.KindObject {
		return nil, dynamic.ErrWrongKind
	}
	var keys []string
	err := g.env.read(func() error {
		keys = g.obj.Keys()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (g *gojaValue) Get(key string) (dynamic.Value, error) {
	if g.kind != dynamic.KindObject {
		return nil, dynamic.ErrWrongKind
	}
	return g.get(key)
}

func (g *gojaValue) get(key string) (dynamic.Value, error) {
	var prop goja.Value
	err := g.env.read(func() error {
		prop = g.obj.Get(key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g.env.wrap(prop), nil
}

func (g *gojaValue) Identity() any {
	if g.obj == nil {
		return nil
	}
	return g.obj
}

// Compile-time interface check
var _ dynamic.Value = (*gojaValue)(nil)

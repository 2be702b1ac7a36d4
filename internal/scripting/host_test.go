// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package scripting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aplane-algo/jsbridge/internal/bridge"
	"github.com/aplane-algo/jsbridge/internal/dynamic"
	"github.com/aplane-algo/jsbridge/internal/value"
)

func newTestHost(opts HostOptions) *Host {
	return NewHost(NewGojaEngine(nil), opts)
}

func TestExecuteRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		binding string
		want    string
	}{
		{"integer", `var x = 42;`, "x", `42`},
		{"float", `var x = 1.5;`, "x", `1.5`},
		{"negative", `var x = -7;`, "x", `-7`},
		{"string", `var s = "hello";`, "s", `"hello"`},
		{"unicode string", `var s = "原神 ✓";`, "s", `"原神 ✓"`},
		{"bool", `var b = true;`, "b", `true`},
		{"null", `var n = null;`, "n", `null`},
		{"undefined", `var u;`, "u", `null`},
		{"array", `var arr = [1, "a", true, null];`, "arr", `[1,"a",true,null]`},
		{"nested object", `var o = {a: 1, b: {c: 2}};`, "o", `{"a":1,"b":{"c":2}}`},
		{"declaration order", `var o = {z: 1, y: 2, x: 3};`, "o", `{"z":1,"y":2,"x":3}`},
		{"nan", `var n = 0/0;`, "n", `null`},
		{"infinity", `var n = 1/0;`, "n", `null`},
		{"function", `var f = function() {};`, "f", `null`},
		{"symbol", `var s = Symbol("x");`, "s", `null`},
		{"function property", `var o = {f: function() {}, v: 1};`, "o", `{"f":null,"v":1}`},
		{"array hole", `var a = [1, , 3];`, "a", `[1,null,3]`},
		{"let binding", `let l = [1, 2];`, "l", `[1,2]`},
		{"const binding", `const c = {k: "v"};`, "c", `{"k":"v"}`},
		{"global assignment", `g = 5;`, "g", `5`},
		{"globalThis property", `globalThis.h = "x";`, "h", `"x"`},
		{"computed", `var total = [1, 2, 3].reduce(function(a, b) { return a + b; }, 0);`, "total", `6`},
		{"date is an object", `var d = new Date(0);`, "d", `{}`},
		{"cycle", `var o = {name: "loop"}; o.self = o;`, "o", `{"name":"loop","self":null}`},
		{"shared reference", `var s = [1]; var o = {a: s, b: s};`, "o", `{"a":[1],"b":[1]}`},
		{"proxied array", `var p = new Proxy([1, 2], {});`, "p", `[1,2]`},
		{"proxied object", `var p = new Proxy({k: 1}, {});`, "p", `{"k":1}`},
		{"reassigned isArray", `Array.isArray = function() { return true; }; var o = {a: 1};`, "o", `{"a":1}`},
	}

	host := newTestHost(HostOptions{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := host.Execute(context.Background(), tt.source, tt.binding)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestExecuteKeyOrder(t *testing.T) {
	host := newTestHost(HostOptions{})

	got, err := host.Execute(context.Background(), `var o = {a: 1, b: {c: 2}};`, "o")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, got.Keys())
	inner, ok := got.Get("b")
	require.True(t, ok)
	assert.Equal(t, []string{"c"}, inner.Keys())
}

func TestExecuteMissingBinding(t *testing.T) {
	host := newTestHost(HostOptions{})

	_, err := host.Execute(context.Background(), `var y = 1;`, "z")
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrBindingLookup))
	assert.True(t, errors.Is(err, ErrBindingNotFound))
	assert.Equal(t, StageLookup, StageOf(err))
	assert.Contains(t, err.Error(), `"z"`)
	assert.Contains(t, err.Error(), "binding lookup")
}

func TestExecuteSyntaxError(t *testing.T) {
	host := newTestHost(HostOptions{})

	got, err := host.Execute(context.Background(), `var x = ;`, "x")
	require.Error(t, err)

	assert.True(t, got.IsNull())
	assert.True(t, errors.Is(err, ErrScriptExecution))
	assert.Equal(t, StageExecution, StageOf(err))
	assert.Contains(t, err.Error(), "SyntaxError")
	assert.NotContains(t, err.Error(), "SyntaxError: SyntaxError")

	var scriptErr *ScriptError
	require.True(t, errors.As(err, &scriptErr))
	assert.NotEmpty(t, scriptErr.Message)
}

func TestExecuteUncaughtException(t *testing.T) {
	host := newTestHost(HostOptions{})

	_, err := host.Execute(context.Background(), `var x = 1; throw new Error("boom");`, "x")
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrScriptExecution))
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "script execution")
}

func TestExecuteThrowingGetter(t *testing.T) {
	source := `var o = { get bad() { throw new Error("nope"); }, ok: 1 };`

	lenient := newTestHost(HostOptions{})
	got, err := lenient.Execute(context.Background(), source, "o")
	require.NoError(t, err)
	assert.Equal(t, `{"bad":null,"ok":1}`, got.String())

	strict := newTestHost(HostOptions{Conversion: bridge.Options{Strict: true}})
	_, err = strict.Execute(context.Background(), source, "o")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScriptExecution))
	assert.True(t, errors.Is(err, bridge.ErrExtraction))
	assert.Equal(t, StageConversion, StageOf(err))
	assert.Contains(t, err.Error(), "nope")
}

func TestExecuteThrowingGlobalGetter(t *testing.T) {
	host := newTestHost(HostOptions{})

	source := `Object.defineProperty(globalThis, "trap", { get: function() { throw new Error("denied"); } });`
	_, err := host.Execute(context.Background(), source, "trap")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBindingLookup))
	assert.Contains(t, err.Error(), `"trap"`)
}

func TestExecuteDepthLimit(t *testing.T) {
	host := newTestHost(HostOptions{Conversion: bridge.Options{MaxDepth: 2}})

	got, err := host.Execute(context.Background(), `var a = [[[1]]];`, "a")
	require.NoError(t, err)
	assert.Equal(t, `[[null]]`, got.String())
}

func TestExecuteConsoleOutput(t *testing.T) {
	host := newTestHost(HostOptions{})

	source := `print("a", 1); console.log({}); console.warn("w"); console.error("e"); console.debug("d"); var done = true;`
	got, err := host.Execute(context.Background(), source, "done")
	require.NoError(t, err)
	assert.Equal(t, `true`, got.String())
}

func TestExecuteTimeout(t *testing.T) {
	host := newTestHost(HostOptions{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := host.Execute(context.Background(), `while (true) {}`, "x")
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrScriptExecution))
	assert.Contains(t, err.Error(), "interrupted")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecuteTimeoutInGetter(t *testing.T) {
	source := `var x = {}; Object.defineProperty(x, "a", {enumerable: true, get: function() { for (;;) {} }});`

	for _, strict := range []bool{false, true} {
		t.Run(fmt.Sprintf("strict=%v", strict), func(t *testing.T) {
			host := newTestHost(HostOptions{
				Timeout:    100 * time.Millisecond,
				Conversion: bridge.Options{Strict: strict},
			})

			got, err := host.Execute(context.Background(), source, "x")
			require.Error(t, err)
			assert.True(t, got.IsNull())
			assert.True(t, errors.Is(err, ErrScriptExecution))
			assert.True(t, errors.Is(err, dynamic.ErrInterrupted))
			assert.Equal(t, StageExecution, StageOf(err))
			assert.Contains(t, err.Error(), "interrupted")
		})
	}
}

func TestExecuteTimeoutInGlobalGetter(t *testing.T) {
	host := newTestHost(HostOptions{Timeout: 100 * time.Millisecond})

	source := `Object.defineProperty(globalThis, "slow", { get: function() { for (;;) {} } });`
	_, err := host.Execute(context.Background(), source, "slow")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScriptExecution))
	assert.Equal(t, StageExecution, StageOf(err))
}

func TestExecuteCallStackLimit(t *testing.T) {
	source := `function depth(n) { return n === 0 ? 0 : 1 + depth(n - 1); } var x = depth(1000);`

	engine := NewGojaEngine(nil)
	got, err := NewHost(engine, HostOptions{}).Execute(context.Background(), source, "x")
	require.NoError(t, err)
	assert.Equal(t, `1000`, got.String())

	shallow := engine.WithMaxCallStackSize(50)
	assert.Equal(t, 50, shallow.MaxCallStackSize())
	assert.Equal(t, DefaultMaxCallStackSize, engine.MaxCallStackSize())

	_, err = NewHost(shallow, HostOptions{}).Execute(context.Background(), source, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScriptExecution))
	assert.Equal(t, StageExecution, StageOf(err))

	assert.Equal(t, DefaultMaxCallStackSize, engine.WithMaxCallStackSize(0).MaxCallStackSize())
}

func TestTrimRepeatedClass(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SyntaxError: SyntaxError: script.js: Line 1:9 Unexpected token ;", "SyntaxError: script.js: Line 1:9 Unexpected token ;"},
		{"Error: boom at script.js:1:1(3)", "Error: boom at script.js:1:1(3)"},
		{"TypeError: Error: nested", "TypeError: Error: nested"},
		{"no class here", "no class here"},
		{"a b: a b: spaced", "a b: a b: spaced"},
	}

	for _, tt := range tests {
		if got := trimRepeatedClass(tt.in); got != tt.want {
			t.Errorf("trimRepeatedClass(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExecuteContextCancel(t *testing.T) {
	host := newTestHost(HostOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := host.Execute(ctx, `for (;;) {}`, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
	assert.Contains(t, err.Error(), context.Canceled.Error())
}

func TestExecuteAlreadyCancelled(t *testing.T) {
	host := newTestHost(HostOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := host.Execute(ctx, `var x = 1;`, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StageExecution, StageOf(err))
}

func TestExecuteConcurrentIsolation(t *testing.T) {
	host := newTestHost(HostOptions{})

	const workers = 16
	var wg sync.WaitGroup
	results := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			source := fmt.Sprintf(`var shared = {worker: %d, items: [%d, %d]};`, i, i, i*2)
			got, err := host.Execute(context.Background(), source, "shared")
			results[i] = got.String()
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf(`{"worker":%d,"items":[%d,%d]}`, i, i, i*2), results[i])
	}
}

func TestExecuteNoLeakBetweenCalls(t *testing.T) {
	host := newTestHost(HostOptions{})

	_, err := host.Execute(context.Background(), `var leaked = 1;`, "leaked")
	require.NoError(t, err)

	_, err = host.Execute(context.Background(), `var other = 2;`, "leaked")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBindingNotFound))
}

func TestExecuteIdempotent(t *testing.T) {
	host := newTestHost(HostOptions{})
	source := `var data = {list: [1, 2.5, "x"], nested: {flag: false, none: null}};`

	var digests []string
	for i := 0; i < 5; i++ {
		got, err := host.Execute(context.Background(), source, "data")
		require.NoError(t, err)
		digests = append(digests, value.Digest(got))
	}
	for _, d := range digests[1:] {
		assert.Equal(t, digests[0], d)
	}
}

// fakeEngine lets tests fail the creation stages.
type fakeEngine struct {
	runtimeErr error
	contextErr error
}

type fakeRuntime struct{ contextErr error }

func (e *fakeEngine) NewRuntime() (Runtime, error) {
	if e.runtimeErr != nil {
		return nil, e.runtimeErr
	}
	return &fakeRuntime{contextErr: e.contextErr}, nil
}

func (r *fakeRuntime) NewContext() (Context, error) { return nil, r.contextErr }
func (r *fakeRuntime) Close() {}

func TestExecuteCreationFailures(t *testing.T) {
	tests := []struct {
		name      string
		engine    *fakeEngine
		sentinel  error
		wantStage Stage
	}{
		{
			name:      "engine creation",
			engine:    &fakeEngine{runtimeErr: errors.New("out of memory")},
			sentinel:  ErrEngineCreation,
			wantStage: StageEngineCreation,
		},
		{
			name:      "context creation",
			engine:    &fakeEngine{contextErr: errors.New("no globals")},
			sentinel:  ErrContextCreation,
			wantStage: StageContextCreation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := NewHost(tt.engine, HostOptions{})
			_, err := host.Execute(context.Background(), `var x = 1;`, "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.Equal(t, tt.wantStage, StageOf(err))
			assert.True(t, strings.HasPrefix(err.Error(), string(tt.wantStage)))
		})
	}
}

func TestGojaRuntimeSingleContext(t *testing.T) {
	rt, err := NewGojaEngine(nil).NewRuntime()
	require.NoError(t, err)
	defer rt.Close()

	_, err = rt.NewContext()
	require.NoError(t, err)

	_, err = rt.NewContext()
	assert.ErrorIs(t, err, ErrContextInUse)
}

func TestGojaValueKinds(t *testing.T) {
	rt, err := NewGojaEngine(nil).NewRuntime()
	require.NoError(t, err)
	sc, err := rt.NewContext()
	require.NoError(t, err)

	require.NoError(t, sc.Run("kinds.js", `
		var u = undefined, n = null, b = false, i = 3, f = 3.25, s = "s",
		    a = [], o = {}, fn = function() {}, sym = Symbol("k"),
		    pa = new Proxy([1, 2], {}), po = new Proxy({}, {});
	`))

	tests := []struct {
		name string
		want dynamic.Kind
	}{
		{"u", dynamic.KindUndefined},
		{"n", dynamic.KindNull},
		{"b", dynamic.KindBool},
		{"i", dynamic.KindInt},
		{"f", dynamic.KindFloat},
		{"s", dynamic.KindString},
		{"a", dynamic.KindArray},
		{"o", dynamic.KindObject},
		{"pa", dynamic.KindArray},
		{"po", dynamic.KindObject},
		{"fn", dynamic.KindOther},
		{"sym", dynamic.KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := sc.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Kind())
		})
	}

	v, err := sc.Lookup("s")
	require.NoError(t, err)
	_, err = v.Int()
	assert.ErrorIs(t, err, dynamic.ErrWrongKind)
}

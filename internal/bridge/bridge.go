// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

// Package bridge converts engine values (package dynamic) into canonical
// values (package value).
//
// Conversion is total. Values with no canonical form (undefined, functions,
// symbols, non-finite numbers) become Null. A sub-value that cannot be read
// out of the engine is degraded to Null at the smallest granularity: one
// array slot, one property value, or one object whose keys could not be
// enumerated. With Options.Strict the first such failure is reported instead.
// A read that failed because the engine was interrupted
// (dynamic.ErrInterrupted) is always reported, whatever the mode.
//
// Traversal is bounded: containers nested deeper than MaxDepth, values past
// the MaxNodes budget, and containers that appear again on their own ancestor
// path (cycles) become Null. These cut-offs apply in strict mode too.
package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aplane-algo/jsbridge/internal/dynamic"
	"github.com/aplane-algo/jsbridge/internal/value"
)

const (
	// DefaultMaxDepth is the container nesting limit used when Options.MaxDepth is 0.
	DefaultMaxDepth = 256

	// DefaultMaxNodes is the value budget used when Options.MaxNodes is 0.
	DefaultMaxNodes = 1 << 20
)

// ErrExtraction marks a failure to read a sub-value out of the engine.
var ErrExtraction = errors.New("value extraction failed")

// ExtractionError records where in the value tree a read failed.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%v at %s: %v", ErrExtraction, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtraction, e.Err}
}

// Options configures a conversion. The zero value is lenient with default limits.
type Options struct {
	MaxDepth int
	MaxNodes int
	Strict   bool

	// Logger receives debug records for degraded values. Nil disables them.
	Logger *slog.Logger
}

// Stats describes what happened during a conversion.
type Stats struct {
	Nodes     int // values visited
	Degraded  int // sub-values replaced by Null after an extraction failure
	Truncated int // values replaced by Null at a depth, budget or cycle cut-off
}

// Convert converts v leniently with default limits.
func Convert(v dynamic.Value) value.Value {
	out, _, _ := Options{}.Convert(v)
	return out
}

// Convert converts v. The error is non-nil in strict mode or when the engine
// was interrupted during a read, and then the returned value is Null.
func (o Options) Convert(v dynamic.Value) (out value.Value, stats Stats, err error) {
	c := &converter{
		maxDepth:  o.MaxDepth,
		maxNodes:  o.MaxNodes,
		strict:    o.Strict,
		logger:    o.Logger,
		ancestors: make(map[any]struct{}),
	}
	if c.maxDepth <= 0 {
		c.maxDepth = DefaultMaxDepth
	}
	if c.maxNodes <= 0 {
		c.maxNodes = DefaultMaxNodes
	}

	defer func() {
		if r := recover(); r != nil {
			c.degrade(fmt.Errorf("panic during conversion: %v", r))
			out = value.Null()
			stats = c.stats
			err = c.err
		}
	}()

	out = c.convert(v, 0)
	if c.err != nil {
		return value.Null(), c.stats, c.err
	}
	return out, c.stats, nil
}

type converter struct {
	maxDepth int
	maxNodes int
	strict   bool
	logger   *slog.Logger

	stats     Stats
	err       error
	path      []string
	ancestors map[any]struct{}
}

func (c *converter) convert(v dynamic.Value, depth int) value.Value {
	if c.err != nil {
		return value.Null()
	}
	if c.stats.Nodes >= c.maxNodes {
		return c.truncate("node budget exhausted")
	}
	c.stats.Nodes++

	if v == nil {
		return value.Null()
	}

	switch v.Kind() {
	case dynamic.KindUndefined, dynamic.KindNull, dynamic.KindOther:
		return value.Null()

	case dynamic.KindBool:
		b, err := v.Bool()
		if err != nil {
			return c.degrade(err)
		}
		return value.Bool(b)

	case dynamic.KindInt:
		i, err := v.Int()
		if err != nil {
			return c.degrade(err)
		}
		return value.Int(i)

	case dynamic.KindFloat:
		f, err := v.Float()
		if err != nil {
			return c.degrade(err)
		}
		return value.Number(f)

	case dynamic.KindString:
		s, err := v.Text()
		if err != nil {
			return c.degrade(err)
		}
		return value.String(s)

	case dynamic.KindArray:
		return c.container(v, depth, c.array)

	case dynamic.KindObject:
		return c.container(v, depth, c.object)
	}

	return value.Null()
}

// container applies the depth and cycle checks shared by arrays and objects.
func (c *converter) container(v dynamic.Value, depth int, fn func(dynamic.Value, int) value.Value) value.Value {
	if depth >= c.maxDepth {
		return c.truncate("depth limit reached")
	}

	id := v.Identity()
	if id != nil {
		if _, onPath := c.ancestors[id]; onPath {
			return c.truncate("cycle")
		}
		c.ancestors[id] = struct{}{}
		defer delete(c.ancestors, id)
	}

	return fn(v, depth)
}

func (c *converter) array(v dynamic.Value, depth int) value.Value {
	n, err := v.Len()
	if err != nil {
		return c.degrade(err)
	}
	if n < 0 {
		return c.degrade(fmt.Errorf("negative array length %d", n))
	}
	if n > c.maxNodes-c.stats.Nodes {
		return c.truncate("array longer than remaining node budget")
	}

	items := make([]value.Value, 0, n)
	for i := 0; i < n; i++ {
		c.push("[" + strconv.Itoa(i) + "]")
		item, err := v.Index(i)
		if err != nil {
			items = append(items, c.degrade(err))
		} else {
			items = append(items, c.convert(item, depth+1))
		}
		c.pop()
	}
	return value.Array(items...)
}

func (c *converter) object(v dynamic.Value, depth int) value.Value {
	keys, err := v.Keys()
	if err != nil {
		return c.degrade(err)
	}

	members := make([]value.Member, 0, len(keys))
	for _, key := range keys {
		c.push("." + key)
		prop, err := v.Get(key)
		var item value.Value
		if err != nil {
			item = c.degrade(err)
		} else {
			item = c.convert(prop, depth+1)
		}
		members = append(members, value.Member{Key: key, Value: item})
		c.pop()
	}
	return value.Object(members...)
}

func (c *converter) degrade(err error) value.Value {
	c.stats.Degraded++
	if c.strict || errors.Is(err, dynamic.ErrInterrupted) {
		if c.err == nil {
			c.err = &ExtractionError{Path: c.pathString(), Err: err}
		}
		return value.Null()
	}
	if c.logger != nil {
		c.logger.Debug("degraded value to null", "path", c.pathString(), "error", err)
	}
	return value.Null()
}

func (c *converter) truncate(reason string) value.Value {
	c.stats.Truncated++
	if c.logger != nil {
		c.logger.Debug("truncated value to null", "path", c.pathString(), "reason", reason)
	}
	return value.Null()
}

func (c *converter) push(seg string) { c.path = append(c.path, seg) }
func (c *converter) pop()            { c.path = c.path[:len(c.path)-1] }

func (c *converter) pathString() string {
	return "$" + strings.Join(c.path, "")
}

// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// maxParseDepth bounds nesting accepted by Parse and UnmarshalJSON.
const maxParseDepth = 10000

var errParseDepth = errors.New("value: JSON nesting too deep")

// MarshalJSON encodes v as compact JSON with object keys in order.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.appendJSON(nil), nil
}

// UnmarshalJSON decodes JSON into v, keeping object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Parse decodes a single JSON document.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec, 0)
	if err != nil {
		return Null(), err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Null(), fmt.Errorf("value: trailing data after JSON document")
	}
	return v, nil
}

// Indent renders v as indented JSON.
func Indent(v Value, prefix, indent string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, v.appendJSON(nil), prefix, indent); err != nil {
		return v.String()
	}
	return buf.String()
}

func decodeValue(dec *json.Decoder, depth int) (Value, error) {
	if depth > maxParseDepth {
		return Null(), errParseDepth
	}

	tok, err := dec.Token()
	if err != nil {
		return Null(), fmt.Errorf("value: %w", err)
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return Null(), fmt.Errorf("value: invalid number %q: %w", t, err)
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec, depth+1)
				if err != nil {
					return Null(), err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), fmt.Errorf("value: %w", err)
			}
			return Array(items...), nil
		case '{':
			var members []Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null(), fmt.Errorf("value: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Null(), fmt.Errorf("value: object key is %T, want string", keyTok)
				}
				item, err := decodeValue(dec, depth+1)
				if err != nil {
					return Null(), err
				}
				members = append(members, Member{Key: key, Value: item})
			}
			if _, err := dec.Token(); err != nil {
				return Null(), fmt.Errorf("value: %w", err)
			}
			return Object(members...), nil
		}
	}
	return Null(), fmt.Errorf("value: unexpected token %v", tok)
}

func (v Value) appendJSON(b []byte) []byte {
	switch v.kind {
	case KindBool:
		return strconv.AppendBool(b, v.b)
	case KindNumber:
		return appendNumber(b, v.n)
	case KindString:
		return appendString(b, v.s)
	case KindArray:
		b = append(b, '[')
		for i, item := range v.items {
			if i > 0 {
				b = append(b, ',')
			}
			b = item.appendJSON(b)
		}
		return append(b, ']')
	case KindObject:
		b = append(b, '{')
		for i, m := range v.members {
			if i > 0 {
				b = append(b, ',')
			}
			b = appendString(b, m.Key)
			b = append(b, ':')
			b = m.Value.appendJSON(b)
		}
		return append(b, '}')
	default:
		return append(b, "null"...)
	}
}

// appendNumber formats f the way encoding/json does, so integral values
// print without a fraction or exponent.
func appendNumber(b []byte, f float64) []byte {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b = strconv.AppendFloat(b, f, format, -1, 64)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(b)
		if n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	return b
}

func appendString(b []byte, s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return append(b, `""`...)
	}
	return append(b, bytes.TrimRight(buf.Bytes(), "\n")...)
}

// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package command

import "strings"

// ParseLine splits a command line into a name and arguments. Double quotes
// group words; the quotes themselves are dropped.
func ParseLine(input string) (string, []string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}

	var parts []string
	var current strings.Builder
	inQuotes := false
	quoted := false

	for i := 0; i < len(input); i++ {
		ch := input[i]

		switch ch {
		case '"':
			inQuotes = !inQuotes
			quoted = true
		case ' ', '\t':
			if inQuotes {
				current.WriteByte(ch)
			} else if current.Len() > 0 || quoted {
				parts = append(parts, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 || quoted {
		parts = append(parts, current.String())
	}

	if len(parts) == 0 {
		return "", nil
	}

	return parts[0], parts[1:]
}

// SplitCommand returns the first word of input and the remainder with its
// original quoting and inner spacing.
func SplitCommand(input string) (name, rest string) {
	input = strings.TrimSpace(input)
	i := strings.IndexAny(input, " \t")
	if i < 0 {
		return input, ""
	}
	return input[:i], strings.TrimSpace(input[i:])
}

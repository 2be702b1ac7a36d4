// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package value

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Digest returns the hex BLAKE2b-256 hash of the compact JSON encoding of v.
// Two values are Equal exactly when their digests match.
func Digest(v Value) string {
	sum := blake2b.Sum256(v.appendJSON(nil))
	return hex.EncodeToString(sum[:])
}

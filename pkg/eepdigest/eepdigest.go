// Package eepdigest wraps the SHA-256 content digest used throughout the
// storage engine (footer verification, quorum selection, repair).
//
// spec.md §4.8 specifies this as an external adapter with a one-line
// contract ("SHA-256 of a byte span, hex-encoded lowercase"); no example in
// the retrieved pack imports a third-party digest library for this, and Go's
// own crypto/sha256 is the idiomatic choice for a fixed, non-pluggable hash
// algorithm, so this package is a thin wrapper over the standard library
// rather than an adapter over an external digest crate.
package eepdigest

import (
	"crypto/sha256"
	"encoding/hex"
)

// HexLen is the length in bytes of a SHA-256 digest hex-encoded lowercase.
const HexLen = sha256.Size * 2

// SHA256Hex returns the lowercase hex-encoded SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

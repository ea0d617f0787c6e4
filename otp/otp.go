// Package otp encrypts short messages with keys produced by a BB84 session.
//
// XOR with a key at least as long as the message is a one-time pad. Stretch
// trades that guarantee for convenience: it expands a short key with
// HKDF-SHA256, which is only computationally secure. Both are intended for
// demonstrations.
package otp

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MaxStretch is the longest pad HKDF-SHA256 can derive from one key.
const MaxStretch = 255 * sha256.Size

// XOR returns msg XOR key. The key must cover the whole message; only its
// first len(msg) bytes are used. Applying XOR twice with the same key
// recovers msg.
func XOR(msg, key []byte) ([]byte, error) {
	if len(key) < len(msg) {
		return nil, fmt.Errorf("key of %d bytes cannot pad a %d byte message", len(key), len(msg))
	}
	out := make([]byte, len(msg))
	for i := range msg {
		out[i] = msg[i] ^ key[i]
	}
	return out, nil
}

// Stretch derives an n byte pad from key. salt binds the pad to a session and
// info to its purpose; both sides must use the same values.
func Stretch(key []byte, n int, salt, info string) ([]byte, error) {
	if len(key) == 0 {
		return nil, errors.New("cannot stretch an empty key")
	}
	if n < 0 || n > MaxStretch {
		return nil, fmt.Errorf("pad length %d out of range [0, %d]", n, MaxStretch)
	}
	pad := make([]byte, n)
	r := hkdf.New(sha256.New, key, []byte(salt), []byte(info))
	if _, err := io.ReadFull(r, pad); err != nil {
		return nil, fmt.Errorf("HKDF expand failed: %w", err)
	}
	return pad, nil
}

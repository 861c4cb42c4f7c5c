// Package id makes short random labels, such as the ones that tell
// live-reload connections apart in the logs.
package id

import (
	"crypto/rand"
	"errors"
)

// Alphanumeric is the default alphabet: digits then upper and lower
// case ASCII letters.
const Alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var ErrAlphabet = errors.New("id: alphabet must have between 1 and 256 symbols")

// New returns n symbols picked uniformly at random from alphabet, or
// from Alphanumeric when alphabet is empty. Random bytes at or above the
// largest multiple of len(alphabet) are discarded so no symbol is
// favoured.
func New(n int, alphabet string) (string, error) {
	if alphabet == "" {
		alphabet = Alphanumeric
	}
	size := len(alphabet)
	if size > 256 {
		return "", ErrAlphabet
	}
	if n <= 0 {
		return "", nil
	}

	cutoff := 256 - 256%size
	out := make([]byte, 0, n)
	pool := make([]byte, n+n/2+1)
	for len(out) < n {
		if _, err := rand.Read(pool); err != nil {
			return "", err
		}
		for _, c := range pool {
			if int(c) >= cutoff {
				continue
			}
			out = append(out, alphabet[int(c)%size])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// Label is an 8 symbol alphanumeric id.
func Label() string {
	// crypto/rand.Read does not fail on supported platforms.
	s, _ := New(8, "")
	return s
}

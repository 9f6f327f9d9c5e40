// Package base62 encodes non-negative integers using the alphabet 0-9A-Za-z,
// producing tokens that are safe to use as URL path segments.
package base62

import "errors"

// Alphabet is the ordered set of characters used by Encode.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const base = int64(len(Alphabet))

// ErrNegative is returned by Encode for negative input.
var ErrNegative = errors.New("base62: negative number")

// Encode returns the base62 representation of n.
func Encode(n int64) (string, error) {
	if n < 0 {
		return "", ErrNegative
	}
	if n == 0 {
		return Alphabet[:1], nil
	}

	buf := make([]byte, 0, 11)
	for n > 0 {
		buf = append(buf, Alphabet[n%base])
		n /= base
	}

	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

package inbound

import "crypto/rand"

const (
	tokenLength   = 32
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewToken returns a fresh device shared secret: 32 random alphanumeric
// characters from a cryptographic source.
func NewToken() string {
	buf := make([]byte, tokenLength)
	rand.Read(buf) //nolint:errcheck // never fails on supported platforms
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf)
}

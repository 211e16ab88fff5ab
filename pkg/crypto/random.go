package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"io"
)

// Reader is the source of randomness, replaced in tests.
var Reader io.Reader = rand.Reader

// RandomBits returns n random bytes encoded with unpadded URL safe base64.
func RandomBits(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RandomSeed returns 256 random bits, used in place of a password for accounts that only
// ever authenticate through an external provider.
func RandomSeed() (string, error) {
	return RandomBits(32)
}

// RandomState returns a value suitable for the OAuth state parameter.
func RandomState() (string, error) {
	return RandomBits(24)
}

package uniuri

import (
	"crypto/rand"
)

const (
	// StdLen gives ~95 bits of entropy with StdChars.
	StdLen = 16
	// SecretLen is used for generated signing keys.
	SecretLen = 48
)

var (
	// StdChars is the default alphabet.
	StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")
	// KeyChars is safe in object storage keys and file names on case insensitive file systems.
	KeyChars = []byte("abcdefghijklmnopqrstuvwxyz0123456789")
)

// New returns a random string of StdLen characters from StdChars.
func New() string {
	return NewLenChars(StdLen, StdChars)
}

// NewLen returns a random string of length characters from StdChars.
func NewLen(length int) string {
	return NewLenChars(length, StdChars)
}

// NewKey returns a random lower case string for blob keys.
func NewKey() string {
	return NewLenChars(StdLen, KeyChars)
}

// NewLenChars returns a random string of length characters from chars
// (2 to 256 characters). Bytes above the largest multiple of len(chars)
// are rejected so every character is equally likely.
func NewLenChars(length int, chars []byte) string {
	if length <= 0 {
		return ""
	}

	clen := len(chars)
	if clen < 2 || clen > 256 { //nolint:mnd
		panic("uniuri: wrong charset length")
	}

	limit := 256 - (256 % clen) //nolint:mnd
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2+1)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			panic("uniuri: error reading random bytes: " + err.Error())
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, chars[int(b)%clen])
			if len(out) == length {
				break
			}
		}
	}

	return string(out)
}

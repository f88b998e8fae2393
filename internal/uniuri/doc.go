// Package uniuri generates random strings from crypto/rand for blob key
// suffixes and generated secrets.
package uniuri

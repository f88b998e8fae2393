// Package storage keeps attachment blobs outside the database. A blob is
// addressed by its ref, a slash separated key relative to the store root
// such as "product_images/desk_3k9x0c2ab1mzq7ts.png".
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/catalog-admin/catalog-admin/internal/uniuri"
)

var (
	// ErrNotFound is returned for refs that do not exist. Delete never returns it.
	ErrNotFound = errors.New("blob not found")

	// ErrInvalidRef is returned for empty, absolute or escaping refs.
	ErrInvalidRef = errors.New("invalid blob ref")
)

// Store is a blob storage backend.
type Store interface {
	// Put stores r under key and returns the blob ref.
	Put(ctx context.Context, r io.Reader, key string) (string, error)
	// Delete removes ref. A missing blob is not an error.
	Delete(ctx context.Context, ref string) error
	// Exists reports whether ref is stored.
	Exists(ctx context.Context, ref string) (bool, error)
	// URL returns the address clients fetch ref from.
	URL(ref string) string
}

const maxBaseLen = 50

var unsafeChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// Key builds a fresh key below prefix for an uploaded file name. The base
// name is reduced to [a-z0-9_-] and a random suffix keeps keys unique.
func Key(prefix, filename string) string {
	filename = path.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(path.Ext(filename))

	if unsafeChars.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}

	base := unsafeChars.ReplaceAllString(strings.ToLower(strings.TrimSuffix(filename, path.Ext(filename))), "_")
	base = strings.Trim(base, "_")

	if len(base) > maxBaseLen {
		base = base[:maxBaseLen]
	}

	if base == "" {
		base = "upload"
	}

	return path.Join(prefix, base+"_"+uniuri.NewKey()+ext)
}

// CleanRef validates ref and returns it in canonical form.
func CleanRef(ref string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "/") || strings.Contains(ref, `\`) {
		return "", ErrInvalidRef
	}

	clean := path.Clean(ref)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidRef
	}

	return clean, nil
}

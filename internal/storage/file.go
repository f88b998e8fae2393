package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// FileStore keeps blobs in a directory, any afero.Fs will do.
type FileStore struct {
	fs        afero.Fs
	urlPrefix string
}

// NewFileStore stores blobs below root on the local disk and serves them
// under urlPrefix.
func NewFileStore(root, urlPrefix string) (*FileStore, error) {
	if err := afero.NewOsFs().MkdirAll(root, 0o750); err != nil { //nolint:mnd
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}

	return NewFileStoreFs(afero.NewBasePathFs(afero.NewOsFs(), root), urlPrefix), nil
}

// NewFileStoreFs stores blobs in fsys.
func NewFileStoreFs(fsys afero.Fs, urlPrefix string) *FileStore {
	return &FileStore{fs: fsys, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

// Fs exposes the underlying file system, e.g. for serving /media.
func (s *FileStore) Fs() afero.Fs {
	return s.fs
}

// Put implements Store.
func (s *FileStore) Put(_ context.Context, r io.Reader, key string) (string, error) {
	ref, err := CleanRef(key)
	if err != nil {
		return "", err
	}

	if err = s.fs.MkdirAll(path.Dir(ref), 0o750); err != nil { //nolint:mnd
		return "", fmt.Errorf("create directory for %s: %w", ref, err)
	}

	if err = afero.WriteReader(s.fs, ref, r); err != nil {
		return "", fmt.Errorf("write %s: %w", ref, err)
	}

	return ref, nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, ref string) error {
	clean, err := CleanRef(ref)
	if err != nil {
		return err
	}

	if err = s.fs.Remove(clean); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", clean, err)
	}

	return nil
}

// Exists implements Store.
func (s *FileStore) Exists(_ context.Context, ref string) (bool, error) {
	clean, err := CleanRef(ref)
	if err != nil {
		return false, err
	}

	ok, err := afero.Exists(s.fs, clean)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", clean, err)
	}

	return ok, nil
}

// Open returns the content of ref.
func (s *FileStore) Open(ref string) (io.ReadCloser, error) {
	clean, err := CleanRef(ref)
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(clean)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}

	return f, err //nolint:wrapcheck
}

// URL implements Store.
func (s *FileStore) URL(ref string) string {
	if ref == "" {
		return ""
	}

	return s.urlPrefix + "/" + ref
}

// Package attachment keeps the single optional blob of an owner record
// (a product image, a teacher photo) in step with the record.
//
// Updates are two phased. Set computes the ref to persist together with the
// record. Once the record transaction has committed, CommitReplace deletes
// the blob the record referenced before; if the transaction failed, Discard
// deletes a freshly uploaded blob instead and the old one is left alone.
// Blob deletion is best effort: failures are logged and counted, never
// returned to the record operation.
package attachment

import (
	"context"
	"errors"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/catalog-admin/catalog-admin/internal/storage"
)

// Blob key prefixes per owner type.
const (
	PrefixProductImages = "product_images"
	PrefixTeacherPhotos = "teacher_photos"
)

var cleanupFailures = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "attachment_cleanup_failures_total",
	Help: "Number of blobs that could not be deleted after their owner changed or was deleted.",
}, []string{"attachment"})

type kind uint8

const (
	kindKeep kind = iota
	kindClear
	kindReplace
)

// Update is the attachment part of a record update request.
type Update struct {
	kind kind
	ref  string
}

// Keep leaves the attachment as it is, used when the request omits the field.
func Keep() Update { return Update{kind: kindKeep} }

// Clear removes the attachment, used when the field is sent empty.
func Clear() Update { return Update{kind: kindClear} }

// Replace points the record at ref, a blob returned by Store.Upload.
func Replace(ref string) Update {
	if ref == "" {
		return Clear()
	}

	return Update{kind: kindReplace, ref: ref}
}

// IsKeep reports whether u leaves the attachment untouched.
func (u Update) IsKeep() bool { return u.kind == kindKeep }

// Pending is the outcome of Set, to be committed or discarded once the
// record write is done.
type Pending struct {
	owner    uint
	previous string
	current  string
	uploaded bool
}

// Previous is the ref the record held before the update, possibly empty.
func (p Pending) Previous() string { return p.previous }

// Current is the ref to persist with the record.
func (p Pending) Current() string { return p.current }

// Changed reports whether the persisted ref differs from the previous one.
func (p Pending) Changed() bool { return p.previous != p.current }

// Store manages the attachments of one owner type.
type Store struct {
	name   string
	prefix string
	blobs  storage.Store
}

// New returns a Store keeping its blobs below prefix in blobs. name labels
// log lines and metrics, e.g. "product_image".
func New(name, prefix string, blobs storage.Store) *Store {
	return &Store{name: name, prefix: prefix, blobs: blobs}
}

// Prefix returns the key prefix of the owner type.
func (s *Store) Prefix() string {
	return s.prefix
}

// URL returns the public address of ref, "" for no attachment.
func (s *Store) URL(ref string) string {
	if ref == "" {
		return ""
	}

	return s.blobs.URL(ref)
}

// Upload stores r below the owner prefix and returns its ref.
func (s *Store) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	return s.blobs.Put(ctx, r, storage.Key(s.prefix, filename)) //nolint:wrapcheck
}

// Set applies u to the ref the owner currently holds.
func (s *Store) Set(ownerID uint, current string, u Update) Pending {
	p := Pending{owner: ownerID, previous: current, current: current}

	switch u.kind {
	case kindClear:
		p.current = ""
	case kindReplace:
		p.current = u.ref
		p.uploaded = true
	case kindKeep:
	}

	return p
}

// CommitReplace deletes the previous blob once the record holding
// p.Current() has been persisted. Nothing is deleted if there was no
// previous blob or it is still the current one.
func (s *Store) CommitReplace(ctx context.Context, p Pending) {
	if p.previous == "" || !p.Changed() {
		return
	}

	s.delete(ctx, p.owner, p.previous)
}

// Discard undoes p after a failed record write: a blob uploaded for it is
// deleted, the previous blob is kept.
func (s *Store) Discard(ctx context.Context, p Pending) {
	if !p.uploaded || p.current == "" || !p.Changed() {
		return
	}

	s.delete(ctx, p.owner, p.current)
}

// DeleteOwner deletes ref after its owner record has been removed.
// An empty ref needs no storage call.
func (s *Store) DeleteOwner(ctx context.Context, ownerID uint, ref string) {
	if ref == "" {
		return
	}

	s.delete(ctx, ownerID, ref)
}

func (s *Store) delete(ctx context.Context, ownerID uint, ref string) {
	err := s.blobs.Delete(ctx, ref)
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		log.Debug().Str("attachment", s.name).Uint("owner_id", ownerID).Str("blob", ref).Msg("blob deleted")

		return
	}

	cleanupFailures.WithLabelValues(s.name).Inc()
	log.Error().Err(err).Str("attachment", s.name).Uint("owner_id", ownerID).Str("blob", ref).
		Msg("failed to delete blob")
}

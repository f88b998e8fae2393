package attachment

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalog-admin/catalog-admin/internal/storage"
)

// recordingStore is an in-memory storage.Store counting deletions.
type recordingStore struct {
	mu      sync.Mutex
	blobs   map[string]string
	deletes []string
	failDel error
}

func newRecordingStore(refs ...string) *recordingStore {
	s := &recordingStore{blobs: map[string]string{}}
	for _, ref := range refs {
		s.blobs[ref] = "blob"
	}

	return s
}

func (s *recordingStore) Put(_ context.Context, r io.Reader, key string) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = string(body)

	return key, nil
}

func (s *recordingStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes = append(s.deletes, ref)
	if s.failDel != nil {
		return s.failDel
	}

	delete(s.blobs, ref)

	return nil
}

func (s *recordingStore) Exists(_ context.Context, ref string) (bool, error) {
	_, ok := s.blobs[ref]

	return ok, nil
}

func (s *recordingStore) URL(ref string) string { return "/media/" + ref }

func TestSetAndCommitReplace(t *testing.T) {
	const old = "product_images/old.png"

	tests := []struct {
		name        string
		current     string
		update      Update
		wantCurrent string
		wantDeletes []string
	}{
		{name: "keep preserves the ref", current: old, update: Keep(), wantCurrent: old},
		{name: "keep without attachment", current: "", update: Keep(), wantCurrent: ""},
		{name: "clear deletes the old blob", current: old, update: Clear(), wantCurrent: "", wantDeletes: []string{old}},
		{name: "clear without attachment", current: "", update: Clear(), wantCurrent: ""},
		{
			name:        "replace deletes exactly the old blob",
			current:     old,
			update:      Replace("product_images/new.png"),
			wantCurrent: "product_images/new.png",
			wantDeletes: []string{old},
		},
		{name: "replace with the same ref", current: old, update: Replace(old), wantCurrent: old},
		{
			name:        "replace on empty record",
			current:     "",
			update:      Replace("product_images/new.png"),
			wantCurrent: "product_images/new.png",
		},
		{name: "replace with empty ref clears", current: old, update: Replace(""), wantCurrent: "", wantDeletes: []string{old}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blobs := newRecordingStore(old, "product_images/new.png")
			s := New("product_image", PrefixProductImages, blobs)

			p := s.Set(7, tt.current, tt.update)
			assert.Equal(t, tt.current, p.Previous())
			assert.Equal(t, tt.wantCurrent, p.Current())

			s.CommitReplace(context.Background(), p)
			assert.Equal(t, tt.wantDeletes, blobs.deletes)

			// committing twice must not fail either
			s.CommitReplace(context.Background(), p)
		})
	}
}

func TestDiscard(t *testing.T) {
	const old = "product_images/old.png"

	tests := []struct {
		name        string
		current     string
		update      Update
		wantDeletes []string
	}{
		{name: "uploaded blob is removed, old kept", current: old, update: Replace("product_images/new.png"), wantDeletes: []string{"product_images/new.png"}},
		{name: "keep touches nothing", current: old, update: Keep()},
		{name: "clear touches nothing", current: old, update: Clear()},
		{name: "same ref touches nothing", current: old, update: Replace(old)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blobs := newRecordingStore(old, "product_images/new.png")
			s := New("product_image", PrefixProductImages, blobs)

			s.Discard(context.Background(), s.Set(1, tt.current, tt.update))
			assert.Equal(t, tt.wantDeletes, blobs.deletes)

			ok, err := blobs.Exists(context.Background(), old)
			require.NoError(t, err)
			assert.True(t, ok, "old blob must survive a failed update")
		})
	}
}

func TestDeleteOwner(t *testing.T) {
	blobs := newRecordingStore("teacher_photos/a.jpg")
	s := New("teacher_photo", PrefixTeacherPhotos, blobs)

	s.DeleteOwner(context.Background(), 1, "")
	assert.Empty(t, blobs.deletes, "no attachment means no storage call")

	s.DeleteOwner(context.Background(), 1, "teacher_photos/a.jpg")
	assert.Equal(t, []string{"teacher_photos/a.jpg"}, blobs.deletes)
}

func TestDeleteFailureIsCountedNotReturned(t *testing.T) {
	blobs := newRecordingStore("teacher_photos/a.jpg")
	blobs.failDel = errors.New("permission denied") //nolint:goerr113
	s := New("teacher_photo_failing", PrefixTeacherPhotos, blobs)

	before := testutil.ToFloat64(cleanupFailures.WithLabelValues("teacher_photo_failing"))

	s.DeleteOwner(context.Background(), 1, "teacher_photos/a.jpg")
	s.CommitReplace(context.Background(), s.Set(1, "teacher_photos/a.jpg", Clear()))

	assert.InDelta(t, before+2, testutil.ToFloat64(cleanupFailures.WithLabelValues("teacher_photo_failing")), 0)
}

func TestNotFoundIsNotAFailure(t *testing.T) {
	blobs := newRecordingStore()
	blobs.failDel = storage.ErrNotFound
	s := New("product_image_gone", PrefixProductImages, blobs)

	s.DeleteOwner(context.Background(), 1, "product_images/gone.png")

	assert.Zero(t, testutil.ToFloat64(cleanupFailures.WithLabelValues("product_image_gone")))
}

func TestUpload(t *testing.T) {
	blobs := newRecordingStore()
	s := New("product_image", PrefixProductImages, blobs)

	ref, err := s.Upload(context.Background(), strings.NewReader("png"), "Desk Lamp.PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "product_images/desk_lamp_"))
	assert.True(t, strings.HasSuffix(ref, ".png"))
	assert.Equal(t, "/media/"+ref, s.URL(ref))
	assert.Empty(t, s.URL(""))
}

package subject_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/catalog-admin/catalog-admin/internal/attachment"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/subject"
	"github.com/catalog-admin/catalog-admin/internal/db/dbtest"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/storage"
)

func TestCreateUpdateAudit(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	alice := models.User{Username: "alice", Email: "alice@example.com", Active: true}
	bob := models.User{Username: "bob", Email: "bob@example.com", Active: true}
	require.NoError(t, db.Create(&alice).Error)
	require.NoError(t, db.Create(&bob).Error)

	s := &models.Subject{SubjectName: " Maths "}
	require.NoError(t, subject.Create(ctx, db, s, &alice.ID))
	assert.Equal(t, "Maths", s.SubjectName)
	require.NotNil(t, s.CreatedByID)
	assert.Equal(t, alice.ID, *s.CreatedByID)

	s.SubjectName = "Algebra"
	require.NoError(t, subject.Update(ctx, db, s, &bob.ID))

	got, err := subject.Get(ctx, db, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Algebra", got.SubjectName)
	require.NotNil(t, got.CreatedByID)
	assert.Equal(t, alice.ID, *got.CreatedByID, "creator unchanged")
	require.NotNil(t, got.UpdatedByID)
	assert.Equal(t, bob.ID, *got.UpdatedByID)

	anon := &models.Subject{SubjectName: "Art"}
	require.NoError(t, subject.Create(ctx, db, anon, nil))
	assert.Nil(t, anon.CreatedByID)

	page, err := subject.List(ctx, db, paging.New(1, 25))
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	require.ErrorIs(t, subject.Create(ctx, db, &models.Subject{}, nil), subject.ErrSubjectNameEmpty)
	require.ErrorIs(t, subject.Update(ctx, db, &models.Subject{ID: 42, SubjectName: "x"}, nil), subject.ErrSubjectNotFound)

	_, err := subject.Get(ctx, db, 42)
	require.ErrorIs(t, err, subject.ErrSubjectNotFound)
	require.ErrorIs(t, subject.Delete(ctx, db, nil, 42), subject.ErrSubjectNotFound)
}

func TestDeleteCascadesTeachersAndPhotos(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	blobs := storage.NewFileStoreFs(afero.NewMemMapFs(), "/media")
	photos := attachment.New("teacher_photo", attachment.PrefixTeacherPhotos, blobs)

	maths := &models.Subject{SubjectName: "Maths"}
	require.NoError(t, subject.Create(ctx, db, maths, nil))

	ref, err := photos.Upload(ctx, strings.NewReader("jpg"), "ada.jpg")
	require.NoError(t, err)

	dob := datatypes.Date(time.Date(1980, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, db.Create(&models.Teacher{
		FirstName: "Ada", LastName: "Lovelace", Gender: models.GenderFemale,
		DateOfBirth: dob, Salary: 1000, Photo: ref, SubjectID: maths.ID,
	}).Error)
	require.NoError(t, db.Create(&models.Teacher{
		FirstName: "Alan", LastName: "Turing", Gender: models.GenderMale,
		DateOfBirth: dob, Salary: 1000, SubjectID: maths.ID,
	}).Error)

	grouped, err := subject.Teachers(ctx, db, maths.ID)
	require.NoError(t, err)
	require.Len(t, grouped[maths.ID], 2)
	assert.Equal(t, "Ada", grouped[maths.ID][0].FirstName)

	require.NoError(t, subject.Delete(ctx, db, photos, maths.ID))

	var n int64
	require.NoError(t, db.Model(&models.Teacher{}).Count(&n).Error)
	assert.Zero(t, n)

	ok, err := blobs.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, ok)
}

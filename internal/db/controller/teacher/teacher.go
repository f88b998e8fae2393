// Package teacher provides CRUD operations for teachers. The photo column is
// kept in step with the blob store through an attachment.Store.
package teacher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/catalog-admin/catalog-admin/internal/attachment"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
)

var (
	// ErrTeacherNotFound is returned when a teacher is not found.
	ErrTeacherNotFound = errors.New("teacher not found")
	// ErrSubjectNotFound is returned when the teacher references an unknown subject.
	ErrSubjectNotFound = errors.New("teacher subject not found")
	// ErrNameEmpty is returned when the first or last name is missing.
	ErrNameEmpty = errors.New("teacher first and last name cannot be empty")
	// ErrInvalidGender is returned for a gender other than M, F or O.
	ErrInvalidGender = errors.New("teacher gender must be one of M, F, O")
	// ErrNegativeSalary is returned for a salary below zero.
	ErrNegativeSalary = errors.New("teacher salary cannot be negative")
	// ErrBirthInFuture is returned for a date of birth after today.
	ErrBirthInFuture = errors.New("teacher date of birth is in the future")
)

var columns = []string{
	"first_name", "last_name", "gender", "date_of_birth", "salary", "photo", "subject_id",
	"updated_by_id", "updated_at",
}

func validate(t *models.Teacher) error {
	t.FirstName = strings.TrimSpace(t.FirstName)
	t.LastName = strings.TrimSpace(t.LastName)

	switch {
	case t.FirstName == "" || t.LastName == "":
		return ErrNameEmpty
	case t.Gender != models.GenderMale && t.Gender != models.GenderFemale && t.Gender != models.GenderOther:
		return ErrInvalidGender
	case t.Salary < 0:
		return ErrNegativeSalary
	case time.Time(t.DateOfBirth).After(time.Now()):
		return ErrBirthInFuture
	}

	return nil
}

func subjectExists(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Subject{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}

	if n == 0 {
		return ErrSubjectNotFound
	}

	return nil
}

// Get retrieves a teacher by its ID.
func Get(ctx context.Context, db *gorm.DB, id uint) (*models.Teacher, error) {
	var t models.Teacher

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.First(&t, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeacherNotFound
	}

	if err != nil {
		return nil, err
	}

	return &t, nil
}

// List returns one page of teachers ordered by id, restricted to subjectID
// unless it is zero.
func List(ctx context.Context, db *gorm.DB, p paging.Params, subjectID uint) (paging.Page[models.Teacher], error) {
	var page paging.Page[models.Teacher]

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if subjectID != 0 {
			tx = tx.Where("subject_id = ?", subjectID)
		}

		var err error
		page, err = paging.Find[models.Teacher](tx, p)

		return err
	})

	return page, err
}

// Create inserts t with the photo selected by photo, on behalf of the user by.
// An uploaded photo is removed again when the insert fails.
func Create(
	ctx context.Context, db *gorm.DB, photos *attachment.Store,
	t *models.Teacher, photo attachment.Update, by *uint64,
) error {
	pending := photos.Set(0, "", photo)

	err := validate(t)
	if err == nil {
		t.ID = 0
		t.Photo = pending.Current()
		t.CreatedByID = by
		t.UpdatedByID = by
		err = tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
			if err := subjectExists(tx, t.SubjectID); err != nil {
				return err
			}

			return tx.Omit(clause.Associations).Create(t).Error
		})
	}

	if err != nil {
		photos.Discard(ctx, pending)

		return err
	}

	return nil
}

// Update writes every field of t to the teacher t.ID and applies photo.
// The previous photo is deleted once the update has committed; on failure
// only a newly uploaded photo is removed.
func Update(
	ctx context.Context, db *gorm.DB, photos *attachment.Store,
	t *models.Teacher, photo attachment.Update, by *uint64,
) error {
	pending := photos.Set(t.ID, "", photo)

	err := validate(t)
	if err == nil {
		t.UpdatedByID = by
		err = tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
			var current models.Teacher
			if err := tx.Select("id", "photo").First(&current, t.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrTeacherNotFound
				}

				return err
			}

			if err := subjectExists(tx, t.SubjectID); err != nil {
				return err
			}

			pending = photos.Set(t.ID, current.Photo, photo)
			t.Photo = pending.Current()

			if err := tx.Model(&models.Teacher{ID: t.ID}).Select(columns).Omit(clause.Associations).Updates(t).Error; err != nil {
				return err
			}

			return tx.First(t, t.ID).Error
		})
	}

	if err != nil {
		photos.Discard(ctx, pending)

		return err
	}

	photos.CommitReplace(ctx, pending)

	return nil
}

// Delete removes the teacher, then its photo.
func Delete(ctx context.Context, db *gorm.DB, photos *attachment.Store, id uint) error {
	var t models.Teacher

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Select("id", "photo").First(&t, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTeacherNotFound
			}

			return err
		}

		if err := tx.Delete(&models.Teacher{}, id).Error; err != nil {
			return fmt.Errorf("delete teacher %d: %w", id, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	photos.DeleteOwner(ctx, t.ID, t.Photo)

	return nil
}

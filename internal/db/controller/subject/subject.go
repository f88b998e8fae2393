// Package subject provides CRUD operations for subjects.
package subject

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/catalog-admin/catalog-admin/internal/attachment"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
)

var (
	// ErrSubjectNotFound is returned when a subject is not found.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrSubjectNameEmpty is returned for subjects without a name.
	ErrSubjectNameEmpty = errors.New("subject name cannot be empty")
)

// Get retrieves a subject by its ID.
func Get(ctx context.Context, db *gorm.DB, id uint) (*models.Subject, error) {
	var s models.Subject

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.First(&s, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubjectNotFound
	}

	if err != nil {
		return nil, err
	}

	return &s, nil
}

// List returns one page of subjects ordered by id.
func List(ctx context.Context, db *gorm.DB, p paging.Params) (paging.Page[models.Subject], error) {
	var page paging.Page[models.Subject]

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		var err error
		page, err = paging.Find[models.Subject](tx, p)

		return err
	})

	return page, err
}

// Create inserts s on behalf of the user by, nil for anonymous writes.
func Create(ctx context.Context, db *gorm.DB, s *models.Subject, by *uint64) error {
	s.SubjectName = strings.TrimSpace(s.SubjectName)
	if s.SubjectName == "" {
		return ErrSubjectNameEmpty
	}

	s.ID = 0
	s.CreatedByID = by
	s.UpdatedByID = by

	return tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(s).Error
	})
}

// Update renames the subject s.ID and records by as its last editor.
func Update(ctx context.Context, db *gorm.DB, s *models.Subject, by *uint64) error {
	s.SubjectName = strings.TrimSpace(s.SubjectName)
	if s.SubjectName == "" {
		return ErrSubjectNameEmpty
	}

	s.UpdatedByID = by

	return tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		res := tx.Model(&models.Subject{ID: s.ID}).
			Select("subject_name", "updated_by_id", "updated_at").
			Omit(clause.Associations).
			Updates(s)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return ErrSubjectNotFound
		}

		return tx.First(s, s.ID).Error
	})
}

// Delete removes the subject and its teachers. Once the transaction has
// committed, the photo of every removed teacher is deleted from photos.
func Delete(ctx context.Context, db *gorm.DB, photos *attachment.Store, id uint) error {
	var teachers []models.Teacher

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Subject{}, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubjectNotFound
			}

			return err
		}

		if err := tx.Select("id", "photo").Where("subject_id = ?", id).Find(&teachers).Error; err != nil {
			return fmt.Errorf("load teachers: %w", err)
		}

		if err := tx.Where("subject_id = ?", id).Delete(&models.Teacher{}).Error; err != nil {
			return fmt.Errorf("delete teachers: %w", err)
		}

		return tx.Delete(&models.Subject{}, id).Error
	})
	if err != nil {
		return err
	}

	for _, t := range teachers {
		photos.DeleteOwner(ctx, t.ID, t.Photo)
	}

	return nil
}

// Teachers returns the teachers of the subjects ids keyed by subject id.
func Teachers(ctx context.Context, db *gorm.DB, ids ...uint) (map[uint][]models.Teacher, error) {
	out := make(map[uint][]models.Teacher, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var teachers []models.Teacher

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Where("subject_id IN ?", ids).Order("id").Find(&teachers).Error
	})
	if err != nil {
		return nil, err
	}

	for _, t := range teachers {
		out[t.SubjectID] = append(out[t.SubjectID], t)
	}

	return out, nil
}

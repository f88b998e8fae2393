// Package permission provides CRUD operations for permissions.
package permission

import (
	"context"
	"errors"
	"regexp"

	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
)

var (
	// ErrInvalidName is returned for names not of the form resource.action.
	ErrInvalidName = errors.New("permission name must look like resource.action")
	// ErrPermissionAlreadyExists is returned when the permission name is taken.
	ErrPermissionAlreadyExists = errors.New("permission already exists")
)

var namePattern = regexp.MustCompile(`^([a-z][a-z0-9_]*)\.([a-z][a-z0-9_]*)$`)

// split sets Resource and Action from Name.
func split(p *models.Permission) error {
	m := namePattern.FindStringSubmatch(p.Name)
	if m == nil {
		return ErrInvalidName
	}

	p.Resource, p.Action = m[1], m[2]

	return nil
}

// Get retrieves a permission by its ID.
func Get(ctx context.Context, db *gorm.DB, id uint) (*models.Permission, error) {
	var p models.Permission

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.First(&p, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrPermissionNotFound
	}

	if err != nil {
		return nil, err
	}

	return &p, nil
}

// List returns one page of permissions ordered by id.
func List(ctx context.Context, db *gorm.DB, p paging.Params) (paging.Page[models.Permission], error) {
	var page paging.Page[models.Permission]

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		var err error
		page, err = paging.Find[models.Permission](tx, p)

		return err
	})

	return page, err
}

func nameTaken(tx *gorm.DB, id uint, name string) error {
	var n int64
	if err := tx.Model(&models.Permission{}).Where("name = ? AND id <> ?", name, id).Count(&n).Error; err != nil {
		return err
	}

	if n > 0 {
		return ErrPermissionAlreadyExists
	}

	return nil
}

// Create inserts p. Resource and Action are derived from the name.
func Create(ctx context.Context, db *gorm.DB, p *models.Permission) error {
	if err := split(p); err != nil {
		return err
	}

	p.ID = 0

	return tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := nameTaken(tx, 0, p.Name); err != nil {
			return err
		}

		if err := tx.Create(p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrPermissionAlreadyExists
			}

			return err
		}

		return nil
	})
}

// Update changes name and description of the permission p.ID.
func Update(ctx context.Context, db *gorm.DB, p *models.Permission) error {
	if err := split(p); err != nil {
		return err
	}

	return tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := nameTaken(tx, p.ID, p.Name); err != nil {
			return err
		}

		res := tx.Model(&models.Permission{ID: p.ID}).
			Select("name", "resource", "action", "description", "updated_at").
			Updates(p)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return auth.ErrPermissionNotFound
		}

		return tx.First(p, p.ID).Error
	})
}

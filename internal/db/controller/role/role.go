// Package role provides CRUD operations for roles. Deleting a role and
// managing its grants belongs to auth.Service.
package role

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
)

var (
	// ErrRoleNameEmpty is returned for roles without a name.
	ErrRoleNameEmpty = errors.New("role name cannot be empty")
	// ErrRoleAlreadyExists is returned when the role name is taken.
	ErrRoleAlreadyExists = errors.New("role already exists")
	// ErrSystemRole is returned when renaming or deleting a seeded role.
	ErrSystemRole = errors.New("system roles cannot be renamed or deleted")
)

// Get retrieves a role by its ID.
func Get(ctx context.Context, db *gorm.DB, id uint) (*models.Role, error) {
	var r models.Role

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.First(&r, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrRoleNotFound
	}

	if err != nil {
		return nil, err
	}

	return &r, nil
}

// List returns one page of roles ordered by id.
func List(ctx context.Context, db *gorm.DB, p paging.Params) (paging.Page[models.Role], error) {
	var page paging.Page[models.Role]

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		var err error
		page, err = paging.Find[models.Role](tx, p)

		return err
	})

	return page, err
}

func nameTaken(tx *gorm.DB, id uint, name string) error {
	var n int64
	if err := tx.Model(&models.Role{}).Where("name = ? AND id <> ?", name, id).Count(&n).Error; err != nil {
		return err
	}

	if n > 0 {
		return ErrRoleAlreadyExists
	}

	return nil
}

// Create inserts r. System roles are only created by seeding.
func Create(ctx context.Context, db *gorm.DB, r *models.Role) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return ErrRoleNameEmpty
	}

	r.ID = 0

	return tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := nameTaken(tx, 0, r.Name); err != nil {
			return err
		}

		if err := tx.Create(r).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrRoleAlreadyExists
			}

			return err
		}

		return nil
	})
}

// Update changes name and description of the role r.ID. A system role keeps its name.
func Update(ctx context.Context, db *gorm.DB, r *models.Role) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return ErrRoleNameEmpty
	}

	return tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		var current models.Role
		if err := tx.First(&current, r.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auth.ErrRoleNotFound
			}

			return err
		}

		if current.IsSystem && current.Name != r.Name {
			return ErrSystemRole
		}

		if err := nameTaken(tx, r.ID, r.Name); err != nil {
			return err
		}

		if err := tx.Model(&current).Select("name", "description", "updated_at").Updates(&models.Role{
			Name:        r.Name,
			Description: r.Description,
		}).Error; err != nil {
			return err
		}

		return tx.First(r, r.ID).Error
	})
}

// Delete removes a non-system role through svc, which also drops its
// grants and unassigns its users.
func Delete(ctx context.Context, db *gorm.DB, svc *auth.Service, id uint) error {
	r, err := Get(ctx, db, id)
	if err != nil {
		return err
	}

	if r.IsSystem {
		return ErrSystemRole
	}

	return svc.DeleteRole(ctx, id)
}

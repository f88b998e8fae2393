// Package user provides the admin CRUD operations on local accounts.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
)

var (
	// ErrUsernameEmpty is returned for accounts without a username.
	ErrUsernameEmpty = errors.New("username cannot be empty")
	// ErrPasswordEmpty is returned when creating an account without a password.
	ErrPasswordEmpty = errors.New("password cannot be empty")
)

// Get retrieves a user by its ID.
func Get(ctx context.Context, db *gorm.DB, id uint64) (*models.User, error) {
	var u models.User

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.First(&u, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return &u, nil
}

// List returns one page of users ordered by id. A non-empty search matches
// username, email, first or last name.
func List(ctx context.Context, db *gorm.DB, p paging.Params, search string) (paging.Page[models.User], error) {
	var page paging.Page[models.User]

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if search = strings.TrimSpace(search); search != "" {
			like := "%" + search + "%"
			tx = tx.Where("username LIKE ? OR email LIKE ? OR first_name LIKE ? OR last_name LIKE ?",
				like, like, like, like)
		}

		var err error
		page, err = paging.Find[models.User](tx, p)

		return err
	})

	return page, err
}

// Create inserts u with password hashed.
func Create(ctx context.Context, db *gorm.DB, u *models.User, password string) error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return ErrUsernameEmpty
	}

	if password == "" {
		return ErrPasswordEmpty
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return err
	}

	u.ID = 0
	u.Password = hash

	return tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := auth.CheckUniqueTx(tx, 0, u.Username, u.Email); err != nil {
			return err
		}

		if err := tx.Create(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return auth.ErrUsernameExists
			}

			return fmt.Errorf("failed to create user: %w", err)
		}

		// false is the zero value, the column default would win on insert
		if !u.Active {
			return tx.Model(u).Update("active", false).Error
		}

		return nil
	})
}

// Update writes the profile fields of u to the user u.ID. The password is
// replaced only if password is not empty.
func Update(ctx context.Context, db *gorm.DB, u *models.User, password string) error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return ErrUsernameEmpty
	}

	columns := []string{"username", "email", "first_name", "last_name", "active", "is_staff", "updated_at"}

	if password != "" {
		hash, err := models.HashPassword(password)
		if err != nil {
			return err
		}

		u.Password = hash
		columns = append(columns, "password")
	}

	return tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := auth.CheckUniqueTx(tx, u.ID, u.Username, u.Email); err != nil {
			return err
		}

		res := tx.Model(&models.User{ID: u.ID}).Select(columns).Updates(u)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return auth.ErrUsernameExists
			}

			return res.Error
		}

		if res.RowsAffected == 0 {
			return auth.ErrUserNotFound
		}

		return tx.First(u, u.ID).Error
	})
}

// Delete removes the user with its role assignment and clears it from the
// audit columns of subjects and teachers.
func Delete(ctx context.Context, db *gorm.DB, id uint64) error {
	return tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.User{}, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return auth.ErrUserNotFound
			}

			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("delete role assignment: %w", err)
		}

		for _, model := range []any{&models.Subject{}, &models.Teacher{}} {
			for _, column := range []string{"created_by_id", "updated_by_id"} {
				if err := tx.Model(model).Where(column+" = ?", id).
					UpdateColumn(column, nil).Error; err != nil {
					return fmt.Errorf("clear %s: %w", column, err)
				}
			}
		}

		return tx.Delete(&models.User{}, id).Error
	})
}

// Roles returns the role of each of the users ids that has one.
func Roles(ctx context.Context, db *gorm.DB, ids ...uint64) (map[uint64]*models.Role, error) {
	out := make(map[uint64]*models.Role, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var assignments []models.UserRole

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Preload("Role").Where("user_id IN ? AND role_id IS NOT NULL", ids).Find(&assignments).Error
	})
	if err != nil {
		return nil, err
	}

	for _, a := range assignments {
		if a.Role != nil {
			out[a.UserID] = a.Role
		}
	}

	return out, nil
}

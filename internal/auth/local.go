package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
)

// LocalProvider handles local database accounts.
type LocalProvider struct {
	db          *gorm.DB
	defaultRole string
}

// NewLocalProvider creates a local account provider. Registered users get
// the role named defaultRole, or none if it is empty.
func NewLocalProvider(db *gorm.DB, defaultRole string) *LocalProvider {
	return &LocalProvider{db: db, defaultRole: defaultRole}
}

// Registration is the input of Register.
type Registration struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates an active local user and assigns the default role in the
// same transaction. Taken usernames and emails are rejected.
func (p *LocalProvider) Register(ctx context.Context, r Registration) (*models.User, error) {
	hash, err := models.HashPassword(r.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Active:    true,
		Username:  r.Username,
		Email:     r.Email,
		Password:  hash,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}

	err = tenant.Transaction(ctx, p.db, func(tx *gorm.DB) error {
		if err := CheckUniqueTx(tx, 0, r.Username, r.Email); err != nil {
			return err
		}

		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUsernameExists
			}

			return fmt.Errorf("failed to create user: %w", err)
		}

		if p.defaultRole == "" {
			return nil
		}

		var role models.Role
		if err := tx.Where("name = ?", p.defaultRole).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("default role %q: %w", p.defaultRole, ErrRoleNotFound)
			}

			return fmt.Errorf("failed to load default role: %w", err)
		}

		return assignRole(tx, user.ID, &role.ID)
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// CheckUniqueTx rejects a username or email held by a user other than userID.
func CheckUniqueTx(tx *gorm.DB, userID uint64, username, email string) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("username = ? AND id <> ?", username, userID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}

	if count > 0 {
		return ErrUsernameExists
	}

	if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, userID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}

	if count > 0 {
		return ErrEmailExists
	}

	return nil
}

// CheckUnique is CheckUniqueTx in its own transaction.
func (p *LocalProvider) CheckUnique(ctx context.Context, userID uint64, username, email string) error {
	return tenant.Transaction(ctx, p.db, func(tx *gorm.DB) error {
		return CheckUniqueTx(tx, userID, username, email)
	})
}

// Authenticate checks username and password of an active user.
func (p *LocalProvider) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := p.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (p *LocalProvider) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := p.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	return p.ResetPassword(ctx, userID, newPassword)
}

// ResetPassword sets a new password without checking the old one (admin function).
func (p *LocalProvider) ResetPassword(ctx context.Context, userID uint64, newPassword string) error {
	hash, err := models.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return tenant.Transaction(ctx, p.db, func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Update("password", hash)
		if res.Error != nil {
			return fmt.Errorf("failed to update password: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}

// GetUserByID retrieves a user by ID.
func (p *LocalProvider) GetUserByID(ctx context.Context, userID uint64) (*models.User, error) {
	return p.getUser(ctx, "id = ?", userID)
}

// GetUserByUsername retrieves a user by username.
func (p *LocalProvider) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return p.getUser(ctx, "username = ?", username)
}

func (p *LocalProvider) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var user models.User

	err := tenant.Transaction(ctx, p.db, func(tx *gorm.DB) error {
		return tx.Where(where, arg).First(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
)

// Service maintains the role and permission graph and answers permission queries.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// permissionsOfUser joins a user's role grants onto permissions.
func permissionsOfUser(tx *gorm.DB, userID uint64) *gorm.DB {
	return tx.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID)
}

// HasPermission reports whether the role of userID is granted the named
// permission. Unknown users and permissions yield false, not an error.
func (s *Service) HasPermission(ctx context.Context, userID uint64, permission string) (bool, error) {
	var count int64

	err := tenant.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		return permissionsOfUser(tx, userID).Where("permissions.name = ?", permission).Count(&count).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to check permission %s: %w", permission, err)
	}

	return count > 0, nil
}

// HasPermissionID is HasPermission by permission id.
func (s *Service) HasPermissionID(ctx context.Context, userID uint64, permissionID uint) (bool, error) {
	var count int64

	err := tenant.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		return permissionsOfUser(tx, userID).Where("permissions.id = ?", permissionID).Count(&count).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to check permission %d: %w", permissionID, err)
	}

	return count > 0, nil
}

// HasAnyPermission checks if a user has at least one of the given permissions.
func (s *Service) HasAnyPermission(ctx context.Context, userID uint64, permissions []string) (bool, error) {
	if len(permissions) == 0 {
		return false, nil
	}

	var count int64

	err := tenant.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		return permissionsOfUser(tx, userID).Where("permissions.name IN ?", permissions).Count(&count).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to check permissions: %w", err)
	}

	return count > 0, nil
}

// HasAllPermissions checks if a user has all of the given permissions.
func (s *Service) HasAllPermissions(ctx context.Context, userID uint64, permissions []string) (bool, error) {
	for _, perm := range permissions {
		has, err := s.HasPermission(ctx, userID, perm)
		if err != nil || !has {
			return false, err
		}
	}

	return true, nil
}

// GetUserPermissions returns the sorted permission names of a user.
func (s *Service) GetUserPermissions(ctx context.Context, userID uint64) ([]string, error) {
	permissions := []string{}

	err := tenant.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		return permissionsOfUser(tx, userID).
			Distinct("permissions.name").
			Order("permissions.name").
			Pluck("permissions.name", &permissions).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	return permissions, nil
}

// GetUserRole returns the role of a user, nil if it has none.
func (s *Service) GetUserRole(ctx context.Context, userID uint64) (*models.Role, error) {
	var ur models.UserRole

	err := tenant.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Preload("Role").Where("user_id = ?", userID).First(&ur).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get user role: %w", err)
	}

	return ur.Role, nil
}

// RolePermissions lists the permissions granted to a role.
func (s *Service) RolePermissions(ctx context.Context, roleID uint) ([]models.Permission, error) {
	var permissions []models.Permission

	err := tenant.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := roleExists(tx, roleID); err != nil {
			return err
		}

		return tx.Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
			Where("role_permissions.role_id = ?", roleID).
			Order("permissions.name").
			Find(&permissions).Error
	})
	if err != nil {
		return nil, err
	}

	return permissions, nil
}

// AssignRole sets the role of a user, replacing any role it held. A nil
// roleID leaves the user without a role. The user keeps a single UserRole row.
func (s *Service) AssignRole(ctx context.Context, userID uint64, roleID *uint) error {
	return tenant.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		return assignRole(tx, userID, roleID)
	})
}

// assignRole upserts on user_roles.user_id so concurrent assignments can not
// create a second row.
func assignRole(tx *gorm.DB, userID uint64, roleID *uint) error {
	if err := exists(tx, &models.User{}, userID, ErrUserNotFound); err != nil {
		return err
	}

	if roleID != nil {
		if err := roleExists(tx, *roleID); err != nil {
			return err
		}
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role_id"}),
	}).Create(&models.UserRole{UserID: userID, RoleID: roleID}).Error
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	return nil
}

// GrantPermission grants a permission to a role. Granting it twice returns
// ErrDuplicateGrant and leaves the single existing grant in place.
func (s *Service) GrantPermission(ctx context.Context, roleID, permissionID uint) error {
	return tenant.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := roleExists(tx, roleID); err != nil {
			return err
		}

		if err := exists(tx, &models.Permission{}, permissionID, ErrPermissionNotFound); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.RolePermission{}).
			Where("role_id = ? AND permission_id = ?", roleID, permissionID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check grant: %w", err)
		}

		if count > 0 {
			return ErrDuplicateGrant
		}

		err := tx.Create(&models.RolePermission{RoleID: roleID, PermissionID: &permissionID}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateGrant
		}

		if err != nil {
			return fmt.Errorf("failed to grant permission: %w", err)
		}

		return nil
	})
}

// RevokePermission removes a grant. Revoking a grant that does not exist is a no-op.
func (s *Service) RevokePermission(ctx context.Context, roleID, permissionID uint) error {
	return tenant.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		err := tx.Where("role_id = ? AND permission_id = ?", roleID, permissionID).
			Delete(&models.RolePermission{}).Error
		if err != nil {
			return fmt.Errorf("failed to revoke permission: %w", err)
		}

		return nil
	})
}

// DeleteRole deletes a role with its grants. Users holding it keep their
// UserRole row with the role cleared.
func (s *Service) DeleteRole(ctx context.Context, roleID uint) error {
	return tenant.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := roleExists(tx, roleID); err != nil {
			return err
		}

		if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to delete role grants: %w", err)
		}

		if err := tx.Model(&models.UserRole{}).Where("role_id = ?", roleID).
			Update("role_id", nil).Error; err != nil {
			return fmt.Errorf("failed to clear user roles: %w", err)
		}

		if err := tx.Delete(&models.Role{}, roleID).Error; err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}

		return nil
	})
}

// DeletePermission deletes a permission and every grant of it.
func (s *Service) DeletePermission(ctx context.Context, permissionID uint) error {
	return tenant.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Permission{}, permissionID, ErrPermissionNotFound); err != nil {
			return err
		}

		if err := tx.Where("permission_id = ?", permissionID).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to delete grants: %w", err)
		}

		if err := tx.Delete(&models.Permission{}, permissionID).Error; err != nil {
			return fmt.Errorf("failed to delete permission: %w", err)
		}

		return nil
	})
}

func roleExists(tx *gorm.DB, roleID uint) error {
	return exists(tx, &models.Role{}, roleID, ErrRoleNotFound)
}

// exists returns notFound unless a row of model with id exists.
func exists(tx *gorm.DB, model any, id any, notFound error) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up %T: %w", model, err)
	}

	if count == 0 {
		return notFound
	}

	return nil
}

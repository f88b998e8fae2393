package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/config"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/setting"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/user"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
	"github.com/catalog-admin/catalog-admin/internal/uniuri"
)

// Seeded system roles.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// seed creates the built in permissions, the admin and viewer roles and,
// on an empty user table, the admin account.
func seed(ctx context.Context, cfg *config.Config, db *gorm.DB, svc *auth.Service) error {
	permissionIDs := make(map[string]uint, len(auth.Definitions))

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		for _, d := range auth.Definitions {
			p := models.Permission{Name: d.Name}
			if err := tx.Where(models.Permission{Name: d.Name}).
				Attrs(models.Permission{Resource: d.Resource(), Action: d.Action(), Description: d.Description}).
				FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("permission %s: %w", d.Name, err)
			}

			permissionIDs[d.Name] = p.ID
		}

		return nil
	})
	if err != nil {
		return err
	}

	all := make([]string, 0, len(auth.Definitions))
	for _, d := range auth.Definitions {
		all = append(all, d.Name)
	}

	adminID, err := seedRole(ctx, db, svc, RoleAdmin, "Full access", all, permissionIDs)
	if err != nil {
		return err
	}

	if _, err = seedRole(ctx, db, svc, RoleViewer, "Read only access", auth.ReadPermissions(), permissionIDs); err != nil {
		return err
	}

	return seedAdmin(ctx, cfg, db, svc, adminID)
}

func seedRole(
	ctx context.Context, db *gorm.DB, svc *auth.Service,
	name, description string, permissions []string, ids map[string]uint,
) (uint, error) {
	role := models.Role{Name: name}

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Where(models.Role{Name: name}).
			Attrs(models.Role{Description: description, IsSystem: true}).
			FirstOrCreate(&role).Error
	})
	if err != nil {
		return 0, fmt.Errorf("role %s: %w", name, err)
	}

	for _, perm := range permissions {
		err := svc.GrantPermission(ctx, role.ID, ids[perm])
		if err != nil && !errors.Is(err, auth.ErrDuplicateGrant) {
			return 0, fmt.Errorf("grant %s to %s: %w", perm, name, err)
		}
	}

	return role.ID, nil
}

func seedAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB, svc *auth.Service, adminRoleID uint) error {
	if cfg.Seed.AdminUsername == "" {
		return nil
	}

	var count int64
	if err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Model(&models.User{}).Count(&count).Error
	}); err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	password := cfg.Seed.AdminPassword
	if password == "" {
		password = uniuri.New()
		log.Warn().Str("username", cfg.Seed.AdminUsername).Str("password", password).
			Msg("generated admin password, change it after the first login")
	}

	admin := &models.User{
		Username: cfg.Seed.AdminUsername,
		Email:    cfg.Seed.AdminEmail,
		Active:   true,
		IsStaff:  true,
	}
	if err := user.Create(ctx, db, admin, password); err != nil {
		return fmt.Errorf("admin user: %w", err)
	}

	if err := svc.AssignRole(ctx, admin.ID, &adminRoleID); err != nil {
		return fmt.Errorf("admin role: %w", err)
	}

	log.Info().Uint64("user_id", admin.ID).Str("username", admin.Username).Msg("admin user created")

	return nil
}

// jwtSecret returns the configured signing secret or the one generated on
// the first start and kept in the settings table.
func jwtSecret(cfg *config.Config, db *gorm.DB) (string, error) {
	if cfg.JWT.Secret != "" {
		return cfg.JWT.Secret, nil
	}

	secret, err := setting.Ensure(db, setting.JWTSecret, func() []byte {
		log.Info().Msg("generating jwt signing secret")

		return []byte(uniuri.NewLen(uniuri.SecretLen))
	})
	if err != nil {
		return "", fmt.Errorf("jwt secret: %w", err)
	}

	return string(secret), nil
}

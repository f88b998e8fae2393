// Package role provides handlers for roles and their permission grants.
package role

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/role"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/web/handler"
)

// Path is the base path for role management.
const Path = "/roles"

// Service provides CRUD operations for roles.
type Service struct {
	env *handler.Env
}

// Input is the writable part of a role.
type Input struct {
	Name        string `json:"name" form:"name" validate:"required,max=100"`
	Description string `json:"description" form:"description" validate:"max=255"`
}

// GrantInput names the permission to grant.
type GrantInput struct {
	Permission uint `json:"permission" form:"permission" validate:"required"`
}

// View is a role with its granted permissions.
type View struct {
	*models.Role
	Permissions []models.Permission `json:"permissions"`
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, env *handler.Env) error {
	if err := handler.Check(router, env); err != nil {
		return err
	}

	s.env = env
	admin := auth.RequirePermission(env.Auth, auth.PermAdminRoles)

	router.Route(Path, func(r fiber.Router) {
		r.Use(auth.RequireToken(env.Tokens))

		r.Get(handler.RootPath, admin, s.List)
		r.Post(handler.RootPath, admin, s.Create)
		r.Get(handler.IDPath, admin, s.Get)
		r.Put(handler.IDPath, admin, s.Update)
		r.Patch(handler.IDPath, admin, s.Update)
		r.Delete(handler.IDPath, admin, s.Delete)
		r.Post(handler.IDPath+"/permissions", admin, s.Grant)
		r.Delete(handler.IDPath+"/permissions/:permissionId", admin, s.Revoke)
	})

	return nil
}

func (s *Service) render(c *fiber.Ctx, status int, r *models.Role) error {
	permissions, err := s.env.Auth.RolePermissions(c.UserContext(), r.ID)
	if err != nil {
		return err
	}

	return c.Status(status).JSON(View{Role: r, Permissions: permissions})
}

// List returns one page of roles.
func (s *Service) List(c *fiber.Ctx) error {
	page, err := role.List(c.UserContext(), s.env.DB, handler.Paging(c))
	if err != nil {
		return err
	}

	return c.JSON(page)
}

// Get returns one role with its permissions.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	r, err := role.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, r)
}

// Create adds a role.
func (s *Service) Create(c *fiber.Ctx) error {
	var in Input
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	r := &models.Role{Name: in.Name, Description: in.Description}
	if err := role.Create(c.UserContext(), s.env.DB, r); err != nil {
		return err
	}

	return s.render(c, fiber.StatusCreated, r)
}

// Update changes name and description of a role.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	r, err := role.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	in := Input{Name: r.Name, Description: r.Description}
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	r.Name = in.Name
	r.Description = in.Description

	if err := role.Update(c.UserContext(), s.env.DB, r); err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, r)
}

// Delete removes a role. Its users keep their account without a role.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	if err := role.Delete(c.UserContext(), s.env.DB, s.env.Auth, id); err != nil {
		return err
	}

	log.Info().Uint("role_id", id).Msg("role deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

// Grant adds a permission to a role.
func (s *Service) Grant(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	var in GrantInput
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	if err := s.env.Auth.GrantPermission(c.UserContext(), id, in.Permission); err != nil {
		return err
	}

	r, err := role.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	return s.render(c, fiber.StatusCreated, r)
}

// Revoke removes a permission from a role. Revoking a missing grant succeeds.
func (s *Service) Revoke(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	permissionID, err := handler.ID(c, "permissionId")
	if err != nil {
		return err
	}

	if err := s.env.Auth.RevokePermission(c.UserContext(), id, permissionID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Package permission provides handlers for permissions.
package permission

import (
	"github.com/gofiber/fiber/v2"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/permission"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/web/handler"
)

// Path is the base path for permission management.
const Path = "/permissions"

// Service provides CRUD operations for permissions.
type Service struct {
	env *handler.Env
}

// Input is the writable part of a permission.
type Input struct {
	Name        string `json:"name" form:"name" validate:"required,max=100"`
	Description string `json:"description" form:"description" validate:"max=255"`
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
	})

	return nil
}

// List returns one page of permissions.
func (s *Service) List(c *fiber.Ctx) error {
	page, err := permission.List(c.UserContext(), s.env.DB, handler.Paging(c))
	if err != nil {
		return err
	}

	return c.JSON(page)
}

// Get returns one permission.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	p, err := permission.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	return c.JSON(p)
}

// Create adds a permission.
func (s *Service) Create(c *fiber.Ctx) error {
	var in Input
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	p := &models.Permission{Name: in.Name, Description: in.Description}
	if err := permission.Create(c.UserContext(), s.env.DB, p); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(p)
}

// Update changes name and description of a permission.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	p, err := permission.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	in := Input{Name: p.Name, Description: p.Description}
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	p.Name = in.Name
	p.Description = in.Description

	if err := permission.Update(c.UserContext(), s.env.DB, p); err != nil {
		return err
	}

	return c.JSON(p)
}

// Delete removes a permission and every grant of it.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	if err := s.env.Auth.DeletePermission(c.UserContext(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Package user provides handlers for managing users (CRUD) and their role.
package user

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/user"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/web/handler"
)

// Path is the base path for user management.
const Path = "/users"

// Service provides CRUD operations for users.
type Service struct {
	env *handler.Env
}

// Input is the writable part of a user. Password is optional on update.
type Input struct {
	Username  string `json:"username" form:"username" validate:"required,max=150"`
	Email     string `json:"email" form:"email" validate:"required,email,max=255"`
	Password  string `json:"password" form:"password" validate:"omitempty,min=8"`
	FirstName string `json:"firstName" form:"firstName" validate:"max=150"`
	LastName  string `json:"lastName" form:"lastName" validate:"max=150"`
	Active    bool   `json:"active" form:"active"`
	IsStaff   bool   `json:"isStaff" form:"isStaff"`
	Role      *uint  `json:"role" form:"role"`
}

// RoleInput assigns a role, null unassigns.
type RoleInput struct {
	Role *uint `json:"role" form:"role"`
}

// View is a user with its role.
type View struct {
	*models.User
	Role *models.Role `json:"role"`
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, env *handler.Env) error {
	if err := handler.Check(router, env); err != nil {
		return err
	}

	s.env = env
	admin := auth.RequirePermission(env.Auth, auth.PermAdminUsers)

	router.Route(Path, func(r fiber.Router) {
		r.Use(auth.RequireToken(env.Tokens))

		r.Get(handler.RootPath, admin, s.List)
		r.Post(handler.RootPath, admin, s.Create)
		r.Get(handler.IDPath, admin, s.Get)
		r.Put(handler.IDPath, admin, s.Update)
		r.Patch(handler.IDPath, admin, s.Update)
		r.Delete(handler.IDPath, admin, s.Delete)
		r.Put(handler.IDPath+"/role", auth.RequireAllPermissions(env.Auth, auth.PermAdminUsers, auth.PermAdminRoles),
			s.AssignRole)
	})

	return nil
}

func (s *Service) views(c *fiber.Ctx, users []models.User) ([]View, error) {
	ids := make([]uint64, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}

	roles, err := user.Roles(c.UserContext(), s.env.DB, ids...)
	if err != nil {
		return nil, err
	}

	out := make([]View, len(users))
	for i := range users {
		out[i] = View{User: &users[i], Role: roles[users[i].ID]}
	}

	return out, nil
}

func (s *Service) render(c *fiber.Ctx, status int, u *models.User) error {
	views, err := s.views(c, []models.User{*u})
	if err != nil {
		return err
	}

	return c.Status(status).JSON(views[0])
}

// List shows users with pagination and ?search.
func (s *Service) List(c *fiber.Ctx) error {
	page, err := user.List(c.UserContext(), s.env.DB, handler.Paging(c), c.Query("search"))
	if err != nil {
		return err
	}

	items, err := s.views(c, page.Items)
	if err != nil {
		return err
	}

	return c.JSON(paging.Page[View]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}

// Get returns one user.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.UserID(c, "id")
	if err != nil {
		return err
	}

	u, err := user.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, u)
}

// Create adds a user and assigns the role of the body, if any.
func (s *Service) Create(c *fiber.Ctx) error {
	in := Input{Active: true}
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	if in.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "password is required")
	}

	if err := s.checkRoleGrant(c, in.Role); err != nil {
		return err
	}

	u := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Active:    in.Active,
		IsStaff:   in.IsStaff,
	}
	if err := user.Create(c.UserContext(), s.env.DB, u, in.Password); err != nil {
		return err
	}

	if in.Role != nil {
		if err := s.env.Auth.AssignRole(c.UserContext(), u.ID, in.Role); err != nil {
			return err
		}
	}

	log.Info().Uint64("user_id", u.ID).Str("username", u.Username).Msg("user created")

	return s.render(c, fiber.StatusCreated, u)
}

// Update changes a user. The role is only touched when the body names one.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.UserID(c, "id")
	if err != nil {
		return err
	}

	u, err := user.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	in := Input{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Active:    u.Active,
		IsStaff:   u.IsStaff,
	}
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	if err := s.checkRoleGrant(c, in.Role); err != nil {
		return err
	}

	u.Username = in.Username
	u.Email = in.Email
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Active = in.Active
	u.IsStaff = in.IsStaff

	if err := user.Update(c.UserContext(), s.env.DB, u, in.Password); err != nil {
		return err
	}

	if in.Role != nil {
		if err := s.env.Auth.AssignRole(c.UserContext(), u.ID, in.Role); err != nil {
			return err
		}
	}

	return s.render(c, fiber.StatusOK, u)
}

// Delete removes a user. Users cannot delete themselves.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.UserID(c, "id")
	if err != nil {
		return err
	}

	if self, _ := auth.UserID(c); self == id {
		return fiber.NewError(fiber.StatusBadRequest, "you cannot delete your own account")
	}

	if err := user.Delete(c.UserContext(), s.env.DB, id); err != nil {
		return err
	}

	log.Info().Uint64("user_id", id).Msg("user deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

// checkRoleGrant allows naming a role only to users that also manage roles,
// the same rule the role route enforces.
func (s *Service) checkRoleGrant(c *fiber.Ctx, roleID *uint) error {
	if roleID == nil {
		return nil
	}

	self, _ := auth.UserID(c)

	ok, err := s.env.Auth.HasPermission(c.UserContext(), self, auth.PermAdminRoles)
	if err != nil {
		return err
	}

	if !ok {
		return fiber.NewError(fiber.StatusForbidden, "you do not have permission to assign roles")
	}

	return nil
}

// AssignRole sets or clears the role of a user. It needs both user and role
// management permissions.
func (s *Service) AssignRole(c *fiber.Ctx) error {
	id, err := handler.UserID(c, "id")
	if err != nil {
		return err
	}

	var in RoleInput
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	if err := s.env.Auth.AssignRole(c.UserContext(), id, in.Role); err != nil {
		return err
	}

	role, err := s.env.Auth.GetUserRole(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"user": id, "role": role})
}

// Package account serves /api/auth: token login, refresh, verification,
// logout, self registration and the current user.
package account

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/web/handler"
)

// Path is the route group of the token endpoints.
const Path = "/auth"

// msgBadCredentials is the answer to every failed login.
const msgBadCredentials = "no active account found with the given credentials"

// Service handles the account endpoints.
type Service struct {
	env *handler.Env
}

// LoginInput is the body of a login.
type LoginInput struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// RefreshInput carries a refresh token.
type RefreshInput struct {
	Refresh string `json:"refresh" form:"refresh" validate:"required"`
}

// LogoutInput optionally carries the refresh token to revoke.
type LogoutInput struct {
	Refresh string `json:"refresh" form:"refresh"`
}

// VerifyInput carries any token.
type VerifyInput struct {
	Token string `json:"token" form:"token" validate:"required"`
}

// RegisterInput is the body of a self registration.
type RegisterInput struct {
	Username  string `json:"username" form:"username" validate:"required,max=150,alphanumunicode"`
	Email     string `json:"email" form:"email" validate:"required,email,max=255"`
	Password  string `json:"password" form:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" form:"firstName" validate:"max=150"`
	LastName  string `json:"lastName" form:"lastName" validate:"max=150"`
}

// PasswordInput is the body of a password change.
type PasswordInput struct {
	OldPassword string `json:"oldPassword" form:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" form:"newPassword" validate:"required,min=8"`
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, env *handler.Env) error {
	if err := handler.Check(router, env); err != nil {
		return err
	}

	if env.Tokens == nil || env.Accounts == nil {
		return handler.ErrNilEnv
	}

	s.env = env

	router.Route(Path, func(r fiber.Router) {
		r.Post("/login", s.Login)
		r.Post("/refresh", s.Refresh)
		r.Post("/verify", s.Verify)
		r.Post("/register", s.Register)
		r.Post("/logout", auth.RequireToken(env.Tokens), s.Logout)
		r.Get("/me", auth.RequireToken(env.Tokens), s.Me)
		r.Post("/password", auth.RequireToken(env.Tokens), s.ChangePassword)
	})

	return nil
}

// Login exchanges username and password for a token pair.
func (s *Service) Login(c *fiber.Ctx) error {
	var in LoginInput
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	user, err := s.env.Accounts.Authenticate(c.UserContext(), in.Username, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidPassword) ||
			errors.Is(err, auth.ErrUserAccountDisabled) {
			log.Info().Err(err).Str("username", in.Username).Msg("login failed")

			return fiber.NewError(fiber.StatusUnauthorized, msgBadCredentials)
		}

		return err
	}

	pair, err := s.env.Tokens.Issue(c.UserContext(), user)
	if err != nil {
		return err
	}

	log.Info().Uint64("user_id", user.ID).Msg("user logged in")

	return c.JSON(pair)
}

// Refresh issues a new access token for a refresh token.
func (s *Service) Refresh(c *fiber.Ctx) error {
	var in RefreshInput
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	access, err := s.env.Tokens.Refresh(c.UserContext(), in.Refresh)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"access": access})
}

// Verify answers 200 for a valid token of either type.
func (s *Service) Verify(c *fiber.Ctx) error {
	var in VerifyInput
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	if _, err := s.env.Tokens.Verify(in.Token); err != nil {
		return err
	}

	return c.JSON(fiber.Map{})
}

// Register creates an active account with the default role.
func (s *Service) Register(c *fiber.Ctx) error {
	var in RegisterInput
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	user, err := s.env.Accounts.Register(c.UserContext(), auth.Registration{
		Username:  in.Username,
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		return err
	}

	log.Info().Uint64("user_id", user.ID).Str("username", user.Username).Msg("user registered")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "user registered successfully"})
}

// Logout revokes the refresh token of the body, if any.
func (s *Service) Logout(c *fiber.Ctx) error {
	var in LogoutInput
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	if in.Refresh != "" {
		if err := s.env.Tokens.Revoke(in.Refresh); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	return c.JSON(fiber.Map{"detail": "logout successful"})
}

// Me describes the authenticated user, its role and permissions.
func (s *Service) Me(c *fiber.Ctx) error {
	userID, _ := auth.UserID(c)

	user, err := s.env.Accounts.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return err
	}

	role, err := s.env.Auth.GetUserRole(c.UserContext(), userID)
	if err != nil {
		return err
	}

	permissions, err := s.env.Auth.GetUserPermissions(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":     "Hello, " + user.Username + "!",
		"user":        user,
		"role":        role,
		"permissions": permissions,
	})
}

// ChangePassword replaces the password of the authenticated user.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	var in PasswordInput
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	userID, _ := auth.UserID(c)
	if err := s.env.Accounts.ChangePassword(c.UserContext(), userID, in.OldPassword, in.NewPassword); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

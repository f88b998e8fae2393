package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Locals keys set by RequireToken.
const (
	LocalsUserID = "user_id"
	LocalsClaims = "claims"
)

// UserID returns the authenticated user of the request.
func UserID(c *fiber.Ctx) (uint64, bool) {
	id, ok := c.Locals(LocalsUserID).(uint64)

	return id, ok && id != 0
}

// RequireToken authenticates the "Authorization: Bearer <access token>" header.
// The token must belong to the tenant schema of the request and to a user
// that still exists and is active.
func RequireToken(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication credentials were not provided")
		}

		claims, err := tokens.VerifyAccess(strings.TrimSpace(token))
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("rejected bearer token")

			return fiber.NewError(fiber.StatusUnauthorized, "token is invalid or expired")
		}

		if _, err = tokens.Authorize(c.UserContext(), claims); err != nil {
			if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTenantMismatch) ||
				errors.Is(err, ErrUserAccountDisabled) {
				log.Info().Err(err).Uint64("user_id", claims.UserID).Msg("rejected bearer token")

				return fiber.NewError(fiber.StatusUnauthorized, "token is invalid or expired")
			}

			return err
		}

		c.Locals(LocalsUserID, claims.UserID)
		c.Locals(LocalsClaims, claims)

		return c.Next()
	}
}

type permissionCheck func(c *fiber.Ctx, userID uint64) (bool, error)

func require(check permissionCheck, permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := UserID(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication credentials were not provided")
		}

		has, err := check(c, userID)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", userID).Strs("permissions", permissions).
				Msg("Failed to check permission")

			return errors.Join(fiber.ErrInternalServerError, err)
		}

		if !has {
			log.Warn().Uint64("user_id", userID).Strs("permissions", permissions).
				Msg("User lacks required permission")

			return fiber.NewError(fiber.StatusForbidden, "you do not have permission to perform this action")
		}

		return c.Next()
	}
}

// RequirePermission allows the request if the user holds permission.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return require(func(c *fiber.Ctx, userID uint64) (bool, error) {
		return authService.HasPermission(c.UserContext(), userID, permission)
	}, permission)
}

// RequireAnyPermission allows the request if the user holds one of permissions.
func RequireAnyPermission(authService *Service, permissions ...string) fiber.Handler {
	return require(func(c *fiber.Ctx, userID uint64) (bool, error) {
		return authService.HasAnyPermission(c.UserContext(), userID, permissions)
	}, permissions...)
}

// RequireAllPermissions allows the request if the user holds all permissions.
func RequireAllPermissions(authService *Service, permissions ...string) fiber.Handler {
	return require(func(c *fiber.Ctx, userID uint64) (bool, error) {
		return authService.HasAllPermissions(c.UserContext(), userID, permissions)
	}, permissions...)
}

// Package tenant binds the tenant schema of a request to its user context.
package tenant

import (
	"github.com/gofiber/fiber/v2"

	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
)

// Config of the tenant middleware.
type Config struct {
	// Default is the schema used when the request names none.
	Default string
	// AllowHeader lets clients pick the schema with tenant.HeaderSchema.
	AllowHeader bool
}

// New returns a middleware that stores the tenant schema in c.UserContext().
// Invalid schema names are answered with 400.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		schema := cfg.Default
		if cfg.AllowHeader {
			if h := c.Get(tenant.HeaderSchema); h != "" {
				schema = h
			}
		}

		if schema == "" {
			return c.Next()
		}

		ctx, err := tenant.WithSchema(c.UserContext(), schema)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		c.SetUserContext(ctx)

		return c.Next()
	}
}

// Package dashboard serves the catalog overview.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
	"github.com/catalog-admin/catalog-admin/internal/web/handler"
)

const (
	// Path is the path of the dashboard.
	Path = "/dashboard"

	// DefaultLowStock is the stock at or below which a product counts as low.
	DefaultLowStock = 5
)

// Data is the dashboard body.
type Data struct {
	Categories int64 `json:"categories"`
	Products   int64 `json:"products"`
	OutOfStock int64 `json:"outOfStock"`
	LowStock   int64 `json:"lowStock"`
	Subjects   int64 `json:"subjects"`
	Teachers   int64 `json:"teachers"`
}

// Service is the dashboard handler service.
type Service struct {
	env *handler.Env
}

// Init registers the route. Any read permission grants access.
func (s *Service) Init(router fiber.Router, env *handler.Env) error {
	if err := handler.Check(router, env); err != nil {
		return err
	}

	s.env = env

	router.Get(Path, auth.RequireToken(env.Tokens), auth.RequireAnyPermission(env.Auth, auth.ReadPermissions()...), s.Get)

	return nil
}

// Get counts the catalog. lowStock sets the low stock threshold.
func (s *Service) Get(c *fiber.Ctx) error {
	threshold := c.QueryInt("lowStock", DefaultLowStock)
	if threshold < 0 {
		threshold = DefaultLowStock
	}

	var data Data

	err := tenant.Transaction(c.UserContext(), s.env.DB, func(tx *gorm.DB) error {
		counts := []struct {
			dst   *int64
			query *gorm.DB
		}{
			{&data.Categories, tx.Model(&models.Category{})},
			{&data.Products, tx.Model(&models.Product{})},
			{&data.OutOfStock, tx.Model(&models.Product{}).Where("stock = 0")},
			{&data.LowStock, tx.Model(&models.Product{}).Where("stock <= ?", threshold)},
			{&data.Subjects, tx.Model(&models.Subject{})},
			{&data.Teachers, tx.Model(&models.Teacher{})},
		}

		for _, q := range counts {
			if err := q.query.Count(q.dst).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Debug().
		Int64("categories", data.Categories).
		Int64("products", data.Products).
		Int64("subjects", data.Subjects).
		Int64("teachers", data.Teachers).
		Msg("dashboard counted")

	return c.JSON(data)
}

// Package product serves /api/products. Bodies are multipart forms, the
// image travels in the "image" file part.
package product

import (
	"github.com/gofiber/fiber/v2"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/product"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/web/handler"
)

const (
	// Path is the route group of products.
	Path = "/products"

	// ImageField is the multipart field of the product image.
	ImageField = "image"
)

// Service handles the product endpoints.
type Service struct {
	env *handler.Env
}

// Input is the writable part of a product, apart from the image.
type Input struct {
	Name        string  `json:"name" form:"name" validate:"required,max=100"`
	Category    uint    `json:"category" form:"category" validate:"required"`
	Price       float64 `json:"price" form:"price" validate:"gte=0,lt=100000000"`
	Stock       int     `json:"stock" form:"stock" validate:"gte=0"`
	Description *string `json:"description" form:"description"`
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, env *handler.Env) error {
	if err := handler.Check(router, env); err != nil {
		return err
	}

	s.env = env

	router.Route(Path, func(r fiber.Router) {
		r.Use(auth.RequireToken(env.Tokens))

		r.Get(handler.RootPath, auth.RequirePermission(env.Auth, auth.PermProductRead), s.List)
		r.Post(handler.RootPath, auth.RequirePermission(env.Auth, auth.PermProductCreate), s.Create)
		r.Get(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermProductRead), s.Get)
		r.Put(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermProductUpdate), s.Update)
		r.Patch(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermProductUpdate), s.Update)
		r.Delete(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermProductDelete), s.Delete)
	})

	return nil
}

// List returns one page of products, optionally of one ?category.
func (s *Service) List(c *fiber.Ctx) error {
	page, err := product.List(c.UserContext(), s.env.DB, handler.Paging(c), uint(c.QueryInt("category")))
	if err != nil {
		return err
	}

	items := make([]handler.ProductView, len(page.Items))
	for i := range page.Items {
		items[i] = handler.NewProductView(&page.Items[i], s.env.ProductImages)
	}

	return c.JSON(paging.Page[handler.ProductView]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}

// Get returns one product.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	p, err := product.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	return c.JSON(handler.NewProductView(p, s.env.ProductImages))
}

// Create adds a product with an optional image.
func (s *Service) Create(c *fiber.Ctx) error {
	var in Input
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	img, err := handler.Attachment(c, s.env.ProductImages, ImageField)
	if err != nil {
		return err
	}

	p := &models.Product{
		Name:        in.Name,
		CategoryID:  in.Category,
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
	}
	if err := product.Create(c.UserContext(), s.env.DB, s.env.ProductImages, p, img); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(handler.NewProductView(p, s.env.ProductImages))
}

// Update changes a product. Omitting the image keeps it, sending an empty
// image value removes it.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	p, err := product.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	in := Input{
		Name:        p.Name,
		Category:    p.CategoryID,
		Price:       p.Price,
		Stock:       p.Stock,
		Description: p.Description,
	}
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	img, err := handler.Attachment(c, s.env.ProductImages, ImageField)
	if err != nil {
		return err
	}

	p.Name = in.Name
	p.CategoryID = in.Category
	p.Price = in.Price
	p.Stock = in.Stock
	p.Description = in.Description

	if err := product.Update(c.UserContext(), s.env.DB, s.env.ProductImages, p, img); err != nil {
		return err
	}

	return c.JSON(handler.NewProductView(p, s.env.ProductImages))
}

// Delete removes a product and its image.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	if err := product.Delete(c.UserContext(), s.env.DB, s.env.ProductImages, id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

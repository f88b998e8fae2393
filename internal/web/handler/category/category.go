// Package category serves /api/categories.
package category

import (
	"github.com/gofiber/fiber/v2"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/category"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/web/handler"
)

// Path is the route group of categories.
const Path = "/categories"

// Service handles the category endpoints.
type Service struct {
	env *handler.Env
}

// Input is the writable part of a category.
type Input struct {
	Name string `json:"name" form:"name" validate:"required,max=100"`
}

// View is a category with its products.
type View struct {
	ID       uint                  `json:"id"`
	Name     string                `json:"name"`
	Products []handler.ProductView `json:"products"`
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, env *handler.Env) error {
	if err := handler.Check(router, env); err != nil {
		return err
	}

	s.env = env

	router.Route(Path, func(r fiber.Router) {
		r.Use(auth.RequireToken(env.Tokens))

		r.Get(handler.RootPath, auth.RequirePermission(env.Auth, auth.PermCategoryRead), s.List)
		r.Post(handler.RootPath, auth.RequirePermission(env.Auth, auth.PermCategoryCreate), s.Create)
		r.Get(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermCategoryRead), s.Get)
		r.Put(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermCategoryUpdate), s.Update)
		r.Patch(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermCategoryUpdate), s.Update)
		r.Delete(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermCategoryDelete), s.Delete)
	})

	return nil
}

func (s *Service) views(c *fiber.Ctx, categories ...models.Category) ([]View, error) {
	ids := make([]uint, len(categories))
	for i := range categories {
		ids[i] = categories[i].ID
	}

	products, err := category.Products(c.UserContext(), s.env.DB, ids...)
	if err != nil {
		return nil, err
	}

	out := make([]View, len(categories))
	for i, cat := range categories {
		out[i] = View{ID: cat.ID, Name: cat.Name, Products: []handler.ProductView{}}
		for j := range products[cat.ID] {
			out[i].Products = append(out[i].Products, handler.NewProductView(&products[cat.ID][j], s.env.ProductImages))
		}
	}

	return out, nil
}

// List returns one page of categories.
func (s *Service) List(c *fiber.Ctx) error {
	page, err := category.List(c.UserContext(), s.env.DB, handler.Paging(c))
	if err != nil {
		return err
	}

	items, err := s.views(c, page.Items...)
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

func (s *Service) render(c *fiber.Ctx, status int, cat *models.Category) error {
	views, err := s.views(c, *cat)
	if err != nil {
		return err
	}

	return c.Status(status).JSON(views[0])
}

// Get returns one category.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	cat, err := category.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, cat)
}

// Create adds a category.
func (s *Service) Create(c *fiber.Ctx) error {
	var in Input
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	cat := &models.Category{Name: in.Name}
	if err := category.Create(c.UserContext(), s.env.DB, cat); err != nil {
		return err
	}

	return s.render(c, fiber.StatusCreated, cat)
}

// Update renames a category. PUT and PATCH both accept partial bodies.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	cat, err := category.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	in := Input{Name: cat.Name}
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	cat.Name = in.Name
	if err := category.Update(c.UserContext(), s.env.DB, cat); err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, cat)
}

// Delete removes a category with its products and their images.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	if err := category.Delete(c.UserContext(), s.env.DB, s.env.ProductImages, id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

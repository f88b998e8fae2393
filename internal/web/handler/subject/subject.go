// Package subject serves /api/subjects.
package subject

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/subject"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/web/handler"
)

// Path is the route group of subjects.
const Path = "/subjects"

// Service handles the subject endpoints.
type Service struct {
	env *handler.Env
}

// Input is the writable part of a subject.
type Input struct {
	SubjectName string `json:"subjectName" form:"subjectName" validate:"required,max=100"`
}

// View is a subject with its teachers.
type View struct {
	ID          uint                  `json:"id"`
	SubjectName string                `json:"subjectName"`
	CreatedAt   time.Time             `json:"createdAt"`
	CreatedBy   *uint64               `json:"createdBy"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	UpdatedBy   *uint64               `json:"updatedBy"`
	Teachers    []handler.TeacherView `json:"teachers"`
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, env *handler.Env) error {
	if err := handler.Check(router, env); err != nil {
		return err
	}

	s.env = env

	router.Route(Path, func(r fiber.Router) {
		r.Use(auth.RequireToken(env.Tokens))

		r.Get(handler.RootPath, auth.RequirePermission(env.Auth, auth.PermSubjectRead), s.List)
		r.Post(handler.RootPath, auth.RequirePermission(env.Auth, auth.PermSubjectCreate), s.Create)
		r.Get(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermSubjectRead), s.Get)
		r.Put(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermSubjectUpdate), s.Update)
		r.Patch(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermSubjectUpdate), s.Update)
		r.Delete(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermSubjectDelete), s.Delete)
	})

	return nil
}

func (s *Service) views(c *fiber.Ctx, subjects ...models.Subject) ([]View, error) {
	ids := make([]uint, len(subjects))
	for i := range subjects {
		ids[i] = subjects[i].ID
	}

	teachers, err := subject.Teachers(c.UserContext(), s.env.DB, ids...)
	if err != nil {
		return nil, err
	}

	out := make([]View, len(subjects))
	for i, sub := range subjects {
		out[i] = View{
			ID:          sub.ID,
			SubjectName: sub.SubjectName,
			CreatedAt:   sub.CreatedAt,
			CreatedBy:   sub.CreatedByID,
			UpdatedAt:   sub.UpdatedAt,
			UpdatedBy:   sub.UpdatedByID,
			Teachers:    []handler.TeacherView{},
		}
		for j := range teachers[sub.ID] {
			out[i].Teachers = append(out[i].Teachers, handler.NewTeacherView(&teachers[sub.ID][j], s.env.TeacherPhotos))
		}
	}

	return out, nil
}

func (s *Service) render(c *fiber.Ctx, status int, sub *models.Subject) error {
	views, err := s.views(c, *sub)
	if err != nil {
		return err
	}

	return c.Status(status).JSON(views[0])
}

// List returns one page of subjects.
func (s *Service) List(c *fiber.Ctx) error {
	page, err := subject.List(c.UserContext(), s.env.DB, handler.Paging(c))
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

// Get returns one subject.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	sub, err := subject.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, sub)
}

// Create adds a subject created by the current user.
func (s *Service) Create(c *fiber.Ctx) error {
	var in Input
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	sub := &models.Subject{SubjectName: in.SubjectName}
	if err := subject.Create(c.UserContext(), s.env.DB, sub, handler.Actor(c)); err != nil {
		return err
	}

	return s.render(c, fiber.StatusCreated, sub)
}

// Update renames a subject.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	sub, err := subject.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	in := Input{SubjectName: sub.SubjectName}
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	sub.SubjectName = in.SubjectName
	if err := subject.Update(c.UserContext(), s.env.DB, sub, handler.Actor(c)); err != nil {
		return err
	}

	return s.render(c, fiber.StatusOK, sub)
}

// Delete removes a subject with its teachers and their photos.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	if err := subject.Delete(c.UserContext(), s.env.DB, s.env.TeacherPhotos, id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

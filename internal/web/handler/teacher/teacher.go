// Package teacher serves /api/teachers. Bodies are multipart forms, the
// photo travels in the "photo" file part.
package teacher

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/teacher"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/web/handler"
)

const (
	// Path is the route group of teachers.
	Path = "/teachers"

	// PhotoField is the multipart field of the teacher photo.
	PhotoField = "photo"
)

// Service handles the teacher endpoints.
type Service struct {
	env *handler.Env
}

// Input is the writable part of a teacher, apart from the photo.
type Input struct {
	FirstName   string  `json:"firstName" form:"firstName" validate:"required,max=100"`
	LastName    string  `json:"lastName" form:"lastName" validate:"required,max=100"`
	Gender      string  `json:"gender" form:"gender" validate:"required,oneof=M F O"`
	DateOfBirth string  `json:"dateOfBirth" form:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Salary      float64 `json:"salary" form:"salary" validate:"gte=0,lt=100000000"`
	Subject     uint    `json:"subject" form:"subject" validate:"required"`
}

func (in *Input) apply(t *models.Teacher) error {
	dob, err := time.Parse(time.DateOnly, in.DateOfBirth)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "dateOfBirth: "+err.Error())
	}

	t.FirstName = in.FirstName
	t.LastName = in.LastName
	t.Gender = in.Gender
	t.DateOfBirth = datatypes.Date(dob)
	t.Salary = in.Salary
	t.SubjectID = in.Subject

	return nil
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, env *handler.Env) error {
	if err := handler.Check(router, env); err != nil {
		return err
	}

	s.env = env

	router.Route(Path, func(r fiber.Router) {
		r.Use(auth.RequireToken(env.Tokens))

		r.Get(handler.RootPath, auth.RequirePermission(env.Auth, auth.PermTeacherRead), s.List)
		r.Post(handler.RootPath, auth.RequirePermission(env.Auth, auth.PermTeacherCreate), s.Create)
		r.Get(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermTeacherRead), s.Get)
		r.Put(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermTeacherUpdate), s.Update)
		r.Patch(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermTeacherUpdate), s.Update)
		r.Delete(handler.IDPath, auth.RequirePermission(env.Auth, auth.PermTeacherDelete), s.Delete)
	})

	return nil
}

// List returns one page of teachers, optionally of one ?subject.
func (s *Service) List(c *fiber.Ctx) error {
	page, err := teacher.List(c.UserContext(), s.env.DB, handler.Paging(c), uint(c.QueryInt("subject")))
	if err != nil {
		return err
	}

	items := make([]handler.TeacherView, len(page.Items))
	for i := range page.Items {
		items[i] = handler.NewTeacherView(&page.Items[i], s.env.TeacherPhotos)
	}

	return c.JSON(paging.Page[handler.TeacherView]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}

// Get returns one teacher.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	t, err := teacher.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	return c.JSON(handler.NewTeacherView(t, s.env.TeacherPhotos))
}

// Create adds a teacher with an optional photo.
func (s *Service) Create(c *fiber.Ctx) error {
	var in Input
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	t := new(models.Teacher)
	if err := in.apply(t); err != nil {
		return err
	}

	photo, err := handler.Attachment(c, s.env.TeacherPhotos, PhotoField)
	if err != nil {
		return err
	}

	if err := teacher.Create(c.UserContext(), s.env.DB, s.env.TeacherPhotos, t, photo, handler.Actor(c)); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(handler.NewTeacherView(t, s.env.TeacherPhotos))
}

// Update changes a teacher. Omitting the photo keeps it, sending an empty
// photo value removes it.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	t, err := teacher.Get(c.UserContext(), s.env.DB, id)
	if err != nil {
		return err
	}

	in := Input{
		FirstName:   t.FirstName,
		LastName:    t.LastName,
		Gender:      t.Gender,
		DateOfBirth: time.Time(t.DateOfBirth).Format(time.DateOnly),
		Salary:      t.Salary,
		Subject:     t.SubjectID,
	}
	if err := s.env.Parse(c, &in); err != nil {
		return err
	}

	if err := in.apply(t); err != nil {
		return err
	}

	photo, err := handler.Attachment(c, s.env.TeacherPhotos, PhotoField)
	if err != nil {
		return err
	}

	if err := teacher.Update(c.UserContext(), s.env.DB, s.env.TeacherPhotos, t, photo, handler.Actor(c)); err != nil {
		return err
	}

	return c.JSON(handler.NewTeacherView(t, s.env.TeacherPhotos))
}

// Delete removes a teacher and its photo.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	if err := teacher.Delete(c.UserContext(), s.env.DB, s.env.TeacherPhotos, id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

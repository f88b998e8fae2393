package handler

import (
	"time"

	"github.com/catalog-admin/catalog-admin/internal/attachment"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
)

// ProductView is the api representation of a product.
type ProductView struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Category    uint    `json:"category"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
}

// NewProductView renders p with the public url of its image.
func NewProductView(p *models.Product, images *attachment.Store) ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.CategoryID,
		Price:       p.Price,
		Stock:       p.Stock,
		Description: p.Description,
		Image:       url(images, p.Image),
	}
}

// TeacherView is the api representation of a teacher.
type TeacherView struct {
	ID          uint      `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Gender      string    `json:"gender"`
	DateOfBirth string    `json:"dateOfBirth"`
	Salary      float64   `json:"salary"`
	Photo       *string   `json:"photo"`
	Subject     uint      `json:"subject"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   *uint64   `json:"createdBy"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UpdatedBy   *uint64   `json:"updatedBy"`
}

// NewTeacherView renders t with the public url of its photo.
func NewTeacherView(t *models.Teacher, photos *attachment.Store) TeacherView {
	return TeacherView{
		ID:          t.ID,
		FirstName:   t.FirstName,
		LastName:    t.LastName,
		Gender:      t.Gender,
		DateOfBirth: time.Time(t.DateOfBirth).Format(time.DateOnly),
		Salary:      t.Salary,
		Photo:       url(photos, t.Photo),
		Subject:     t.SubjectID,
		CreatedAt:   t.CreatedAt,
		CreatedBy:   t.CreatedByID,
		UpdatedAt:   t.UpdatedAt,
		UpdatedBy:   t.UpdatedByID,
	}
}

// url is nil for no attachment, rendered as json null.
func url(store *attachment.Store, ref string) *string {
	if ref == "" {
		return nil
	}

	u := store.URL(ref)

	return &u
}

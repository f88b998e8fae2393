// Package product provides CRUD operations for products. The image column is
// kept in step with the blob store through an attachment.Store: a replaced
// or cleared image is deleted only after the row update committed.
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/catalog-admin/catalog-admin/internal/attachment"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
)

var (
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound is returned when the product references an unknown category.
	ErrCategoryNotFound = errors.New("product category not found")
	// ErrProductNameEmpty is returned for products without a name.
	ErrProductNameEmpty = errors.New("product name cannot be empty")
	// ErrNegativePrice is returned for a price below zero.
	ErrNegativePrice = errors.New("product price cannot be negative")
	// ErrNegativeStock is returned for a stock below zero.
	ErrNegativeStock = errors.New("product stock cannot be negative")
)

var columns = []string{"name", "category_id", "price", "stock", "description", "image"}

func validate(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)

	switch {
	case p.Name == "":
		return ErrProductNameEmpty
	case p.Price < 0:
		return ErrNegativePrice
	case p.Stock < 0:
		return ErrNegativeStock
	}

	return nil
}

func categoryExists(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}

	if n == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// Get retrieves a product by its ID.
func Get(ctx context.Context, db *gorm.DB, id uint) (*models.Product, error) {
	var p models.Product

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.First(&p, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}

	if err != nil {
		return nil, err
	}

	return &p, nil
}

// List returns one page of products ordered by id, restricted to
// categoryID unless it is zero.
func List(ctx context.Context, db *gorm.DB, p paging.Params, categoryID uint) (paging.Page[models.Product], error) {
	var page paging.Page[models.Product]

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if categoryID != 0 {
			tx = tx.Where("category_id = ?", categoryID)
		}

		var err error
		page, err = paging.Find[models.Product](tx, p)

		return err
	})

	return page, err
}

// Create inserts p with the image selected by img. An uploaded image is
// removed again when the insert fails.
func Create(ctx context.Context, db *gorm.DB, images *attachment.Store, p *models.Product, img attachment.Update) error {
	pending := images.Set(0, "", img)

	err := validate(p)
	if err == nil {
		p.ID = 0
		p.Image = pending.Current()
		err = tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
			if err := categoryExists(tx, p.CategoryID); err != nil {
				return err
			}

			return tx.Omit(clause.Associations).Create(p).Error
		})
	}

	if err != nil {
		images.Discard(ctx, pending)

		return err
	}

	return nil
}

// Update writes every field of p to the product p.ID and applies img to its
// image. The previous image is deleted once the update has committed; on
// failure only a newly uploaded image is removed.
func Update(ctx context.Context, db *gorm.DB, images *attachment.Store, p *models.Product, img attachment.Update) error {
	// stands in until the current image is known
	pending := images.Set(p.ID, "", img)

	err := validate(p)
	if err == nil {
		err = tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
			var current models.Product
			if err := tx.Select("id", "image").First(&current, p.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}

				return err
			}

			if err := categoryExists(tx, p.CategoryID); err != nil {
				return err
			}

			pending = images.Set(p.ID, current.Image, img)
			p.Image = pending.Current()

			return tx.Model(&models.Product{ID: p.ID}).Select(columns).Omit(clause.Associations).Updates(p).Error
		})
	}

	if err != nil {
		images.Discard(ctx, pending)

		return err
	}

	images.CommitReplace(ctx, pending)

	return nil
}

// Delete removes the product, then its image.
func Delete(ctx context.Context, db *gorm.DB, images *attachment.Store, id uint) error {
	var p models.Product

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Select("id", "image").First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}

			return err
		}

		if err := tx.Delete(&models.Product{}, id).Error; err != nil {
			return fmt.Errorf("delete product %d: %w", id, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	images.DeleteOwner(ctx, p.ID, p.Image)

	return nil
}

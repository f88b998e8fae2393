// Package category provides CRUD operations for product categories.
package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/attachment"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
)

var (
	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryNameEmpty is returned when a category is created or renamed to an empty name.
	ErrCategoryNameEmpty = errors.New("category name cannot be empty")
)

// Get retrieves a category by its ID.
func Get(ctx context.Context, db *gorm.DB, id uint) (*models.Category, error) {
	var c models.Category

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.First(&c, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}

	if err != nil {
		return nil, err
	}

	return &c, nil
}

// List returns one page of categories ordered by id.
func List(ctx context.Context, db *gorm.DB, p paging.Params) (paging.Page[models.Category], error) {
	var page paging.Page[models.Category]

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		var err error
		page, err = paging.Find[models.Category](tx, p)

		return err
	})

	return page, err
}

// Create inserts c and sets its ID.
func Create(ctx context.Context, db *gorm.DB, c *models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrCategoryNameEmpty
	}

	return tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Create(c).Error
	})
}

// Update renames the category c.ID to c.Name.
func Update(ctx context.Context, db *gorm.DB, c *models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrCategoryNameEmpty
	}

	return tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Category{}, c.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}

			return err
		}

		return tx.Model(&models.Category{ID: c.ID}).Update("name", c.Name).Error
	})
}

// Delete removes the category and its products. Once the transaction has
// committed, the image of every removed product is deleted from images.
func Delete(ctx context.Context, db *gorm.DB, images *attachment.Store, id uint) error {
	var products []models.Product

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Category{}, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}

			return err
		}

		if err := tx.Select("id", "image").Where("category_id = ?", id).Find(&products).Error; err != nil {
			return fmt.Errorf("load products: %w", err)
		}

		if err := tx.Where("category_id = ?", id).Delete(&models.Product{}).Error; err != nil {
			return fmt.Errorf("delete products: %w", err)
		}

		return tx.Delete(&models.Category{}, id).Error
	})
	if err != nil {
		return err
	}

	for _, p := range products {
		images.DeleteOwner(ctx, p.ID, p.Image)
	}

	return nil
}

// Products returns the products of the categories ids keyed by category id.
func Products(ctx context.Context, db *gorm.DB, ids ...uint) (map[uint][]models.Product, error) {
	out := make(map[uint][]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []models.Product

	err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Where("category_id IN ?", ids).Order("id").Find(&products).Error
	})
	if err != nil {
		return nil, err
	}

	for _, p := range products {
		out[p.CategoryID] = append(out[p.CategoryID], p)
	}

	return out, nil
}

package product_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/attachment"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/product"
	"github.com/catalog-admin/catalog-admin/internal/db/dbtest"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/storage"
)

type env struct {
	ctx      context.Context
	db       *gorm.DB
	blobs    *storage.FileStore
	images   *attachment.Store
	category models.Category
}

func setup(t *testing.T) *env {
	t.Helper()

	e := &env{ctx: context.Background(), db: dbtest.Open(t)}
	e.blobs = storage.NewFileStoreFs(afero.NewMemMapFs(), "/media")
	e.images = attachment.New("product_image", attachment.PrefixProductImages, e.blobs)
	e.category = models.Category{Name: "Books"}
	require.NoError(t, e.db.Create(&e.category).Error)

	return e
}

func (e *env) upload(t *testing.T, name string) string {
	t.Helper()

	ref, err := e.images.Upload(e.ctx, strings.NewReader("img"), name)
	require.NoError(t, err)

	return ref
}

func (e *env) exists(t *testing.T, ref string) bool {
	t.Helper()

	ok, err := e.blobs.Exists(e.ctx, ref)
	require.NoError(t, err)

	return ok
}

func (e *env) newProduct(t *testing.T, img attachment.Update) *models.Product {
	t.Helper()

	p := &models.Product{Name: "Dune", CategoryID: e.category.ID, Price: 12.5, Stock: 3}
	require.NoError(t, product.Create(e.ctx, e.db, e.images, p, img))

	return p
}

func TestCreate(t *testing.T) {
	e := setup(t)

	ref := e.upload(t, "dune.png")
	p := e.newProduct(t, attachment.Replace(ref))
	assert.NotZero(t, p.ID)

	got, err := product.Get(e.ctx, e.db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, ref, got.Image)
	assert.InDelta(t, 12.5, got.Price, 0.001)
	assert.True(t, e.exists(t, ref))

	plain := e.newProduct(t, attachment.Keep())
	assert.Empty(t, plain.Image)
}

func TestCreateFailureDiscardsUpload(t *testing.T) {
	testCases := []struct {
		name          string
		product       models.Product
		expectedError error
	}{
		{name: "unknown category", product: models.Product{Name: "x", CategoryID: 999}, expectedError: product.ErrCategoryNotFound},
		{name: "empty name", product: models.Product{Name: " "}, expectedError: product.ErrProductNameEmpty},
		{name: "negative price", product: models.Product{Name: "x", Price: -1}, expectedError: product.ErrNegativePrice},
		{name: "negative stock", product: models.Product{Name: "x", Stock: -1}, expectedError: product.ErrNegativeStock},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := setup(t)
			ref := e.upload(t, "x.png")

			p := tc.product
			if p.CategoryID == 0 {
				p.CategoryID = e.category.ID
			}

			err := product.Create(e.ctx, e.db, e.images, &p, attachment.Replace(ref))
			require.ErrorIs(t, err, tc.expectedError)
			assert.False(t, e.exists(t, ref))
		})
	}
}

func TestUpdateImage(t *testing.T) {
	e := setup(t)

	first := e.upload(t, "a.png")
	p := e.newProduct(t, attachment.Replace(first))

	// keep
	p.Name = "Dune Messiah"
	require.NoError(t, product.Update(e.ctx, e.db, e.images, p, attachment.Keep()))
	got, err := product.Get(e.ctx, e.db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Name)
	assert.Equal(t, first, got.Image)
	assert.True(t, e.exists(t, first))

	// replace
	second := e.upload(t, "b.png")
	require.NoError(t, product.Update(e.ctx, e.db, e.images, got, attachment.Replace(second)))
	got, err = product.Get(e.ctx, e.db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got.Image)
	assert.False(t, e.exists(t, first), "replaced image deleted")
	assert.True(t, e.exists(t, second))

	// clear
	require.NoError(t, product.Update(e.ctx, e.db, e.images, got, attachment.Clear()))
	got, err = product.Get(e.ctx, e.db, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Image)
	assert.False(t, e.exists(t, second), "cleared image deleted")
}

func TestUpdateZeroValues(t *testing.T) {
	e := setup(t)

	desc := "sand"
	p := &models.Product{Name: "Dune", CategoryID: e.category.ID, Price: 5, Stock: 2, Description: &desc}
	require.NoError(t, product.Create(e.ctx, e.db, e.images, p, attachment.Keep()))

	p.Stock = 0
	p.Price = 0
	p.Description = nil
	require.NoError(t, product.Update(e.ctx, e.db, e.images, p, attachment.Keep()))

	got, err := product.Get(e.ctx, e.db, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Stock)
	assert.Zero(t, got.Price)
	assert.Nil(t, got.Description)
}

func TestFailedUpdateKeepsOldImage(t *testing.T) {
	e := setup(t)

	old := e.upload(t, "old.png")
	p := e.newProduct(t, attachment.Replace(old))

	fresh := e.upload(t, "new.png")
	p.CategoryID = 999
	err := product.Update(e.ctx, e.db, e.images, p, attachment.Replace(fresh))
	require.ErrorIs(t, err, product.ErrCategoryNotFound)

	got, err := product.Get(e.ctx, e.db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, old, got.Image)
	assert.Equal(t, e.category.ID, got.CategoryID)
	assert.True(t, e.exists(t, old), "old image kept")
	assert.False(t, e.exists(t, fresh), "upload discarded")

	// unknown product
	fresh = e.upload(t, "new.png")
	err = product.Update(e.ctx, e.db, e.images, &models.Product{ID: 999, Name: "x", CategoryID: e.category.ID}, attachment.Replace(fresh))
	require.ErrorIs(t, err, product.ErrProductNotFound)
	assert.False(t, e.exists(t, fresh))
}

func TestDelete(t *testing.T) {
	e := setup(t)

	ref := e.upload(t, "a.png")
	p := e.newProduct(t, attachment.Replace(ref))

	require.NoError(t, product.Delete(e.ctx, e.db, e.images, p.ID))
	assert.False(t, e.exists(t, ref))

	_, err := product.Get(e.ctx, e.db, p.ID)
	require.ErrorIs(t, err, product.ErrProductNotFound)
	require.ErrorIs(t, product.Delete(e.ctx, e.db, e.images, p.ID), product.ErrProductNotFound)
}

// brokenDeletes fails every blob deletion.
type brokenDeletes struct {
	*storage.FileStore
}

func (brokenDeletes) Delete(context.Context, string) error {
	return errors.New("storage offline")
}

func TestDeleteSurvivesStorageFailure(t *testing.T) {
	e := setup(t)
	e.images = attachment.New("product_image", attachment.PrefixProductImages, brokenDeletes{e.blobs})

	ref := e.upload(t, "a.png")
	p := e.newProduct(t, attachment.Replace(ref))

	require.NoError(t, product.Delete(e.ctx, e.db, e.images, p.ID))
	assert.True(t, e.exists(t, ref), "orphan left behind")

	_, err := product.Get(e.ctx, e.db, p.ID)
	require.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestListByCategory(t *testing.T) {
	e := setup(t)

	games := models.Category{Name: "Games"}
	require.NoError(t, e.db.Create(&games).Error)

	e.newProduct(t, attachment.Keep())
	e.newProduct(t, attachment.Keep())
	require.NoError(t, product.Create(e.ctx, e.db, e.images,
		&models.Product{Name: "Go", CategoryID: games.ID}, attachment.Keep()))

	page, err := product.List(e.ctx, e.db, paging.New(1, 25), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalItems)

	page, err = product.List(e.ctx, e.db, paging.New(1, 25), games.ID)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Go", page.Items[0].Name)
}

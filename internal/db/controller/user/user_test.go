package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/user"
	"github.com/catalog-admin/catalog-admin/internal/db/dbtest"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
)

func TestCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	u := &models.User{Username: "alice", Email: "alice@example.com", Active: true}
	require.NoError(t, user.Create(ctx, db, u, "s3cret"))
	assert.NotZero(t, u.ID)
	assert.True(t, u.VerifyPassword("s3cret"))

	testCases := []struct {
		name          string
		user          models.User
		password      string
		expectedError error
	}{
		{name: "empty username", user: models.User{Email: "x@example.com"}, password: "p", expectedError: user.ErrUsernameEmpty},
		{name: "empty password", user: models.User{Username: "x", Email: "x@example.com"}, expectedError: user.ErrPasswordEmpty},
		{name: "taken username", user: models.User{Username: "alice", Email: "x@example.com"}, password: "p", expectedError: auth.ErrUsernameExists},
		{name: "taken email", user: models.User{Username: "x", Email: "alice@example.com"}, password: "p", expectedError: auth.ErrEmailExists},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u := tc.user
			require.ErrorIs(t, user.Create(ctx, db, &u, tc.password), tc.expectedError)
		})
	}

	bob := &models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, user.Create(ctx, db, bob, "pw"))

	// profile only
	u.FirstName = "Alice"
	u.Active = false
	require.NoError(t, user.Update(ctx, db, u, ""))
	got, err := user.Get(ctx, db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)
	assert.False(t, got.Active)
	assert.True(t, got.VerifyPassword("s3cret"))

	// new password
	require.NoError(t, user.Update(ctx, db, got, "changed"))
	got, err = user.Get(ctx, db, u.ID)
	require.NoError(t, err)
	assert.True(t, got.VerifyPassword("changed"))

	got.Email = bob.Email
	require.ErrorIs(t, user.Update(ctx, db, got, ""), auth.ErrEmailExists)

	require.ErrorIs(t, user.Update(ctx, db, &models.User{ID: 999, Username: "ghost"}, ""), auth.ErrUserNotFound)
}

func TestListSearch(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	for _, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, user.Create(ctx, db, &models.User{Username: name, Email: name + "@example.com"}, "pw"))
	}

	page, err := user.List(ctx, db, paging.New(1, 25), "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalItems)

	inactive := &models.User{Username: "dave", Email: "dave@example.com", Active: false}
	require.NoError(t, user.Create(ctx, db, inactive, "pw"))
	got, err := user.Get(ctx, db, inactive.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	page, err = user.List(ctx, db, paging.New(1, 25), "car")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "carol", page.Items[0].Username)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	u := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, user.Create(ctx, db, u, "pw"))

	r := models.Role{Name: "editor"}
	require.NoError(t, db.Create(&r).Error)
	require.NoError(t, auth.NewService(db).AssignRole(ctx, u.ID, &r.ID))

	roles, err := user.Roles(ctx, db, u.ID, 999)
	require.NoError(t, err)
	require.Contains(t, roles, u.ID)
	assert.Equal(t, "editor", roles[u.ID].Name)
	assert.NotContains(t, roles, uint64(999))

	s := models.Subject{SubjectName: "Maths", CreatedByID: &u.ID, UpdatedByID: &u.ID}
	require.NoError(t, db.Create(&s).Error)

	require.NoError(t, user.Delete(ctx, db, u.ID))

	var n int64
	require.NoError(t, db.Model(&models.UserRole{}).Count(&n).Error)
	assert.Zero(t, n)

	var got models.Subject
	require.NoError(t, db.First(&got, s.ID).Error)
	assert.Nil(t, got.CreatedByID)
	assert.Nil(t, got.UpdatedByID)

	require.ErrorIs(t, user.Delete(ctx, db, u.ID), auth.ErrUserNotFound)
	_, err = user.Get(ctx, db, u.ID)
	require.ErrorIs(t, err, auth.ErrUserNotFound)
}

// Package handler holds what the api handlers share: their dependencies,
// request parsing and the multipart attachment convention.
package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/attachment"
	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/config"
)

const (
	// RootPath is the root path of a route group.
	RootPath = "/"

	// IDPath is the path of a single resource in a route group.
	IDPath = "/:id"
)

// ErrNilEnv is returned by Init when the router or a required dependency is missing.
var ErrNilEnv = errors.New("router, env, cfg or db is nil")

// Env carries the dependencies of the api handlers.
type Env struct {
	Cfg           *config.Config
	DB            *gorm.DB
	Auth          *auth.Service
	Accounts      *auth.LocalProvider
	Tokens        *auth.TokenManager
	ProductImages *attachment.Store
	TeacherPhotos *attachment.Store
	Validator     *validator.Validate
}

// Check reports ErrNilEnv unless router and env are usable.
func Check(router fiber.Router, env *Env) error {
	if router == nil || env == nil || env.Cfg == nil || env.DB == nil || env.Auth == nil || env.Tokens == nil ||
		env.Validator == nil {
		return ErrNilEnv
	}

	return nil
}

// Service is the interface for an api handler service.
type Service interface {
	Init(router fiber.Router, env *Env) error
}

package web

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/category"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/permission"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/product"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/role"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/subject"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/teacher"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/user"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
	"github.com/catalog-admin/catalog-admin/internal/storage"
)

// Problem is the json body of every error response.
type Problem struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

var statusOf = []struct { //nolint:gochecknoglobals
	status int
	errs   []error
}{
	{fiber.StatusNotFound, []error{
		category.ErrCategoryNotFound, product.ErrProductNotFound, subject.ErrSubjectNotFound,
		teacher.ErrTeacherNotFound, auth.ErrUserNotFound, auth.ErrRoleNotFound, auth.ErrPermissionNotFound,
		storage.ErrNotFound, paging.ErrPageNotFound,
	}},
	{fiber.StatusBadRequest, []error{
		category.ErrCategoryNameEmpty,
		product.ErrCategoryNotFound, product.ErrProductNameEmpty, product.ErrNegativePrice, product.ErrNegativeStock,
		subject.ErrSubjectNameEmpty,
		teacher.ErrSubjectNotFound, teacher.ErrNameEmpty, teacher.ErrInvalidGender, teacher.ErrNegativeSalary,
		teacher.ErrBirthInFuture,
		user.ErrUsernameEmpty, user.ErrPasswordEmpty, auth.ErrUsernameExists, auth.ErrEmailExists,
		auth.ErrInvalidOldPassword,
		role.ErrRoleNameEmpty, permission.ErrInvalidName,
		tenant.ErrInvalidSchema, storage.ErrInvalidRef,
	}},
	{fiber.StatusConflict, []error{
		auth.ErrDuplicateGrant, role.ErrRoleAlreadyExists, permission.ErrPermissionAlreadyExists,
		gorm.ErrDuplicatedKey, gorm.ErrForeignKeyViolated,
	}},
	{fiber.StatusForbidden, []error{role.ErrSystemRole}},
	{fiber.StatusUnauthorized, []error{
		auth.ErrInvalidToken, auth.ErrWrongTokenType, auth.ErrTokenRevoked, auth.ErrTenantMismatch,
		auth.ErrUserAccountDisabled,
	}},
}

// Status maps err to the http status of its response.
func Status(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest
	}

	for _, group := range statusOf {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status
			}
		}
	}

	return fiber.StatusInternalServerError
}

// ErrorHandler renders err as a Problem.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := Status(err)
	body := Problem{Detail: err.Error()}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		body.Detail = "invalid input"
		body.Errors = make(map[string]string, len(ve))

		for _, fe := range ve {
			msg := "failed on " + fe.Tag()
			if fe.Param() != "" {
				msg += "=" + fe.Param()
			}

			body.Errors[fe.Field()] = msg
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		body.Detail = fe.Message
	}

	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")

		body.Detail = "internal server error"
	}

	return c.Status(status).JSON(body)
}

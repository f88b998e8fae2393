package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/catalog-admin/catalog-admin/internal/attachment"
	"github.com/catalog-admin/catalog-admin/internal/auth"
	"github.com/catalog-admin/catalog-admin/internal/db/controller/paging"
)

// ErrNotFound is answered for malformed resource ids.
var ErrNotFound = fiber.NewError(fiber.StatusNotFound, "not found")

// ID parses the route parameter name as a positive id.
func ID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, ErrNotFound
	}

	return uint(id), nil
}

// UserID parses the route parameter name as a user id.
func UserID(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrNotFound
	}

	return id, nil
}

// Paging reads the page and pageSize query parameters.
func Paging(c *fiber.Ctx) paging.Params {
	return paging.New(c.QueryInt("page", 1), c.QueryInt("pageSize", paging.DefaultPageSize))
}

// Actor returns the authenticated user for audit columns, nil if anonymous.
func Actor(c *fiber.Ctx) *uint64 {
	if id, ok := auth.UserID(c); ok {
		return &id
	}

	return nil
}

// Parse decodes the request body (json, form or multipart) over dst and
// validates it. Fields missing from the body keep their value in dst.
func (e *Env) Parse(c *fiber.Ctx, dst any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	if err := e.Validator.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("validate %T: %w", dst, err)
		}

		return err
	}

	return nil
}

// Attachment maps the multipart field of the request to an attachment update:
// a file part is uploaded and replaces the attachment, an empty value clears
// it, and a request without the field keeps it. JSON bodies cannot carry
// files but clear the attachment with null or "".
func Attachment(c *fiber.Ctx, store *attachment.Store, field string) (attachment.Update, error) {
	if c.Is("json") {
		return jsonAttachment(c, field)
	}

	form, err := c.MultipartForm()
	if err != nil {
		// not multipart, the field cannot carry a file
		return attachment.Keep(), nil //nolint:nilerr
	}

	if files := form.File[field]; len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			return attachment.Keep(), fiber.NewError(fiber.StatusBadRequest, "unreadable "+field)
		}
		defer f.Close()

		ref, err := store.Upload(c.UserContext(), f, files[0].Filename)
		if err != nil {
			return attachment.Keep(), fmt.Errorf("upload %s: %w", field, err)
		}

		log.Debug().Str("field", field).Str("blob", ref).Msg("attachment uploaded")

		return attachment.Replace(ref), nil
	}

	if values, ok := form.Value[field]; ok && (len(values) == 0 || values[0] == "") {
		return attachment.Clear(), nil
	}

	return attachment.Keep(), nil
}

func jsonAttachment(c *fiber.Ctx, field string) (attachment.Update, error) {
	if len(c.Body()) == 0 {
		return attachment.Keep(), nil
	}

	var body map[string]json.RawMessage
	if err := c.App().Config().JSONDecoder(c.Body(), &body); err != nil {
		return attachment.Keep(), fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	raw, ok := body[field]
	if !ok {
		return attachment.Keep(), nil
	}

	switch strings.TrimSpace(string(raw)) {
	case "null", `""`:
		return attachment.Clear(), nil
	default:
		// a url or ref echoed back from a read
		return attachment.Keep(), nil
	}
}

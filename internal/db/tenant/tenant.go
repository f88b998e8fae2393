// Package tenant carries the tenant schema of a request in its context and
// applies it to database transactions. There is no connection level or
// process wide search path: every transaction sets its own.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"
)

// HeaderSchema is the request header naming the tenant schema.
const HeaderSchema = "X-Tenant-Schema"

// ErrInvalidSchema is returned for schema names that are not plain lower case identifiers.
var ErrInvalidSchema = errors.New("invalid tenant schema name")

var schemaPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

type ctxKey struct{}

// Validate checks a schema name. The empty name means the connection default.
func Validate(schema string) error {
	if schema == "" || schemaPattern.MatchString(schema) {
		return nil
	}

	return fmt.Errorf("%w: %q", ErrInvalidSchema, schema)
}

// WithSchema returns a copy of ctx carrying schema.
func WithSchema(ctx context.Context, schema string) (context.Context, error) {
	if err := Validate(schema); err != nil {
		return ctx, err
	}

	return context.WithValue(ctx, ctxKey{}, schema), nil
}

// Schema returns the schema carried by ctx, or "".
func Schema(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)

	return s
}

// SearchPathSQL is the statement scoping a postgres transaction to schema.
func SearchPathSQL(schema string) string {
	return `SET LOCAL search_path TO "` + schema + `"`
}

// Transaction runs fn in a transaction bound to ctx. On postgres the
// search_path is set to the schema of ctx for the lifetime of the transaction.
// Other dialects ignore the schema.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := apply(ctx, tx); err != nil {
			return err
		}

		return fn(tx)
	})
}

func apply(ctx context.Context, tx *gorm.DB) error {
	schema := Schema(ctx)
	if schema == "" || tx.Dialector.Name() != "postgres" {
		return nil
	}

	// checked again, the statement is not parameterizable
	if err := Validate(schema); err != nil {
		return err
	}

	if err := tx.Exec(SearchPathSQL(schema)).Error; err != nil {
		return fmt.Errorf("set search_path %s: %w", schema, err)
	}

	return nil
}

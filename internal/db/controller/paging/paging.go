// Package paging implements the page/pageSize list contract of the api.
package paging

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const (
	// DefaultPageSize is used when pageSize is missing or out of range.
	DefaultPageSize = 25
	// MaxPageSize is the largest accepted pageSize.
	MaxPageSize = 100
)

// ErrPageNotFound is returned for a page past the last one.
var ErrPageNotFound = errors.New("invalid page")

// Params selects one page of a list.
type Params struct {
	Page     int
	PageSize int
}

// New normalizes page and pageSize: pages start at 1, sizes outside
// 1..MaxPageSize fall back to DefaultPageSize.
func New(page, pageSize int) Params {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return Params{Page: page, PageSize: pageSize}
}

// Page is one page of T.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// Find loads the page p of query ordered by id. An empty result still has
// one page; asking for a page past the last one fails with ErrPageNotFound.
func Find[T any](query *gorm.DB, p Params) (Page[T], error) {
	p = New(p.Page, p.PageSize)
	out := Page[T]{Items: []T{}, PageSize: p.PageSize}

	if err := query.Session(&gorm.Session{}).Model(new(T)).Count(&out.TotalItems).Error; err != nil {
		return out, fmt.Errorf("count: %w", err)
	}

	out.TotalPages = int((out.TotalItems + int64(p.PageSize) - 1) / int64(p.PageSize))
	if out.TotalPages == 0 {
		out.TotalPages = 1
	}

	if p.Page > out.TotalPages {
		return out, fmt.Errorf("%w: page %d of %d", ErrPageNotFound, p.Page, out.TotalPages)
	}

	out.Page = p.Page

	if err := query.Session(&gorm.Session{}).Order("id").
		Limit(p.PageSize).Offset((out.Page - 1) * p.PageSize).
		Find(&out.Items).Error; err != nil {
		return out, fmt.Errorf("find: %w", err)
	}

	return out, nil
}

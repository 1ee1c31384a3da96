package repository

// Package repository contains the persistence abstractions for the template
// registry. Implementations live in subpackages (postgres) and hold no
// business logic.

import (
	"context"

	"elysium/internal/model"
)

// TemplateRepository is data access for registered sheet templates.
type TemplateRepository interface {
	// Create inserts a template record and returns the stored row.
	Create(ctx context.Context, tpl *model.SheetTemplate) (*model.SheetTemplate, error)

	// FindByID returns a template by its ID.
	FindByID(ctx context.Context, id string) (*model.SheetTemplate, error)

	// List returns a page of templates plus the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.SheetTemplate], error)

	// Delete removes a template by ID. Deleting a missing row is not an error.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}

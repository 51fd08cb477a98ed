package services

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// CategoryService exposes the shared category catalog. Creation is
// admin-only, enforced at the HTTP layer.
type CategoryService struct {
	store  core.CategoryStore
	logger *log.Logger
}

func NewCategoryService(store core.CategoryStore, logger *log.Logger) *CategoryService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &CategoryService{
		store:  store,
		logger: logger.WithComponent("category"),
	}
}

// List returns all categories sorted by name.
func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

// Create validates and stores a new category.
func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.logger.InfoContext(ctx, "Category created",
		log.FieldCategoryID, created.ID,
		log.FieldOperation, log.OpCreate)
	return created, nil
}

package service

import (
	"context"
	"errors"
	"strings"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type CategoryService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.Paginated[dto.CatalogEntryResponse], error)
	Create(ctx context.Context, req dto.CreateCatalogEntryDTO) (*dto.CatalogEntryResponse, error)
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(r repository.CategoryRepository) CategoryService {
	return &categoryService{repo: r}
}

func (s *categoryService) List(ctx context.Context, search string, page, pageSize int) (*dto.Paginated[dto.CatalogEntryResponse], error) {
	categories, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}
	resp := dto.NewPaginated(dto.MapSlice(categories, dto.CategoryFromModel), total, page, pageSize)
	return &resp, nil
}

func (s *categoryService) Create(ctx context.Context, req dto.CreateCatalogEntryDTO) (*dto.CatalogEntryResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}
	c := models.Category{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, &c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("slug", "a category with this slug already exists")
		}
		return nil, err
	}
	resp := dto.CategoryFromModel(c)
	return &resp, nil
}

// Delete removes the category; its titles remain with no category.
func (s *categoryService) Delete(ctx context.Context, slug string) error {
	return lookup("category", s.repo.Delete(ctx, slug))
}

package service

import (
	"context"
	"errors"
	"strings"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type GenreService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.Paginated[dto.CatalogEntryResponse], error)
	Create(ctx context.Context, req dto.CreateCatalogEntryDTO) (*dto.CatalogEntryResponse, error)
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	repo repository.GenreRepository
}

func NewGenreService(r repository.GenreRepository) GenreService {
	return &genreService{repo: r}
}

func (s *genreService) List(ctx context.Context, search string, page, pageSize int) (*dto.Paginated[dto.CatalogEntryResponse], error) {
	genres, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}
	resp := dto.NewPaginated(dto.MapSlice(genres, dto.GenreFromModel), total, page, pageSize)
	return &resp, nil
}

func (s *genreService) Create(ctx context.Context, req dto.CreateCatalogEntryDTO) (*dto.CatalogEntryResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}
	g := models.Genre{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, &g); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("slug", "a genre with this slug already exists")
		}
		return nil, err
	}
	resp := dto.GenreFromModel(g)
	return &resp, nil
}

func (s *genreService) Delete(ctx context.Context, slug string) error {
	return lookup("genre", s.repo.Delete(ctx, slug))
}

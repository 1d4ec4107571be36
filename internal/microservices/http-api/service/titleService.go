package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.Paginated[dto.TitleResponse], error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, req dto.CreateTitleDTO) (*dto.TitleResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateTitleDTO) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titles     repository.TitleRepository
	categories repository.CategoryRepository
	genres     repository.GenreRepository
}

func NewTitleService(titles repository.TitleRepository, categories repository.CategoryRepository, genres repository.GenreRepository) TitleService {
	return &titleService{titles: titles, categories: categories, genres: genres}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.Paginated[dto.TitleResponse], error) {
	titles, total, err := s.titles.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	resp := dto.NewPaginated(dto.MapSlice(titles, dto.TitleFromModel), total, page, pageSize)
	return &resp, nil
}

// Get returns the title with its rating computed from the current reviews.
func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	t, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, lookup("title", err)
	}
	resp := dto.TitleFromModel(*t)
	return &resp, nil
}

func (s *titleService) Create(ctx context.Context, req dto.CreateTitleDTO) (*dto.TitleResponse, error) {
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}

	categoryID, err := s.resolveCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	genreIDs, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}

	t := &models.Title{
		Name:        req.Name,
		Year:        *req.Year,
		Description: req.Description,
		CategoryID:  categoryID,
	}
	if err := s.titles.Create(ctx, t, genreIDs); err != nil {
		return nil, err
	}
	return s.Get(ctx, t.ID)
}

func (s *titleService) Update(ctx context.Context, id int64, req dto.UpdateTitleDTO) (*dto.TitleResponse, error) {
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}
	if exists, err := s.titles.Exists(ctx, id); err != nil {
		return nil, err
	} else if !exists {
		return nil, notFound("title")
	}

	changes := repository.TitleChanges{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
	}
	if req.Category.Set {
		changes.SetCategory = true
		if req.Category.Value != nil {
			categoryID, err := s.resolveCategory(ctx, *req.Category.Value)
			if err != nil {
				return nil, err
			}
			changes.CategoryID = categoryID
		}
	}

	var genreIDs []int64
	if req.Genre != nil {
		ids, err := s.resolveGenres(ctx, *req.Genre)
		if err != nil {
			return nil, err
		}
		// non-nil so the repository replaces the set, even with an empty one
		genreIDs = append([]int64{}, ids...)
	}

	if err := s.titles.Update(ctx, id, changes, genreIDs); err != nil {
		return nil, lookup("title", err)
	}
	return s.Get(ctx, id)
}

// Delete removes the title with its reviews and their comments.
func (s *titleService) Delete(ctx context.Context, id int64) error {
	return lookup("title", s.titles.Delete(ctx, id))
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*int64, error) {
	if slug == "" {
		return nil, nil
	}
	c, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fieldError("category", fmt.Sprintf("unknown category %q", slug))
		}
		return nil, err
	}
	return &c.ID, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]int64, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	genres, err := s.genres.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}

	found := make(map[string]int64, len(genres))
	for _, g := range genres {
		found[g.Slug] = g.ID
	}
	var missing []string
	ids := make([]int64, 0, len(genres))
	seen := make(map[int64]bool, len(genres))
	for _, slug := range slugs {
		id, ok := found[slug]
		if !ok {
			missing = append(missing, slug)
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fieldError("genre", "unknown genre: "+strings.Join(missing, ", "))
	}
	return ids, nil
}

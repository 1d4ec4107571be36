package service

import (
	"context"
	"errors"
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/policy"
	"yamdb/internal/microservices/http-api/repository"
)

type ReviewService interface {
	List(ctx context.Context, titleID int64, page, pageSize int) (*dto.Paginated[dto.ReviewResponse], error)
	Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	Create(ctx context.Context, actor *policy.Actor, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error)
	Update(ctx context.Context, actor *policy.Actor, titleID, reviewID int64, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, actor *policy.Actor, titleID, reviewID int64) error
}

type reviewService struct {
	reviews repository.ReviewRepository
	titles  repository.TitleRepository
}

func NewReviewService(reviews repository.ReviewRepository, titles repository.TitleRepository) ReviewService {
	return &reviewService{reviews: reviews, titles: titles}
}

func (s *reviewService) List(ctx context.Context, titleID int64, page, pageSize int) (*dto.Paginated[dto.ReviewResponse], error) {
	if err := requireTitle(ctx, s.titles, titleID); err != nil {
		return nil, err
	}
	reviews, total, err := s.reviews.ListByTitle(ctx, titleID, page, pageSize)
	if err != nil {
		return nil, err
	}
	resp := dto.NewPaginated(dto.MapSlice(reviews, dto.ReviewFromModel), total, page, pageSize)
	return &resp, nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	review, err := findReview(ctx, s.titles, s.reviews, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	resp := dto.ReviewFromModel(*review)
	return &resp, nil
}

// Create adds the actor's review of a title. Each author may review a title once.
func (s *reviewService) Create(ctx context.Context, actor *policy.Actor, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := requireTitle(ctx, s.titles, titleID); err != nil {
		return nil, err
	}
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}

	exists, err := s.reviews.ExistsByAuthorAndTitle(ctx, actor.ID, titleID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	review := &models.Review{
		AuthorID: actor.ID,
		TitleID:  titleID,
		Text:     req.Text,
		Score:    *req.Score,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}
	review.Author = models.User{ID: actor.ID, Username: actor.Username}

	resp := dto.ReviewFromModel(*review)
	return &resp, nil
}

func (s *reviewService) Update(ctx context.Context, actor *policy.Actor, titleID, reviewID int64, req dto.UpdateReviewDTO) (*dto.ReviewResponse, error) {
	review, err := findReview(ctx, s.titles, s.reviews, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, http.MethodPatch, review.AuthorID); err != nil {
		return nil, err
	}
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, lookup("review", err)
	}
	resp := dto.ReviewFromModel(*review)
	return &resp, nil
}

// Delete removes the review and its comments.
func (s *reviewService) Delete(ctx context.Context, actor *policy.Actor, titleID, reviewID int64) error {
	review, err := findReview(ctx, s.titles, s.reviews, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := authorize(actor, http.MethodDelete, review.AuthorID); err != nil {
		return err
	}
	return lookup("review", s.reviews.Delete(ctx, review.ID))
}

func requireTitle(ctx context.Context, titles repository.TitleRepository, titleID int64) error {
	exists, err := titles.Exists(ctx, titleID)
	if err != nil {
		return err
	}
	if !exists {
		return notFound("title")
	}
	return nil
}

// findReview resolves the title first, then the review within that title.
func findReview(ctx context.Context, titles repository.TitleRepository, reviews repository.ReviewRepository, titleID, reviewID int64) (*models.Review, error) {
	if err := requireTitle(ctx, titles, titleID); err != nil {
		return nil, err
	}
	review, err := reviews.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, lookup("review", err)
	}
	return review, nil
}

// authorize applies the object-level author/staff check for a write.
func authorize(actor *policy.Actor, method, authorID string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !policy.StaffOrAuthorOrReadOnly(actor, method, authorID) {
		return ErrForbidden
	}
	return nil
}

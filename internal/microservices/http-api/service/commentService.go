package service

import (
	"context"
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/policy"
	"yamdb/internal/microservices/http-api/repository"
)

type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.Paginated[dto.CommentResponse], error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error)
	Create(ctx context.Context, actor *policy.Actor, titleID, reviewID int64, req dto.CommentDTO) (*dto.CommentResponse, error)
	Update(ctx context.Context, actor *policy.Actor, titleID, reviewID, commentID int64, req dto.CommentDTO) (*dto.CommentResponse, error)
	Delete(ctx context.Context, actor *policy.Actor, titleID, reviewID, commentID int64) error
}

type commentService struct {
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
	titles   repository.TitleRepository
}

func NewCommentService(comments repository.CommentRepository, reviews repository.ReviewRepository, titles repository.TitleRepository) CommentService {
	return &commentService{comments: comments, reviews: reviews, titles: titles}
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.Paginated[dto.CommentResponse], error) {
	if _, err := findReview(ctx, s.titles, s.reviews, titleID, reviewID); err != nil {
		return nil, err
	}
	comments, total, err := s.comments.ListByReview(ctx, reviewID, page, pageSize)
	if err != nil {
		return nil, err
	}
	resp := dto.NewPaginated(dto.MapSlice(comments, dto.CommentFromModel), total, page, pageSize)
	return &resp, nil
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error) {
	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	resp := dto.CommentFromModel(*comment)
	return &resp, nil
}

func (s *commentService) Create(ctx context.Context, actor *policy.Actor, titleID, reviewID int64, req dto.CommentDTO) (*dto.CommentResponse, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if _, err := findReview(ctx, s.titles, s.reviews, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		AuthorID: actor.ID,
		ReviewID: reviewID,
		Text:     req.Text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = models.User{ID: actor.ID, Username: actor.Username}

	resp := dto.CommentFromModel(*comment)
	return &resp, nil
}

func (s *commentService) Update(ctx context.Context, actor *policy.Actor, titleID, reviewID, commentID int64, req dto.CommentDTO) (*dto.CommentResponse, error) {
	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, http.MethodPatch, comment.AuthorID); err != nil {
		return nil, err
	}
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}

	comment.Text = req.Text
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, lookup("comment", err)
	}
	resp := dto.CommentFromModel(*comment)
	return &resp, nil
}

func (s *commentService) Delete(ctx context.Context, actor *policy.Actor, titleID, reviewID, commentID int64) error {
	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := authorize(actor, http.MethodDelete, comment.AuthorID); err != nil {
		return err
	}
	return lookup("comment", s.comments.Delete(ctx, comment.ID))
}

// find resolves title, then review within the title, then comment within the review.
func (s *commentService) find(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if _, err := findReview(ctx, s.titles, s.reviews, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, reviewID, commentID)
	if err != nil {
		return nil, lookup("comment", err)
	}
	return comment, nil
}

package dto

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"yamdb/internal/microservices/http-api/models"
)

// CreateReviewDTO for POST /titles/{title_id}/reviews
type CreateReviewDTO struct {
	Text  string `json:"text"`
	Score *int   `json:"score"`
}

func (d CreateReviewDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Text, validation.Required),
		validation.Field(&d.Score, validation.NotNil.Error("score is required"), validation.By(scoreInRange)),
	)
}

func scoreInRange(value interface{}) error {
	score, _ := value.(*int)
	if score == nil {
		return nil
	}
	if *score < 1 || *score > 10 {
		return errors.New("score must be between 1 and 10")
	}
	return nil
}

// UpdateReviewDTO for PATCH; nil fields are left unchanged
type UpdateReviewDTO struct {
	Text  *string `json:"text,omitempty"`
	Score *int    `json:"score,omitempty"`
}

func (d UpdateReviewDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Text, validation.NilOrNotEmpty),
		validation.Field(&d.Score, validation.By(scoreInRange)),
	)
}

// ReviewResponse for returning review information
type ReviewResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

// ReviewFromModel converts a Review model to ReviewResponse DTO
func ReviewFromModel(r models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  r.Author.Username,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"yamdb/internal/microservices/http-api/models"
)

// CommentDTO for creating or updating a comment
type CommentDTO struct {
	Text string `json:"text"`
}

func (d CommentDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Text, validation.Required, validation.Length(1, 5000)),
	)
}

// CommentResponse for returning comment information
type CommentResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Review  int64     `json:"review"`
	PubDate time.Time `json:"pub_date"`
}

// CommentFromModel converts a Comment model to CommentResponse DTO
func CommentFromModel(c models.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Text:    c.Text,
		Author:  c.Author.Username,
		Review:  c.ReviewID,
		PubDate: c.PubDate,
	}
}

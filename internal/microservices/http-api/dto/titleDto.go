package dto

import (
	"encoding/json"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"yamdb/internal/microservices/http-api/models"
)

// CreateTitleDTO used for POST /titles. Genres and category are referenced by slug.
type CreateTitleDTO struct {
	Name        string   `json:"name"`
	Year        *int     `json:"year"`
	Description string   `json:"description"`
	Genre       []string `json:"genre"`
	Category    string   `json:"category"`
}

func (d CreateTitleDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.Length(1, 256)),
		validation.Field(&d.Year, validation.NotNil.Error("year is required"), validation.Max(time.Now().Year()).Error("year cannot be in the future")),
		validation.Field(&d.Genre, validation.Each(validation.Required, validation.Match(slugPattern))),
		validation.Field(&d.Category, validation.Match(slugPattern)),
	)
}

// OptionalSlug distinguishes an absent JSON field from an explicit null.
type OptionalSlug struct {
	Set   bool
	Value *string
}

func (o *OptionalSlug) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// UpdateTitleDTO used for PATCH /titles/{title_id} (partial updates allowed)
type UpdateTitleDTO struct {
	Name        *string      `json:"name,omitempty"`
	Year        *int         `json:"year,omitempty"`
	Description *string      `json:"description,omitempty"`
	Genre       *[]string    `json:"genre,omitempty"`
	Category    OptionalSlug `json:"category"`
}

func (d UpdateTitleDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.NilOrNotEmpty, validation.Length(1, 256)),
		validation.Field(&d.Year, validation.Max(time.Now().Year()).Error("year cannot be in the future")),
		validation.Field(&d.Genre, validation.By(func(value interface{}) error {
			if d.Genre == nil {
				return nil
			}
			return validation.Validate(*d.Genre, validation.Each(validation.Required, validation.Match(slugPattern)))
		})),
		validation.Field(&d.Category, validation.By(func(value interface{}) error {
			if d.Category.Value == nil {
				return nil
			}
			return validation.Validate(*d.Category.Value, validation.Required, validation.Match(slugPattern))
		})),
	)
}

// TitleResponse DTO for responses
type TitleResponse struct {
	ID          int64                  `json:"id"`
	Name        string                 `json:"name"`
	Year        int                    `json:"year"`
	Rating      *float64               `json:"rating"`
	Description string                 `json:"description"`
	Genre       []CatalogEntryResponse `json:"genre"`
	Category    *CatalogEntryResponse  `json:"category"`
}

func TitleFromModel(t models.Title) TitleResponse {
	genres := make([]CatalogEntryResponse, 0, len(t.Genres))
	for _, g := range t.Genres {
		genres = append(genres, GenreFromModel(g))
	}
	var category *CatalogEntryResponse
	if t.Category != nil {
		c := CategoryFromModel(*t.Category)
		category = &c
	}
	return TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       genres,
		Category:    category,
	}
}

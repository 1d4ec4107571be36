package dto

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"yamdb/internal/microservices/http-api/models"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// CreateCatalogEntryDTO for POST /categories and POST /genres
type CreateCatalogEntryDTO struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (d CreateCatalogEntryDTO) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.Length(1, 256)),
		validation.Field(&d.Slug,
			validation.Required,
			validation.Length(1, 50),
			validation.Match(slugPattern).Error("slug may contain only letters, digits, - and _"),
		),
	)
}

// CatalogEntryResponse is the {name, slug} shape shared by categories and genres.
type CatalogEntryResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func CategoryFromModel(c models.Category) CatalogEntryResponse {
	return CatalogEntryResponse{Name: c.Name, Slug: c.Slug}
}

func GenreFromModel(g models.Genre) CatalogEntryResponse {
	return CatalogEntryResponse{Name: g.Name, Slug: g.Slug}
}

package repository

import (
	"context"
	"fmt"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TitleFilter narrows title listings. Zero fields are ignored.
type TitleFilter struct {
	Genre    string // genre slug
	Category string // category slug
	Year     *int
	Name     string // case-insensitive substring
}

// TitleChanges carries the scalar columns of a partial title update.
type TitleChanges struct {
	Name        *string
	Year        *int
	Description *string
	// SetCategory distinguishes "leave as is" from "clear" when CategoryID is nil.
	SetCategory bool
	CategoryID  *int64
}

type TitleRepository interface {
	Create(ctx context.Context, t *models.Title, genreIDs []int64) error
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, f TitleFilter, page, pageSize int) ([]models.Title, int64, error)
	Update(ctx context.Context, id int64, changes TitleChanges, genreIDs []int64) error
	Delete(ctx context.Context, id int64) error
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

// withRating projects the mean review score. Titles without reviews get NULL.
func withRating(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Title{}).
		Select("titles.*, CAST(AVG(reviews.score) AS FLOAT) AS rating").
		Joins("LEFT JOIN reviews ON reviews.title_id = titles.id").
		Group("titles.id")
}

func (f TitleFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Genre != "" {
		db = db.Where("titles.id IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Table("title_genres").
			Select("title_genres.title_id").
			Joins("JOIN genres ON genres.id = title_genres.genre_id").
			Where("genres.slug = ?", f.Genre))
	}
	if f.Category != "" {
		db = db.Where("titles.category_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Table("categories").
			Select("categories.id").
			Where("categories.slug = ?", f.Category))
	}
	if f.Year != nil {
		db = db.Where("titles.year = ?", *f.Year)
	}
	if f.Name != "" {
		db = db.Where("LOWER(titles.name) LIKE ? ESCAPE '\\'", likePattern(f.Name))
	}
	return db
}

func (r *titleRepository) Create(ctx context.Context, t *models.Title, genreIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			return fmt.Errorf("create title: %w", translate(err))
		}
		return linkGenres(tx, t.ID, genreIDs)
	})
}

func linkGenres(tx *gorm.DB, titleID int64, genreIDs []int64) error {
	if len(genreIDs) == 0 {
		return nil
	}
	links := make([]models.TitleGenre, 0, len(genreIDs))
	for _, id := range genreIDs {
		links = append(links, models.TitleGenre{TitleID: titleID, GenreID: id})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
		return fmt.Errorf("link genres: %w", err)
	}
	return nil
}

// GetByID loads a title with its category, genres and current rating.
func (r *titleRepository) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	err := r.db.WithContext(ctx).
		Scopes(withRating).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name asc") }).
		Where("titles.id = ?", id).
		Take(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *titleRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *titleRepository) List(ctx context.Context, f TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	var list []models.Title
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Title{}).Scopes(f.scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Scopes(withRating, f.scope).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name asc") }).
		Order("titles.name asc, titles.id asc").
		Limit(pageSize).
		Offset(offset(page, pageSize)).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("get titles: %w", err)
	}

	return list, total, nil
}

// Update applies changes and, when genreIDs is non-nil, replaces the genre set.
func (r *titleRepository) Update(ctx context.Context, id int64, changes TitleChanges, genreIDs []int64) error {
	updates := map[string]interface{}{}
	if changes.Name != nil {
		updates["name"] = *changes.Name
	}
	if changes.Year != nil {
		updates["year"] = *changes.Year
	}
	if changes.Description != nil {
		updates["description"] = *changes.Description
	}
	if changes.SetCategory {
		updates["category_id"] = changes.CategoryID
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Title{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.Title{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fmt.Errorf("update title: %w", translate(err))
			}
		}

		if genreIDs != nil {
			if err := tx.Where("title_id = ?", id).Delete(&models.TitleGenre{}).Error; err != nil {
				return fmt.Errorf("unlink genres: %w", err)
			}
			return linkGenres(tx, id, genreIDs)
		}
		return nil
	})
}

// Delete removes the title with its genre links, reviews and their comments.
func (r *titleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews := tx.Model(&models.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviews).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.TitleGenre{}).Error; err != nil {
			return fmt.Errorf("unlink genres: %w", err)
		}
		result := tx.Delete(&models.Title{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete title: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Package ingestion bulk-loads the CSV fixture set (users, category, genre,
// titles, genre_title, review, comments) into the database.
package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"yamdb/internal/microservices/http-api/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 200

// Files in insertion order; later files reference rows of earlier ones.
var Files = []string{
	"users.csv",
	"category.csv",
	"genre.csv",
	"titles.csv",
	"genre_title.csv",
	"review.csv",
	"comments.csv",
}

// userNamespace derives stable user UUIDs from the integer ids in users.csv.
var userNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("yamdb/users"))

// UserID maps a fixture user id onto the UUID it is stored under.
func UserID(csvID string) string {
	return uuid.NewSHA1(userNamespace, []byte(strings.TrimSpace(csvID))).String()
}

type row map[string]string

// Report counts the rows read per file. Absent files are not listed.
type Report map[string]int

// Loader imports a fixture directory. Re-running it skips rows that already exist.
type Loader struct {
	db      *gorm.DB
	workers int
}

func NewLoader(db *gorm.DB, workers int) *Loader {
	return &Loader{db: db, workers: workers}
}

// Load parses every fixture file in dir concurrently, then inserts them in
// dependency order inside one transaction.
func (l *Loader) Load(ctx context.Context, dir string) (Report, error) {
	parsed, err := l.parseAll(ctx, dir)
	if err != nil {
		return nil, err
	}

	report := Report{}
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range Files {
			rows, ok := parsed[name]
			if !ok {
				continue
			}
			if err := insert(tx, name, rows); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			report[name] = len(rows)
			log.Info().Str("file", name).Int("rows", len(rows)).Msg("fixture loaded")
		}
		return resetSequences(tx)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (l *Loader) parseAll(ctx context.Context, dir string) (map[string][]row, error) {
	var mu sync.Mutex
	parsed := make(map[string][]row, len(Files))

	pool := NewWorkerPool(ctx, l.workers)
	pool.Start()
	for _, name := range Files {
		path := filepath.Join(dir, name)
		err := pool.Submit(func(ctx context.Context) error {
			rows, err := readCSV(path)
			if errors.Is(err, fs.ErrNotExist) {
				log.Warn().Str("file", path).Msg("fixture file missing, skipped")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			mu.Lock()
			parsed[name] = rows
			mu.Unlock()
			return nil
		})
		if err != nil {
			break
		}
	}
	if err := pool.Wait(); err != nil {
		return nil, err
	}
	return parsed, nil
}

func readCSV(path string) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	r.FieldsPerRecord = len(header)

	var rows []row
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rec := make(row, len(header))
		for i, col := range header {
			rec[col] = record[i]
		}
		rows = append(rows, rec)
	}
}

func insert(tx *gorm.DB, name string, rows []row) error {
	switch name {
	case "users.csv":
		return createAll(tx, rows, toUser)
	case "category.csv":
		return createAll(tx, rows, toCategory)
	case "genre.csv":
		return createAll(tx, rows, toGenre)
	case "titles.csv":
		return createAll(tx, rows, toTitle)
	case "genre_title.csv":
		return createAll(tx, rows, toTitleGenre)
	case "review.csv":
		return createAll(tx, rows, toReview)
	case "comments.csv":
		return createAll(tx, rows, toComment)
	}
	return fmt.Errorf("unknown fixture file %q", name)
}

func createAll[M any](tx *gorm.DB, rows []row, convert func(row) (M, error)) error {
	items := make([]M, 0, len(rows))
	for i, r := range rows {
		m, err := convert(r)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+2, err)
		}
		items = append(items, m)
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&items, batchSize).Error
}

func toUser(r row) (models.User, error) {
	role := models.Role(r["role"])
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return models.User{}, fmt.Errorf("unknown role %q", r["role"])
	}
	return models.User{
		ID:        UserID(r["id"]),
		Username:  r["username"],
		Email:     r["email"],
		Role:      role,
		Bio:       r["bio"],
		FirstName: r["first_name"],
		LastName:  r["last_name"],
	}, nil
}

func toCategory(r row) (models.Category, error) {
	id, err := parseID(r, "id")
	return models.Category{ID: id, Name: r["name"], Slug: r["slug"]}, err
}

func toGenre(r row) (models.Genre, error) {
	id, err := parseID(r, "id")
	return models.Genre{ID: id, Name: r["name"], Slug: r["slug"]}, err
}

func toTitle(r row) (models.Title, error) {
	id, err := parseID(r, "id")
	if err != nil {
		return models.Title{}, err
	}
	year, err := strconv.Atoi(strings.TrimSpace(r["year"]))
	if err != nil {
		return models.Title{}, fmt.Errorf("year: %w", err)
	}
	t := models.Title{ID: id, Name: r["name"], Year: year, Description: r["description"]}
	if strings.TrimSpace(r["category"]) != "" {
		categoryID, err := parseID(r, "category")
		if err != nil {
			return models.Title{}, err
		}
		t.CategoryID = &categoryID
	}
	return t, nil
}

func toTitleGenre(r row) (models.TitleGenre, error) {
	titleID, err := parseID(r, "title_id")
	if err != nil {
		return models.TitleGenre{}, err
	}
	genreID, err := parseID(r, "genre_id")
	return models.TitleGenre{TitleID: titleID, GenreID: genreID}, err
}

func toReview(r row) (models.Review, error) {
	id, err := parseID(r, "id")
	if err != nil {
		return models.Review{}, err
	}
	titleID, err := parseID(r, "title_id")
	if err != nil {
		return models.Review{}, err
	}
	score, err := strconv.Atoi(strings.TrimSpace(r["score"]))
	if err != nil || score < 1 || score > 10 {
		return models.Review{}, fmt.Errorf("score %q out of range 1..10", r["score"])
	}
	pubDate, err := parseTime(r["pub_date"])
	if err != nil {
		return models.Review{}, err
	}
	return models.Review{
		ID:       id,
		TitleID:  titleID,
		AuthorID: UserID(r["author"]),
		Text:     r["text"],
		Score:    score,
		PubDate:  pubDate,
	}, nil
}

func toComment(r row) (models.Comment, error) {
	id, err := parseID(r, "id")
	if err != nil {
		return models.Comment{}, err
	}
	reviewID, err := parseID(r, "review_id")
	if err != nil {
		return models.Comment{}, err
	}
	pubDate, err := parseTime(r["pub_date"])
	if err != nil {
		return models.Comment{}, err
	}
	return models.Comment{
		ID:       id,
		ReviewID: reviewID,
		AuthorID: UserID(r["author"]),
		Text:     r["text"],
		PubDate:  pubDate,
	}, nil
}

func parseID(r row, col string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(r[col]), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s: invalid id %q", col, r[col])
	}
	return v, nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999-07:00", "2006-01-02 15:04:05", "2006-01-02"}

// parseTime accepts the timestamp shapes found in the fixtures. Empty means now.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("pub_date: unrecognised timestamp %q", s)
}

// resetSequences moves PostgreSQL serial sequences past the imported ids.
func resetSequences(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range []string{"categories", "genres", "titles", "reviews", "comments"} {
		stmt := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
			table,
		)
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}
	return nil
}

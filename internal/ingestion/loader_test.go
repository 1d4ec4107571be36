package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtures = map[string]string{
	"users.csv": "id,username,email,role,bio,first_name,last_name\n" +
		"100,bingobongo,bingobongo@yamdb.fake,user,,,\n" +
		"101,capt_obvious,capt_obvious@yamdb.fake,admin,,Captain,Obvious\n",
	"category.csv": "id,name,slug\n1,Фильм,movie\n2,Книга,book\n",
	"genre.csv":    "id,name,slug\n1,Драма,drama\n2,Комедия,comedy\n",
	"titles.csv": "id,name,year,category\n" +
		"1,Побег из Шоушенка,1994,1\n" +
		"2,Крестный отец,1972,1\n",
	"genre_title.csv": "id,title_id,genre_id\n1,1,1\n2,2,1\n3,2,2\n",
	"review.csv": "id,title_id,text,author,score,pub_date\n" +
		"1,1,\"Great, truly\",100,10,2019-09-24T21:08:21.567Z\n" +
		"2,1,Fine,101,7,2019-09-25T10:00:00Z\n",
	"comments.csv": "id,review_id,text,author,pub_date\n1,1,Agreed,101,2019-09-26T10:00:00Z\n",
}

func writeFixtures(t *testing.T, skip ...string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range fixtures {
		if contains(skip, name) {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	dir := writeFixtures(t)

	report, err := NewLoader(db, 3).Load(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, Report{
		"users.csv": 2, "category.csv": 2, "genre.csv": 2, "titles.csv": 2,
		"genre_title.csv": 3, "review.csv": 2, "comments.csv": 1,
	}, report)

	title, err := repository.NewTitleRepository(db).GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, title.Rating)
	assert.InDelta(t, 8.5, *title.Rating, 1e-9)
	require.NotNil(t, title.Category)
	assert.Equal(t, "movie", title.Category.Slug)

	godfather, err := repository.NewTitleRepository(db).GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, godfather.Genres, 2)
	assert.Nil(t, godfather.Rating)

	admin, err := repository.NewUserRepository(db).FindByUsername(ctx, "capt_obvious")
	require.NoError(t, err)
	assert.Equal(t, UserID("101"), admin.ID)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	review, err := repository.NewReviewRepository(db).GetByID(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Great, truly", review.Text)
	assert.Equal(t, "bingobongo", review.Author.Username)
	assert.Equal(t, 2019, review.PubDate.Year())
}

func TestLoader_Rerun(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	dir := writeFixtures(t)
	loader := NewLoader(db, 2)

	_, err := loader.Load(ctx, dir)
	require.NoError(t, err)
	_, err = loader.Load(ctx, dir)
	require.NoError(t, err)

	var reviews int64
	require.NoError(t, db.Model(&models.Review{}).Count(&reviews).Error)
	assert.EqualValues(t, 2, reviews)
}

func TestLoader_MissingFileSkipped(t *testing.T) {
	db := testutil.NewDB(t)
	dir := writeFixtures(t, "comments.csv")

	report, err := NewLoader(db, 2).Load(context.Background(), dir)
	require.NoError(t, err)
	assert.NotContains(t, report, "comments.csv")
	assert.Equal(t, 2, report["review.csv"])
}

func TestLoader_BadRowRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	dir := writeFixtures(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "review.csv"),
		[]byte("id,title_id,text,author,score,pub_date\n1,1,Bad,100,11,\n"), 0o600))

	_, err := NewLoader(db, 2).Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "review.csv")

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestWorkerPool_CollectsErrors(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 3)
	pool.Start()

	var ran atomic.Int32
	boom := errors.New("boom")
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, pool.Submit(func(ctx context.Context) error {
			ran.Add(1)
			if i == 4 {
				return boom
			}
			return nil
		}))
	}

	err := pool.Wait()
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 10, ran.Load())
}

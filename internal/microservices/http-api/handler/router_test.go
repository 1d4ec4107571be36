package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"yamdb/internal/config"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/middleware/auth"
	"yamdb/internal/notify"
	"yamdb/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type captureNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (n *captureNotifier) Send(ctx context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *captureNotifier) last(t *testing.T) notify.Message {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent)
	return n.sent[len(n.sent)-1]
}

type testAPI struct {
	router *gin.Engine
	users  repository.UserRepository
	tokens *auth.TokenManager
	mail   *captureNotifier
}

func newTestAPI(t *testing.T, opts ...func(*config.Config)) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	titles := repository.NewTitleRepository(db)
	categories := repository.NewCategoryRepository(db)
	genres := repository.NewGenreRepository(db)
	reviews := repository.NewReviewRepository(db)
	comments := repository.NewCommentRepository(db)

	tokens := auth.NewTokenManager(testSecret, time.Hour)
	mail := &captureNotifier{}

	cfg := &config.Config{
		CORSOrigins:   []string{"http://localhost:3000"},
		AuthRateLimit: 100,
		AuthRateBurst: 100,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	svc := Services{
		Auth:       service.NewAuthService(users, tokens, mail, service.AuthOptions{NotifierDriver: "test"}),
		Users:      service.NewUserService(users),
		Categories: service.NewCategoryService(categories),
		Genres:     service.NewGenreService(genres),
		Titles:     service.NewTitleService(titles, categories, genres),
		Reviews:    service.NewReviewService(reviews, titles),
		Comments:   service.NewCommentService(comments, reviews, titles),
	}

	return &testAPI{
		router: NewRouter(cfg, svc, Deps{DB: db}),
		users:  users,
		tokens: tokens,
		mail:   mail,
	}
}

// userToken stores a user with the given role and returns a bearer token for it.
func (a *testAPI) userToken(t *testing.T, username string, role models.Role) string {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, a.users.Create(context.Background(), u))
	token, err := a.tokens.Issue(u.ID, u.Username, string(u.Role))
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testAPI) createTitle(t *testing.T, adminToken, name string) int64 {
	t.Helper()
	w := a.do(http.MethodPost, "/api/v1/titles", gin.H{"name": name, "year": 2000}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(t, w)["id"].(float64))
}

func (a *testAPI) createReview(t *testing.T, token string, titleID int64, score int) int64 {
	t.Helper()
	w := a.do(http.MethodPost, fmt.Sprintf("/api/v1/titles/%d/reviews", titleID),
		gin.H{"text": "worth it", "score": score}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(t, w)["id"].(float64))
}

func TestSignup_RejectsReservedUsername(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/auth/signup", gin.H{"username": "me", "email": "me@x.com"}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "validation failed", body["error"])
	assert.Contains(t, body["details"], "username")
}

func TestSignupAndTokenExchange(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/auth/signup", gin.H{"username": "bob", "email": "bob@x.com"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{"username": "bob", "email": "bob@x.com"}, decode(t, w))

	msg := api.mail.last(t)
	assert.Equal(t, "bob@x.com", msg.To)
	assert.Equal(t, "Confirmation code", msg.Subject)
	code := msg.Body[strings.LastIndex(msg.Body, " ")+1:]

	w = api.do(http.MethodPost, "/api/v1/auth/token", gin.H{"username": "bob", "confirmation_code": "wrong"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, decode(t, w), "token")

	w = api.do(http.MethodPost, "/api/v1/auth/token", gin.H{"username": "ghost", "confirmation_code": code}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/v1/auth/token", gin.H{"username": "bob", "confirmation_code": code}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)

	w = api.do(http.MethodGet, "/api/v1/users/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user", decode(t, w)["role"])
}

func TestSignup_DuplicateEmail(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/auth/signup", gin.H{"username": "bob", "email": "bob@x.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodPost, "/api/v1/auth/signup", gin.H{"username": "bobby", "email": "bob@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["details"], "email")
}

func TestTitles_Access(t *testing.T) {
	api := newTestAPI(t)
	admin := api.userToken(t, "root", models.RoleAdmin)
	user := api.userToken(t, "bob", models.RoleUser)
	title := gin.H{"name": "Dune", "year": 1965}

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/titles", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/v1/titles", title, "").Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/v1/titles", title, user).Code)

	w := api.do(http.MethodPost, "/api/v1/titles", title, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Nil(t, body["rating"])
	assert.Nil(t, body["category"])

	w = api.do(http.MethodPut, fmt.Sprintf("/api/v1/titles/%d", int64(body["id"].(float64))), title, admin)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestTitles_RatingAndFilters(t *testing.T) {
	api := newTestAPI(t)
	admin := api.userToken(t, "root", models.RoleAdmin)
	alice := api.userToken(t, "alice", models.RoleUser)
	bob := api.userToken(t, "bob", models.RoleUser)

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/genres",
		gin.H{"name": "Drama", "slug": "drama"}, admin).Code)
	w := api.do(http.MethodPost, "/api/v1/titles",
		gin.H{"name": "Hamlet", "year": 1603, "genre": []string{"drama"}}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	hamlet := int64(decode(t, w)["id"].(float64))
	api.createTitle(t, admin, "Dune")

	api.createReview(t, alice, hamlet, 4)
	api.createReview(t, bob, hamlet, 9)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/titles/%d", hamlet), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 6.5, decode(t, w)["rating"], 1e-9)

	w = api.do(http.MethodGet, "/api/v1/titles?genre=drama", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.EqualValues(t, 1, page["total"])

	w = api.do(http.MethodGet, "/api/v1/titles?year=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviews_DuplicateIsConflict(t *testing.T) {
	api := newTestAPI(t)
	admin := api.userToken(t, "root", models.RoleAdmin)
	bob := api.userToken(t, "bob", models.RoleUser)
	titleID := api.createTitle(t, admin, "Dune")

	api.createReview(t, bob, titleID, 8)
	w := api.do(http.MethodPost, fmt.Sprintf("/api/v1/titles/%d/reviews", titleID),
		gin.H{"text": "again", "score": 3}, bob)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReviews_ObjectPermissions(t *testing.T) {
	api := newTestAPI(t)
	admin := api.userToken(t, "root", models.RoleAdmin)
	author := api.userToken(t, "bob", models.RoleUser)
	stranger := api.userToken(t, "eve", models.RoleUser)
	moderator := api.userToken(t, "mod", models.RoleModerator)
	titleID := api.createTitle(t, admin, "Dune")
	reviewID := api.createReview(t, author, titleID, 8)
	path := fmt.Sprintf("/api/v1/titles/%d/reviews/%d", titleID, reviewID)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPatch, path, gin.H{"text": "x"}, "").Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, path, gin.H{"text": "x"}, stranger).Code)

	w := api.do(http.MethodPatch, path, gin.H{"score": 2}, moderator)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.EqualValues(t, 2, body["score"])
	assert.Equal(t, "bob", body["author"])

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, nil, author).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, nil, "").Code)
}

func TestComments_ScopedToReviewPath(t *testing.T) {
	api := newTestAPI(t)
	admin := api.userToken(t, "root", models.RoleAdmin)
	bob := api.userToken(t, "bob", models.RoleUser)
	dune := api.createTitle(t, admin, "Dune")
	other := api.createTitle(t, admin, "Emma")
	reviewID := api.createReview(t, bob, dune, 7)

	w := api.do(http.MethodPost, fmt.Sprintf("/api/v1/titles/%d/reviews/%d/comments", dune, reviewID),
		gin.H{"text": "agreed"}, bob)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode(t, w)
	assert.EqualValues(t, reviewID, comment["review"])
	commentID := int64(comment["id"].(float64))

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/titles/%d/reviews/%d/comments/%d", dune, reviewID, commentID), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/titles/%d/reviews/%d/comments/%d", other, reviewID, commentID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/titles/%d/reviews/abc/comments", dune), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsersMe_RoleGuard(t *testing.T) {
	api := newTestAPI(t)
	bob := api.userToken(t, "bob", models.RoleUser)

	w := api.do(http.MethodPatch, "/api/v1/users/me", gin.H{"role": "admin", "bio": "hi"}, bob)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "bob", body["username"])
	assert.Equal(t, "user", body["role"])
	assert.Equal(t, "", body["bio"])

	stored, err := api.users.FindByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, stored.Role)
	assert.Empty(t, stored.Bio)

	w = api.do(http.MethodPatch, "/api/v1/users/me", gin.H{"bio": "hi"}, bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hi", decode(t, w)["bio"])
}

func TestUsersMe_Methods(t *testing.T) {
	api := newTestAPI(t)
	bob := api.userToken(t, "bob", models.RoleUser)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/v1/users/me", nil, "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, api.do(http.MethodPut, "/api/v1/users/me", gin.H{}, bob).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, api.do(http.MethodDelete, "/api/v1/users/me", nil, bob).Code)

	_, err := api.users.FindByUsername(context.Background(), "bob")
	assert.NoError(t, err)
}

func TestUsers_AdminOnly(t *testing.T) {
	api := newTestAPI(t)
	admin := api.userToken(t, "root", models.RoleAdmin)
	bob := api.userToken(t, "bob", models.RoleUser)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/users", nil, bob).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/users/root", nil, bob).Code)

	w := api.do(http.MethodPatch, "/api/v1/users/bob", gin.H{"role": "moderator"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "moderator", decode(t, w)["role"])

	w = api.do(http.MethodGet, "/api/v1/users?search=bo", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/v1/users/bob", nil, admin).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/users/bob", nil, admin).Code)
}

func TestCatalog_DeleteAndDuplicates(t *testing.T) {
	api := newTestAPI(t)
	admin := api.userToken(t, "root", models.RoleAdmin)
	entry := gin.H{"name": "Books", "slug": "books"}

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/v1/categories", entry, admin).Code)
	w := api.do(http.MethodPost, "/api/v1/categories", entry, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["details"], "slug")

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/v1/categories/books", nil, admin).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/v1/categories/books", nil, admin).Code)
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/healthz", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]any{"database": "ok"}, body["checks"])
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/v1/titles", nil, "not-a-jwt")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// tokenFromPeer posts to /auth/token from remoteAddr with a spoofable forwarding header.
func (a *testAPI) tokenFromPeer(remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w.Code
}

func TestAuthRateLimit_IgnoresUntrustedForwardedFor(t *testing.T) {
	api := newTestAPI(t, func(cfg *config.Config) {
		cfg.AuthRateLimit = 0.001
		cfg.AuthRateBurst = 1
	})

	var codes []int
	for i := 0; i < 5; i++ {
		codes = append(codes, api.tokenFromPeer("203.0.113.7:40000", fmt.Sprintf("198.51.100.%d", i+1)))
	}

	assert.Equal(t, http.StatusBadRequest, codes[0])
	for _, code := range codes[1:] {
		assert.Equal(t, http.StatusTooManyRequests, code)
	}
}

func TestAuthRateLimit_TrustedProxyForwardsClientIP(t *testing.T) {
	api := newTestAPI(t, func(cfg *config.Config) {
		cfg.AuthRateLimit = 0.001
		cfg.AuthRateBurst = 1
		cfg.TrustedProxies = []string{"203.0.113.7"}
	})

	assert.Equal(t, http.StatusBadRequest, api.tokenFromPeer("203.0.113.7:40000", "198.51.100.1"))
	assert.Equal(t, http.StatusBadRequest, api.tokenFromPeer("203.0.113.7:40000", "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, api.tokenFromPeer("203.0.113.7:40000", "198.51.100.1"))
}

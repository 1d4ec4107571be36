package policy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"yamdb/internal/microservices/http-api/models"
)

var (
	anon      *Actor
	user      = &Actor{ID: "u1", Username: "bob", Role: models.RoleUser}
	other     = &Actor{ID: "u2", Username: "eve", Role: models.RoleUser}
	moderator = &Actor{ID: "m1", Username: "mod", Role: models.RoleModerator}
	admin     = &Actor{ID: "a1", Username: "root", Role: models.RoleAdmin}
	superuser = &Actor{ID: "s1", Username: "su", Role: models.RoleUser, IsSuperuser: true}
)

func TestAdminOnly(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete} {
		assert.False(t, AdminOnly(anon, method), method)
		assert.False(t, AdminOnly(user, method), method)
		assert.False(t, AdminOnly(moderator, method), method)
		assert.True(t, AdminOnly(admin, method), method)
		assert.True(t, AdminOnly(superuser, method), method)
	}
}

func TestAdminOrReadOnly(t *testing.T) {
	assert.True(t, AdminOrReadOnly(anon, http.MethodGet))
	assert.True(t, AdminOrReadOnly(anon, http.MethodHead))
	assert.False(t, AdminOrReadOnly(anon, http.MethodPost))
	assert.False(t, AdminOrReadOnly(user, http.MethodPost))
	assert.False(t, AdminOrReadOnly(moderator, http.MethodDelete))
	assert.True(t, AdminOrReadOnly(admin, http.MethodPatch))
	assert.True(t, AdminOrReadOnly(superuser, http.MethodDelete))
}

func TestAuthenticatedOrReadOnly(t *testing.T) {
	assert.True(t, AuthenticatedOrReadOnly(anon, http.MethodGet))
	assert.False(t, AuthenticatedOrReadOnly(anon, http.MethodPost))
	assert.True(t, AuthenticatedOrReadOnly(user, http.MethodPost))
}

func TestStaffOrAuthorOrReadOnly(t *testing.T) {
	tests := []struct {
		name   string
		actor  *Actor
		method string
		want   bool
	}{
		{"anonymous read", anon, http.MethodGet, true},
		{"anonymous write", anon, http.MethodPatch, false},
		{"author write", user, http.MethodPatch, true},
		{"author delete", user, http.MethodDelete, true},
		{"stranger write", other, http.MethodPatch, false},
		{"stranger read", other, http.MethodGet, true},
		{"moderator write", moderator, http.MethodDelete, true},
		{"admin write", admin, http.MethodPatch, true},
		{"superuser write", superuser, http.MethodDelete, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StaffOrAuthorOrReadOnly(tt.actor, tt.method, user.ID))
		})
	}
}

func TestSelfProfile(t *testing.T) {
	assert.True(t, SelfProfile(user, http.MethodGet, user.ID))
	assert.True(t, SelfProfile(user, http.MethodPatch, user.ID))
	assert.False(t, SelfProfile(user, http.MethodPut, user.ID))
	assert.False(t, SelfProfile(user, http.MethodDelete, user.ID))
	assert.False(t, SelfProfile(other, http.MethodGet, user.ID))
	assert.False(t, SelfProfile(anon, http.MethodGet, user.ID))
}

func TestFromUser(t *testing.T) {
	assert.Nil(t, FromUser(nil))

	a := FromUser(&models.User{ID: "x", Username: "x", Role: models.RoleModerator})
	assert.True(t, a.IsStaff())
	assert.False(t, a.IsAdmin())
}

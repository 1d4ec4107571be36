// Package policy holds the access predicates for the API. Each predicate is an
// independent function of the acting identity, the HTTP method and, for
// object-level checks, the owner of the target resource. A nil actor is an
// anonymous caller.
package policy

import (
	"net/http"

	"yamdb/internal/microservices/http-api/models"
)

// Actor is the authenticated identity a request is evaluated for.
type Actor struct {
	ID          string
	Username    string
	Role        models.Role
	IsSuperuser bool
}

// FromUser builds an Actor from a stored user. A nil user yields a nil actor.
func FromUser(u *models.User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{ID: u.ID, Username: u.Username, Role: u.Role, IsSuperuser: u.IsSuperuser}
}

// Rule is a request-level predicate.
type Rule func(actor *Actor, method string) bool

// IsAdmin reports admin privilege: the admin role or the superuser override.
func (a *Actor) IsAdmin() bool {
	return a != nil && (a.Role == models.RoleAdmin || a.IsSuperuser)
}

// IsStaff reports moderator or admin privilege.
func (a *Actor) IsStaff() bool {
	return a.IsAdmin() || (a != nil && a.Role == models.RoleModerator)
}

// IsSafeMethod reports whether method only reads.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// AdminOnly gates identity management: every method needs admin privilege.
func AdminOnly(actor *Actor, method string) bool {
	return actor.IsAdmin()
}

// AdminOrReadOnly lets anyone read and only admins write.
func AdminOrReadOnly(actor *Actor, method string) bool {
	if IsSafeMethod(method) {
		return true
	}
	return actor.IsAdmin()
}

// AuthenticatedOrReadOnly lets anyone read and any authenticated actor write.
func AuthenticatedOrReadOnly(actor *Actor, method string) bool {
	if IsSafeMethod(method) {
		return true
	}
	return actor != nil
}

// StaffOrAuthorOrReadOnly is the object-level check for reviews and comments:
// writes are allowed to the author, moderators, admins and superusers.
func StaffOrAuthorOrReadOnly(actor *Actor, method, authorID string) bool {
	if IsSafeMethod(method) {
		return true
	}
	if actor == nil {
		return false
	}
	return actor.ID == authorID || actor.IsStaff()
}

// SelfProfile guards the caller's own profile: read or partial update only.
func SelfProfile(actor *Actor, method, ownerID string) bool {
	if actor == nil || actor.ID != ownerID {
		return false
	}
	return IsSafeMethod(method) || method == http.MethodPatch
}

// Authenticated admits any authenticated actor.
func Authenticated(actor *Actor, method string) bool {
	return actor != nil
}

package dto

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"yamdb/internal/microservices/http-api/models"
)

var roleValues = []interface{}{models.RoleUser, models.RoleModerator, models.RoleAdmin}

// CreateUserRequest is the admin payload for POST /users.
type CreateUserRequest struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role"`
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, usernameRules()...),
		validation.Field(&r.Email, emailRules()...),
		validation.Field(&r.FirstName, validation.Length(0, 150)),
		validation.Field(&r.LastName, validation.Length(0, 150)),
		validation.Field(&r.Role, validation.In(roleValues...).Error("unknown role")),
	)
}

func (r CreateUserRequest) ToModel() models.User {
	role := r.Role
	if role == "" {
		role = models.RoleUser
	}
	return models.User{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
		Role:      role,
	}
}

// UpdateUserRequest is a partial profile update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Username  *string      `json:"username,omitempty"`
	Email     *string      `json:"email,omitempty"`
	FirstName *string      `json:"first_name,omitempty"`
	LastName  *string      `json:"last_name,omitempty"`
	Bio       *string      `json:"bio,omitempty"`
	Role      *models.Role `json:"role,omitempty"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.When(r.Username != nil, usernameRules()...)),
		validation.Field(&r.Email, validation.When(r.Email != nil, emailRules()...)),
		validation.Field(&r.FirstName, validation.Length(0, 150)),
		validation.Field(&r.LastName, validation.Length(0, 150)),
		validation.Field(&r.Role, validation.When(r.Role != nil,
			validation.Required.Error("role must not be empty"),
			validation.In(roleValues...).Error("unknown role"),
		)),
	)
}

// ApplyTo copies the provided profile fields onto u. Role is handled by the caller.
func (r UpdateUserRequest) ApplyTo(u *models.User) {
	if r.Username != nil {
		u.Username = *r.Username
	}
	if r.Email != nil {
		u.Email = *r.Email
	}
	if r.FirstName != nil {
		u.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		u.LastName = *r.LastName
	}
	if r.Bio != nil {
		u.Bio = *r.Bio
	}
}

// UserResponse is the public profile representation.
type UserResponse struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role"`
}

func UserFromModel(u *models.User) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}

package dto

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Data Transfer Objects for authentication requests and responses

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// reservedUsername is the path segment of the self-profile route.
const reservedUsername = "me"

func usernameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("username is required"),
		validation.Length(1, 150),
		validation.Match(usernamePattern).Error("username may contain only letters, digits and @/./+/-/_"),
		validation.NotIn(reservedUsername).Error("username \"me\" is reserved"),
	}
}

func emailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("email is required"),
		validation.Length(1, 254),
		is.EmailFormat.Error("invalid email format"),
	}
}

// SignupRequest: payload for POST /auth/signup
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, usernameRules()...),
		validation.Field(&r.Email, emailRules()...),
	)
}

// SignupResponse echoes the registered identity.
type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest: payload for POST /auth/token
type TokenRequest struct {
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
}

func (r TokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("username is required")),
		validation.Field(&r.ConfirmationCode, validation.Required.Error("confirmation_code is required")),
	)
}

// TokenResponse carries the issued access token.
type TokenResponse struct {
	Token string `json:"token"`
}

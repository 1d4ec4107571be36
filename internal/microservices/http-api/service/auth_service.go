package service

import (
	"context"
	"errors"
	"fmt"

	"yamdb/internal/metrics"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/middleware/auth"
	"yamdb/internal/notify"

	"github.com/rs/zerolog/log"
)

const confirmationSubject = "Confirmation code"

// TokenIssuer is the part of auth.TokenManager the auth flow depends on.
type TokenIssuer interface {
	Issue(userID, username, role string) (string, error)
	Verify(tokenString string) (*auth.Claims, error)
}

type AuthService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error)
	ExchangeCode(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error)
	// Authenticate resolves a bearer token to the stored user it was issued for.
	Authenticate(ctx context.Context, token string) (*models.User, error)
	CreateSuperuser(ctx context.Context, username, email string) (code string, err error)
}

type AuthOptions struct {
	// SingleUseCodes clears the confirmation code after its first successful exchange.
	SingleUseCodes bool
	// NotifierDriver labels delivery metrics.
	NotifierDriver string
}

type authService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	notifier notify.Notifier
	opts     AuthOptions
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokens TokenIssuer,
	notifier notify.Notifier,
	opts AuthOptions,
) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		notifier: notifier,
		opts:     opts,
	}
}

// Signup registers a user with the default role and mails a confirmation code.
// Delivery failures are logged; the account is kept either way.
func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error) {
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}
	if err := checkIdentityFree(ctx, s.userRepo, req.Username, req.Email, ""); err != nil {
		return nil, err
	}

	code := auth.NewConfirmationCode()
	hash, err := auth.HashCode(code)
	if err != nil {
		return nil, fmt.Errorf("hash confirmation code: %w", err)
	}

	user := &models.User{
		Username:         req.Username,
		Email:            req.Email,
		Role:             models.RoleUser,
		ConfirmationCode: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race against a concurrent signup
			return nil, duplicateIdentity(ctx, s.userRepo, req.Username, req.Email)
		}
		return nil, err
	}
	metrics.SignupsTotal.Inc()

	s.sendCode(ctx, user, code)

	return &dto.SignupResponse{Username: user.Username, Email: user.Email}, nil
}

func (s *authService) sendCode(ctx context.Context, user *models.User, code string) {
	err := s.notifier.Send(ctx, notify.Message{
		To:      user.Email,
		Subject: confirmationSubject,
		Body:    fmt.Sprintf("Use this code to obtain your token: %s", code),
	})
	metrics.RecordNotification(s.opts.NotifierDriver, err)
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("failed to deliver confirmation code")
	}
}

// ExchangeCode trades a username and confirmation code for an access token.
// Unknown usernames and wrong codes get the same error.
func (s *authService) ExchangeCode(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordTokenExchange(false)
			return nil, ErrInvalidConfirmation
		}
		return nil, err
	}
	if !auth.VerifyCode(user.ConfirmationCode, req.ConfirmationCode) {
		metrics.RecordTokenExchange(false)
		return nil, ErrInvalidConfirmation
	}

	token, err := s.tokens.Issue(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}

	if s.opts.SingleUseCodes {
		if err := s.userRepo.SetConfirmationCode(ctx, user.ID, ""); err != nil {
			return nil, fmt.Errorf("revoke confirmation code: %w", err)
		}
	}
	metrics.RecordTokenExchange(true)

	return &dto.TokenResponse{Token: token}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// CreateSuperuser provisions an admin account and returns its confirmation code.
func (s *authService) CreateSuperuser(ctx context.Context, username, email string) (string, error) {
	if err := invalid(dto.SignupRequest{Username: username, Email: email}.Validate()); err != nil {
		return "", err
	}
	if err := checkIdentityFree(ctx, s.userRepo, username, email, ""); err != nil {
		return "", err
	}

	code := auth.NewConfirmationCode()
	hash, err := auth.HashCode(code)
	if err != nil {
		return "", fmt.Errorf("hash confirmation code: %w", err)
	}
	user := &models.User{
		Username:         username,
		Email:            email,
		Role:             models.RoleAdmin,
		IsSuperuser:      true,
		ConfirmationCode: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", duplicateIdentity(ctx, s.userRepo, username, email)
		}
		return "", err
	}
	return code, nil
}

// checkIdentityFree rejects a username or email already held by a user other than selfID.
func checkIdentityFree(ctx context.Context, users repository.UserRepository, username, email, selfID string) error {
	fields := map[string]string{}
	if username != "" {
		if u, err := users.FindByUsername(ctx, username); err == nil && u.ID != selfID {
			fields["username"] = "a user with that username already exists"
		} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	if email != "" {
		taken, err := users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken && !emailBelongsTo(ctx, users, email, selfID) {
			fields["email"] = "a user with that email already exists"
		}
	}
	if len(fields) == 0 {
		return nil
	}
	verr := &ValidationError{Fields: make(map[string]error, len(fields))}
	for field, msg := range fields {
		verr.Fields[field] = errors.New(msg)
	}
	return verr
}

func emailBelongsTo(ctx context.Context, users repository.UserRepository, email, selfID string) bool {
	if selfID == "" {
		return false
	}
	u, err := users.FindByID(ctx, selfID)
	return err == nil && u.Email == email
}

// duplicateIdentity attributes a unique-index violation to the offending field.
func duplicateIdentity(ctx context.Context, users repository.UserRepository, username, email string) error {
	if err := checkIdentityFree(ctx, users, username, email, ""); err != nil {
		return err
	}
	return fieldError("username", "a user with that username or email already exists")
}

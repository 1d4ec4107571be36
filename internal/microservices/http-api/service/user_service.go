package service

import (
	"context"
	"errors"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/policy"
	"yamdb/internal/microservices/http-api/repository"
)

type UserService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.Paginated[dto.UserResponse], error)
	Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	Get(ctx context.Context, username string) (*dto.UserResponse, error)
	Update(ctx context.Context, actor *policy.Actor, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, username string) error
	GetMe(ctx context.Context, actor *policy.Actor) (*dto.UserResponse, error)
	UpdateMe(ctx context.Context, actor *policy.Actor, req dto.UpdateUserRequest) (*dto.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) List(ctx context.Context, search string, page, pageSize int) (*dto.Paginated[dto.UserResponse], error) {
	users, total, err := s.userRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}
	data := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		data = append(data, dto.UserFromModel(&users[i]))
	}
	resp := dto.NewPaginated(data, total, page, pageSize)
	return &resp, nil
}

func (s *userService) Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}
	if err := checkIdentityFree(ctx, s.userRepo, req.Username, req.Email, ""); err != nil {
		return nil, err
	}

	user := req.ToModel()
	if err := s.userRepo.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateIdentity(ctx, s.userRepo, req.Username, req.Email)
		}
		return nil, err
	}
	resp := dto.UserFromModel(&user)
	return &resp, nil
}

func (s *userService) Get(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, lookup("user", err)
	}
	resp := dto.UserFromModel(user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, actor *policy.Actor, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, lookup("user", err)
	}
	return s.update(ctx, actor, user, req)
}

func (s *userService) Delete(ctx context.Context, username string) error {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return lookup("user", err)
	}
	return lookup("user", s.userRepo.Delete(ctx, user.ID))
}

func (s *userService) GetMe(ctx context.Context, actor *policy.Actor) (*dto.UserResponse, error) {
	user, err := s.self(ctx, actor)
	if err != nil {
		return nil, err
	}
	resp := dto.UserFromModel(user)
	return &resp, nil
}

func (s *userService) UpdateMe(ctx context.Context, actor *policy.Actor, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.self(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, actor, user, req)
}

func (s *userService) self(ctx context.Context, actor *policy.Actor) (*models.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// update applies a partial profile change. A role in the payload is honoured
// only for admins; anyone else gets their current profile back and nothing
// is written.
func (s *userService) update(ctx context.Context, actor *policy.Actor, user *models.User, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if req.Role != nil && !actor.IsAdmin() {
		return nil, &RoleChangeError{Profile: dto.UserFromModel(user)}
	}
	if err := invalid(req.Validate()); err != nil {
		return nil, err
	}

	var username, email string
	if req.Username != nil && *req.Username != user.Username {
		username = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		email = *req.Email
	}
	if err := checkIdentityFree(ctx, s.userRepo, username, email, user.ID); err != nil {
		return nil, err
	}

	req.ApplyTo(user)
	if req.Role != nil {
		user.Role = *req.Role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateIdentity(ctx, s.userRepo, username, email)
		}
		return nil, lookup("user", err)
	}
	resp := dto.UserFromModel(user)
	return &resp, nil
}

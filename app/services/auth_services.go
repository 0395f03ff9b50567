package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shashiranjanraj/apotek/app/models"
	"github.com/shashiranjanraj/apotek/app/repositories"
	"github.com/shashiranjanraj/apotek/pkg/auth"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// UserFinder is the part of UserRepository the login flow needs.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type AuthService struct {
	users UserFinder
}

func NewAuthService(users UserFinder) *AuthService {
	return &AuthService{users: users}
}

// Login checks the password and issues a bearer token carrying the role.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repositories.ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}

	if !auth.CheckPassword(user.Password, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, User: user}, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords so
// login failures never reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles registration, login and user administration.
type AuthService struct {
	store  core.UserStore
	tokens *auth.Manager
	logger *log.Logger
}

func NewAuthService(store core.UserStore, tokens *auth.Manager, logger *log.Logger) *AuthService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AuthService{
		store:  store,
		tokens: tokens,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

// RegisterInput is the payload for account creation. Role is optional and
// defaults to the regular user role.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
	Role     core.Role
}

// Register creates an account and returns the user plus a session token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (core.User, string, error) {
	if strings.TrimSpace(in.Password) == "" {
		return core.User{}, "", core.ErrEmptyPassword
	}
	if in.Role == "" {
		in.Role = core.RoleUser
	}

	u := core.User{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Name:     strings.TrimSpace(in.Name),
		Role:     in.Role,
	}
	if err := u.Validate(); err != nil {
		return core.User{}, "", err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, "", err
	}

	token, err := s.tokens.Issue(created.ID, created.Role)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered",
		log.FieldUserID, created.ID,
		log.FieldOperation, log.OpRegister)
	return created, token, nil
}

// Login verifies credentials and returns the user plus a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (core.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, "", ErrInvalidCredentials
		}
		return core.User{}, "", err
	}
	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return core.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "User logged in",
		log.FieldUserID, u.ID,
		log.FieldOperation, log.OpLogin)
	return u, token, nil
}

// UserByID fetches one user.
func (s *AuthService) UserByID(ctx context.Context, id string) (core.User, error) {
	return s.store.UserByID(ctx, id)
}

// ListUsers returns all users, for administration.
func (s *AuthService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.store.ListUsers(ctx)
}

// ChangeRole updates a user's role, for administration.
func (s *AuthService) ChangeRole(ctx context.Context, id string, role core.Role) (core.User, error) {
	if !role.IsValid() {
		return core.User{}, core.ErrInvalidRole
	}
	return s.store.UpdateUserRole(ctx, id, role)
}

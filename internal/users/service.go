package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (uuid.UUID, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (User, error)
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	RequireAdmin(ctx context.Context, userID uuid.UUID) error
	ListAdminLog(ctx context.Context) ([]AdminLogEntry, error)
}

// LoginResult carries the outcome of a successful login.
type LoginResult struct {
	UserID  uuid.UUID
	IsAdmin bool
	Token   string
}

// Service wraps account business rules.
type Service struct {
	repo   RepositoryPort
	tokens *TokenIssuer
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, tokens *TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Signup registers a new account and returns its id.
func (s *Service) Signup(ctx context.Context, username, email, password string) (uuid.UUID, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return uuid.Nil, ErrMissingFields
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, err
	}
	return s.repo.CreateUser(ctx, username, email, string(hash))
}

// Login validates username/password credentials and issues an access token.
// A missing user and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if username == "" || password == "" {
		return LoginResult{}, ErrMissingFields
	}
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{UserID: user.ID, IsAdmin: user.IsAdmin, Token: token}, nil
}

// Authenticate verifies an access token and loads the account it names.
// Any token defect, from a bad signature to an expired lifetime, surfaces
// as the same credentials rejection.
func (s *Service) Authenticate(ctx context.Context, token string) (User, error) {
	if strings.TrimSpace(token) == "" {
		return User{}, ErrInvalidCredentials
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	return s.repo.GetByID(ctx, uuid.MustParse(claims.UserID))
}

// UpdateUsername renames an account. Uniqueness is enforced by the database
// and surfaces as a duplicate-username rejection.
func (s *Service) UpdateUsername(ctx context.Context, userID uuid.UUID, newUsername string) error {
	newUsername = strings.TrimSpace(newUsername)
	if userID == uuid.Nil || newUsername == "" {
		return ErrMissingFields
	}
	return s.repo.UpdateUsername(ctx, userID, newUsername)
}

// UpdatePassword replaces an account password after verifying the old one.
func (s *Service) UpdatePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if userID == uuid.Nil || oldPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

// ViewAdminLog returns the merged admin activity log. Admin only.
func (s *Service) ViewAdminLog(ctx context.Context, actorID uuid.UUID) ([]AdminLogEntry, error) {
	if actorID == uuid.Nil {
		return nil, ErrMissingFields
	}
	if err := s.repo.RequireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListAdminLog(ctx)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"papertrail/internal/auth"
	"papertrail/internal/model"
	"papertrail/internal/repository"
)

var (
	ErrFieldsRequired     = errors.New("missing required fields")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthService covers registration, login, and bearer token verification.
type AuthService interface {
	// Register creates a new user and returns it with a fresh bearer token.
	// Returns ErrEmailTaken when the email already has an account.
	Register(ctx context.Context, in RegisterInput) (*model.User, string, error)

	// Login checks credentials and returns the user with a fresh token.
	// Unknown email and wrong password both return ErrInvalidCredentials so
	// the response does not reveal which field was wrong.
	Login(ctx context.Context, email, password string) (*model.User, string, error)

	// VerifyToken returns the user id a bearer token was issued for, or
	// auth.ErrInvalidToken.
	VerifyToken(token string) (string, error)
}

type authService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
}

func NewAuthService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager) AuthService {
	return &authService{users: users, hasher: hasher, tokens: tokens}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return nil, "", ErrFieldsRequired
	}

	_, err := s.users.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, "", ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:               uuid.New().String(),
		Email:            in.Email,
		PasswordHash:     hash,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		SubscriptionTier: "free",
		CreatedAt:        time.Now().UTC(),
	}
	stored, err := s.users.Create(ctx, user)
	if err != nil {
		// A concurrent registration can slip past the lookup and trip the
		// unique email constraint instead.
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(stored.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return stored, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

func (s *authService) VerifyToken(token string) (string, error) {
	return s.tokens.Verify(token)
}

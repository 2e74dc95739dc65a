package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer mints a session token for an authenticated user.
type TokenIssuer interface {
	Issue(username, name string) (string, error)
}

type Service struct {
	users  UserRepository
	tokens TokenIssuer
	logger zerolog.Logger
	cost   int
}

func NewService(users UserRepository, tokens TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger.With().Str("component", "identity").Logger(),
		cost:   bcrypt.DefaultCost,
	}
}

// Login checks the password and returns a token. Unknown users and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := s.users.GetByUsername(ctx, req.Username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.Username, u.Name)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, Name: u.Name}, nil
}

// EnsureUser creates the operator account when no user has username. An
// existing account is left as is, including its password.
func (s *Service) EnsureUser(ctx context.Context, username, password, name string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, fmt.Errorf("username and password are required")
	}

	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return false, err
	}
	s.logger.Info().Str("username", username).Msg("operator account created")
	return true, nil
}

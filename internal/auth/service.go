package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/streamchat-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when nickname/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when the nickname or email is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidNickname is returned when nickname doesn't meet constraints.
	ErrInvalidNickname = errors.New("invalid nickname")
	// ErrInvalidEmail is returned when email is not a valid address.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

var validate = validator.New()

// registration mirrors the constraints on new accounts.
type registration struct {
	Nickname string `validate:"min=3,max=32,excludesall=/@"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"min=6,max=72"`
}

// Service provides authentication operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// Register creates a new user with hashed password and returns it with a JWT token.
func (s *Service) Register(ctx context.Context, nickname, email, password string) (*store.User, string, error) {
	req := registration{
		Nickname: strings.TrimSpace(nickname),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: password,
	}
	if err := validateRegistration(req); err != nil {
		return nil, "", err
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.store.CreateUser(ctx, req.Nickname, req.Email, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Nickname)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

// Login validates credentials and returns a JWT token.
func (s *Service) Login(ctx context.Context, nickname, password string) (string, error) {
	user, err := s.store.GetUserByNickname(ctx, strings.TrimSpace(nickname))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Nickname)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// IssueToken returns a fresh token for an existing user, used after a nickname change.
func (s *Service) IssueToken(user *store.User) (string, error) {
	return GenerateToken(s.jwtConfig, user.ID, user.Nickname)
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

// validateRegistration maps the first failed constraint to a sentinel error.
func validateRegistration(req registration) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate registration: %w", err)
	}
	switch verrs[0].Field() {
	case "Nickname":
		return ErrInvalidNickname
	case "Email":
		return ErrInvalidEmail
	default:
		return ErrInvalidPassword
	}
}

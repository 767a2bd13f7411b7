package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/apperr"
	"github.com/eventhub/backend/internal/metrics"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/internal/sanitize"
)

// Column limits of the users table.
const (
	maxNameLen  = 100
	maxEmailLen = 120
)

var (
	ErrMissingFields      = apperr.Validation("Missing required fields")
	ErrMissingCredentials = apperr.Validation("Missing email or password")
	ErrInvalidRole        = apperr.Validation("Invalid role")
	ErrPasswordTooLong    = apperr.Validation("Password must be at most 72 bytes")
	ErrNameTooLong        = apperr.Validation("Name must be at most 100 characters")
	ErrEmailTooLong       = apperr.Validation("Email must be at most 120 characters")
	ErrInvalidValue       = apperr.Validation("Invalid field value")
	ErrEmailTaken         = apperr.Conflict("Email already registered")
	ErrInvalidCredentials = apperr.Unauthenticated("Invalid email or password")
	ErrUserNotFound       = apperr.NotFound("User not found")
)

// UserStore is the persistence the auth service needs.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// RegisterInput carries the fields of a registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Session is returned by register and login.
type Session struct {
	Message     string            `json:"message"`
	AccessToken string            `json:"access_token"`
	User        models.UserPublic `json:"user"`
}

// Service implements registration, login and profile lookup.
type Service struct {
	users     UserStore
	hasher    *Hasher
	jwt       *JWTService
	logger    *zap.Logger
	dummyHash string
}

// NewService creates an auth service.
func NewService(users UserStore, hasher *Hasher, jwt *JWTService, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Compared against when the email is unknown so both failure paths cost a bcrypt round.
	dummy, _ := hasher.Hash("not-a-real-password")
	return &Service{users: users, hasher: hasher, jwt: jwt, logger: logger, dummyHash: dummy}
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and issues a token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := sanitize.Text(in.Name)
	email := NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	switch {
	case len(in.Password) > MaxPasswordBytes:
		return nil, ErrPasswordTooLong
	case utf8.RuneCountInString(name) > maxNameLen:
		return nil, ErrNameTooLong
	case utf8.RuneCountInString(email) > maxEmailLen:
		return nil, ErrEmailTooLong
	}

	role := models.RoleStudent
	if in.Role != "" {
		role = models.Role(in.Role)
		if !role.Valid() {
			return nil, ErrInvalidRole
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicate):
			return nil, ErrEmailTaken
		case errors.Is(err, models.ErrInvalidValue):
			return nil, ErrInvalidValue
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))

	return s.session(u, "User registered successfully")
}

// Login verifies credentials and issues a token. Unknown email and wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		s.hasher.Check(password, s.dummyHash)
		metrics.AuthFailures.WithLabelValues("bad_credentials").Inc()
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Check(password, u.PasswordHash) {
		metrics.AuthFailures.WithLabelValues("bad_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	return s.session(u, "Login successful")
}

// Profile returns the caller's profile.
func (s *Service) Profile(ctx context.Context, userID int64) (*models.Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	p := u.ToProfile()
	return &p, nil
}

func (s *Service) session(u *models.User, msg string) (*Session, error) {
	token, err := s.jwt.Generate(u)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Message: msg, AccessToken: token, User: u.ToPublic()}, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dom/task-tracker/internal/auth"
	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	ErrEmailExists        = fmt.Errorf("%w: email already registered", domain.ErrConflict)
	ErrUserNotFound       = fmt.Errorf("user %w", domain.ErrNotFound)
)

// dummyPassword is hashed at construction and verified against whenever a
// login names an unknown email, so both failure paths do the same amount of
// work.
const dummyPassword = "timing-equalisation-placeholder"

type AuthService struct {
	userRepo         repository.UserRepository
	hasher           auth.PasswordHasher
	tokens           *auth.TokenService
	verifyUserExists bool
	now              func() time.Time

	dummyMu   sync.Mutex
	dummyHash string
}

func NewAuthService(userRepo repository.UserRepository, hasher auth.PasswordHasher, tokens *auth.TokenService, verifyUserExists bool) *AuthService {
	s := &AuthService{
		userRepo:         userRepo,
		hasher:           hasher,
		tokens:           tokens,
		verifyUserExists: verifyUserExists,
		now:              func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
	s.dummy()
	return s
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	User  *domain.User
	Token string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", domain.ErrValidation)
	}

	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    s.now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user.Public(), nil
}

// Login never tells an unknown email apart from a wrong password: both
// return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.burnVerify(input.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user.Public(), Token: token}, nil
}

func (s *AuthService) burnVerify(password string) {
	hash := s.dummy()
	if hash == "" {
		return
	}
	_, _ = s.hasher.Verify(password, hash)
}

// dummy returns the placeholder digest, computing it on first use and again
// after a failed attempt.
func (s *AuthService) dummy() string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash == "" {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			slog.Error("failed to hash timing placeholder", "error", err)
			return ""
		}
		s.dummyHash = hash
	}
	return s.dummyHash
}

// Authenticate resolves a bearer token to a user ID. When configured to,
// it also confirms the user still exists.
func (s *AuthService) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return uuid.Nil, err
	}

	if s.verifyUserExists {
		if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return uuid.Nil, fmt.Errorf("%w: unknown subject", domain.ErrUnauthorized)
			}
			return uuid.Nil, fmt.Errorf("check user: %w", err)
		}
	}

	return userID, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.Public(), nil
}

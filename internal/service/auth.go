// Package service contains the business logic for the trip planner API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here: services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// MinPasswordLen is the single authoritative password length rule.
const MinPasswordLen = 6

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,}$`)

// ErrInvalidCredentials is returned by Login for an unknown email and for a
// wrong password alike, so callers cannot probe which accounts exist.
var ErrInvalidCredentials = &domain.Error{Kind: domain.ErrUnauthorized, Message: "Invalid credentials"}

// TokenIssuer mints and verifies session tokens. *auth.TokenService satisfies it.
type TokenIssuer interface {
	Issue(userID uuid.UUID, username, email string) (string, error)
	Verify(token string) (auth.Identity, error)
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token string
	User  domain.User
}

// AuthService registers users, checks credentials and resolves tokens.
type AuthService struct {
	store  repo.Store
	hasher auth.CredentialHasher
	tokens TokenIssuer

	// dummyHash is verified against when the email is unknown so that a
	// failed lookup costs as much as a wrong password.
	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService constructs an AuthService.
func NewAuthService(store repo.Store, hasher auth.CredentialHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{store: store, hasher: hasher, tokens: tokens}
}

// Register validates the input, hashes the password and stores a new user.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || password == "" {
		return domain.User{}, domain.Errorf(domain.ErrValidation, "All fields are required")
	}
	if !validEmail(email) {
		return domain.User{}, domain.Errorf(domain.ErrValidation, "Invalid email format")
	}
	if !usernamePattern.MatchString(username) {
		return domain.User{}, domain.Errorf(domain.ErrValidation,
			"Username must be at least 3 characters of letters, digits or underscore")
	}
	if len([]rune(password)) < MinPasswordLen {
		return domain.User{}, domain.Errorf(domain.ErrValidation, "Password must be at least %d characters", MinPasswordLen)
	}

	users := s.store.Repos().Users
	if taken, err := s.taken(ctx, users, username, email); err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Register: %w", err)
	} else if taken {
		return domain.User{}, errUserExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Register: hash: %w", err)
	}

	user, err := users.Create(ctx, domain.User{Username: username, Email: email, PasswordHash: hash})
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, domain.ErrConflict) {
			return domain.User{}, errUserExists
		}
		return domain.User{}, fmt.Errorf("service.AuthService.Register: %w", err)
	}
	return user, nil
}

var errUserExists = &domain.Error{Kind: domain.ErrConflict, Message: "Username or email already exists"}

func (s *AuthService) taken(ctx context.Context, users repo.UserRepo, username, email string) (bool, error) {
	if _, err := users.GetByUsername(ctx, username); err == nil {
		return true, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if _, err := users.GetByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	return false, nil
}

// validEmail accepts a bare RFC 5322 address: no display name, no angle brackets.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// burnVerify runs a password check whose result is discarded.
func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		if h, err := s.hasher.Hash("trip-planner-unknown-user"); err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(s.dummyHash, password)
	}
}

// Login checks the credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, domain.Errorf(domain.ErrValidation, "Email and password are required")
	}

	user, err := s.store.Repos().Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.burnVerify(password)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("service.AuthService.Login: verify: %w", err)
	}
	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("service.AuthService.Login: issue: %w", err)
	}
	return LoginResult{Token: token, User: user}, nil
}

// CurrentUser verifies token and returns the user it names.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (domain.User, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.CurrentUser: %w", err)
	}
	return s.Profile(ctx, id.UserID)
}

// Profile returns the user with the given id.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	user, err := s.store.Repos().Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.Errorf(domain.ErrNotFound, "User not found")
		}
		return domain.User{}, fmt.Errorf("service.AuthService.Profile: %w", err)
	}
	return user, nil
}

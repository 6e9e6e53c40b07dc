package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/crewcal/internal/persistence"
)

// TokenIssuer mints a signed session token for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// AuthService implements account creation, password login, federated account
// linking, and principal lookup.
type AuthService struct {
	users       persistence.UserRepository
	tokens      TokenIssuer
	hash        PasswordHasher
	verify      PasswordVerifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAuthService wires an AuthService with its dependencies.
func NewAuthService(users persistence.UserRepository, tokens TokenIssuer, hash PasswordHasher, verify PasswordVerifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		hash:        hash,
		verify:      verify,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Signup creates an email/password account and returns a session token.
func (s *AuthService) Signup(ctx context.Context, params SignupParams) (AuthResult, error) {
	logger := serviceLogger(ctx, s.logger, "auth", "signup")

	vErr := &ValidationError{}
	email := strings.TrimSpace(strings.ToLower(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		vErr.add("email", "a valid email address is required")
	}
	if len(params.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	displayName := strings.TrimSpace(params.DisplayName)
	if displayName == "" {
		vErr.add("displayName", "display name is required")
	}
	if vErr.HasErrors() {
		return AuthResult{}, vErr
	}

	hash, err := s.hash(params.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		DisplayName:  displayName,
		Provider:     persistence.ProviderEmail,
		PasswordHash: &hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return s.issueToken(user)
}

// Login verifies email/password credentials and returns a session token.
// Accounts switched to Google sign-in reject password logins with
// ErrGoogleAccount.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (AuthResult, error) {
	logger := serviceLogger(ctx, s.logger, "auth", "login")

	email := strings.TrimSpace(params.Email)
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("load user: %w", err)
	}

	if user.PasswordHash == nil {
		if user.Provider == persistence.ProviderGoogle {
			return AuthResult{}, ErrGoogleAccount
		}
		return AuthResult{}, ErrInvalidCredentials
	}
	if err := s.verify(*user.PasswordHash, params.Password); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return s.issueToken(user)
}

// LinkGoogleUser resolves a verified Google identity to an account, creating
// or converting as needed, and returns a session token. Conversion nulls the
// stored password hash; the account cannot go back to password login.
func (s *AuthService) LinkGoogleUser(ctx context.Context, email, displayName, providerID string) (AuthResult, error) {
	logger := serviceLogger(ctx, s.logger, "auth", "link_google")

	user, err := s.users.UpsertGoogleUser(ctx, s.idGenerator(), strings.TrimSpace(strings.ToLower(email)), strings.TrimSpace(displayName), providerID, s.now())
	if err != nil {
		return AuthResult{}, fmt.Errorf("link google user: %w", err)
	}

	logger.InfoContext(ctx, "google account linked", "user_id", user.ID)
	return s.issueToken(user)
}

// Me returns the account behind the principal.
func (s *AuthService) Me(ctx context.Context, principal Principal) (User, error) {
	if !principal.Authenticated() {
		return User{}, ErrUnauthenticated
	}

	user, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("load user: %w", err)
	}
	return User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Provider:    user.Provider,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}, nil
}

func (s *AuthService) issueToken(user persistence.User) (AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{Token: token, UserID: user.ID, Email: user.Email}, nil
}

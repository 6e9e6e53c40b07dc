package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/crewcal/internal/persistence"
)

type userRepoStub struct {
	byID    map[string]persistence.User
	byEmail map[string]persistence.User

	created   *persistence.User
	createErr error

	upserted *persistence.User
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{
		byID:    make(map[string]persistence.User),
		byEmail: make(map[string]persistence.User),
	}
}

func (s *userRepoStub) add(user persistence.User) {
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user
}

func (s *userRepoStub) CreateUser(ctx context.Context, user persistence.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return persistence.ErrDuplicate
	}
	s.created = &user
	s.add(user)
	return nil
}

func (s *userRepoStub) GetUser(ctx context.Context, id string) (persistence.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *userRepoStub) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *userRepoStub) UpsertGoogleUser(ctx context.Context, id, email, displayName, providerID string, now time.Time) (persistence.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		user = persistence.User{ID: id, Email: email, DisplayName: displayName, CreatedAt: now}
	}
	user.Provider = persistence.ProviderGoogle
	user.PasswordHash = nil
	user.UpdatedAt = now
	s.add(user)
	s.upserted = &user
	return user, nil
}

type tokenIssuerStub struct {
	err error
}

func (s tokenIssuerStub) Issue(userID, email string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-for-" + userID, nil
}

func plainHash(password string) (string, error) { return "hashed:" + password, nil }

func plainVerify(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func newAuthService(users *userRepoStub) *AuthService {
	return NewAuthService(users, tokenIssuerStub{}, plainHash, plainVerify, sequenceIDs("user"), nowFunc(), nil)
}

func TestAuthService_Signup(t *testing.T) {
	t.Run("validates input", func(t *testing.T) {
		svc := newAuthService(newUserRepoStub())

		_, err := svc.Signup(context.Background(), SignupParams{Email: "nope", Password: "short", DisplayName: " "})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "password", "displayName"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("creates the account and issues a token", func(t *testing.T) {
		users := newUserRepoStub()
		svc := newAuthService(users)

		result, err := svc.Signup(context.Background(), SignupParams{
			Email:       "Alice@Example.com",
			Password:    "correct horse",
			DisplayName: "Alice",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if users.created == nil {
			t.Fatal("expected user persisted")
		}
		if users.created.Email != "alice@example.com" {
			t.Fatalf("expected lowercased email, got %q", users.created.Email)
		}
		if users.created.PasswordHash == nil || *users.created.PasswordHash != "hashed:correct horse" {
			t.Fatal("expected hashed password stored")
		}
		if result.Token == "" || result.Email != "alice@example.com" {
			t.Fatalf("unexpected auth result: %+v", result)
		}
	})

	t.Run("rejects duplicate emails", func(t *testing.T) {
		users := newUserRepoStub()
		users.add(persistence.User{ID: "user-0", Email: "alice@example.com"})
		svc := newAuthService(users)

		_, err := svc.Signup(context.Background(), SignupParams{
			Email:       "alice@example.com",
			Password:    "correct horse",
			DisplayName: "Alice",
		})
		if !errors.Is(err, ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})
}

func TestAuthService_Login(t *testing.T) {
	hash := "hashed:correct horse"
	seeded := func() *userRepoStub {
		users := newUserRepoStub()
		users.add(persistence.User{
			ID:           "user-0",
			Email:        "alice@example.com",
			Provider:     persistence.ProviderEmail,
			PasswordHash: &hash,
		})
		return users
	}

	t.Run("issues a token for valid credentials", func(t *testing.T) {
		svc := newAuthService(seeded())

		result, err := svc.Login(context.Background(), LoginParams{Email: "alice@example.com", Password: "correct horse"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.UserID != "user-0" || result.Token == "" {
			t.Fatalf("unexpected result: %+v", result)
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		svc := newAuthService(seeded())

		if _, err := svc.Login(context.Background(), LoginParams{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects an unknown email", func(t *testing.T) {
		svc := newAuthService(seeded())

		if _, err := svc.Login(context.Background(), LoginParams{Email: "bob@example.com", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("points Google accounts at federated login", func(t *testing.T) {
		users := newUserRepoStub()
		users.add(persistence.User{
			ID:       "user-0",
			Email:    "alice@example.com",
			Provider: persistence.ProviderGoogle,
		})
		svc := newAuthService(users)

		if _, err := svc.Login(context.Background(), LoginParams{Email: "alice@example.com", Password: "anything"}); !errors.Is(err, ErrGoogleAccount) {
			t.Fatalf("expected ErrGoogleAccount, got %v", err)
		}
	})
}

func TestAuthService_LinkGoogleUser(t *testing.T) {
	t.Run("converts an existing password account", func(t *testing.T) {
		hash := "hashed:secret"
		users := newUserRepoStub()
		users.add(persistence.User{
			ID:           "user-0",
			Email:        "alice@example.com",
			Provider:     persistence.ProviderEmail,
			PasswordHash: &hash,
		})
		svc := newAuthService(users)

		result, err := svc.LinkGoogleUser(context.Background(), "alice@example.com", "Alice", "google-123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.UserID != "user-0" {
			t.Fatalf("expected existing account reused, got %s", result.UserID)
		}
		if users.upserted.Provider != persistence.ProviderGoogle || users.upserted.PasswordHash != nil {
			t.Fatal("expected provider switched and password hash cleared")
		}
	})

	t.Run("creates a fresh account for a new email", func(t *testing.T) {
		users := newUserRepoStub()
		svc := newAuthService(users)

		result, err := svc.LinkGoogleUser(context.Background(), "new@example.com", "Newcomer", "google-456")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.UserID == "" || users.upserted == nil {
			t.Fatal("expected account created")
		}
	})
}

func TestAuthService_Me(t *testing.T) {
	users := newUserRepoStub()
	users.add(persistence.User{ID: "user-0", Email: "alice@example.com", DisplayName: "Alice"})
	svc := newAuthService(users)

	if _, err := svc.Me(context.Background(), Principal{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	user, err := svc.Me(context.Background(), Principal{UserID: "user-0", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.DisplayName != "Alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

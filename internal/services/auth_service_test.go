package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/validator"
)

const testJWTSecret = "test-secret"

func newAuthServiceForTest() (AuthService, *mockRepository) {
	repo := newMockRepository()
	svc := NewAuthService(repo, nil, testLogger(), validator.New(), nil, testJWTSecret, time.Hour, bcrypt.MinCost)
	return svc, repo
}

func seedUserWithPassword(repo *mockRepository, email, password string, role models.UserRole) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := seedUser(repo, email, role)
	user.Password = string(hash)
	repo.users.Update(context.Background(), nil, user)
	return user
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		svc, repo := newAuthServiceForTest()
		user := seedUserWithPassword(repo, "admin@ita.edu", "Sup3rSecret", models.RoleAdmin)

		resp, err := svc.Login(ctx, &LoginRequest{Email: "admin@ita.edu", Password: "Sup3rSecret"})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if resp.User.User.ID != user.ID {
			t.Errorf("expected user %d, got %d", user.ID, resp.User.User.ID)
		}
		if resp.ExpiresIn <= 0 {
			t.Errorf("expected positive expiry, got %d", resp.ExpiresIn)
		}

		// The token must verify against the issuing secret and carry the
		// user identity.
		parsed, err := jwt.Parse(resp.Token, func(t *jwt.Token) (interface{}, error) {
			return []byte(testJWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			t.Fatalf("token does not verify: %v", err)
		}
		claims := parsed.Claims.(jwt.MapClaims)
		if uint(claims["userId"].(float64)) != user.ID {
			t.Errorf("unexpected userId claim: %v", claims["userId"])
		}
		if claims["role"] != string(models.RoleAdmin) {
			t.Errorf("unexpected role claim: %v", claims["role"])
		}
		if claims["jti"] == "" {
			t.Error("expected jti claim")
		}
	})

	t.Run("mixed-case email finds the account", func(t *testing.T) {
		svc, repo := newAuthServiceForTest()
		user := seedUserWithPassword(repo, "admin@ita.edu", "Sup3rSecret", models.RoleAdmin)

		// Emails are stored lowercase; the lookup normalizes so the
		// case the user typed does not matter.
		resp, err := svc.Login(ctx, &LoginRequest{Email: "Admin@ITA.edu", Password: "Sup3rSecret"})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if resp.User.User.ID != user.ID {
			t.Errorf("expected user %d, got %d", user.ID, resp.User.User.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, repo := newAuthServiceForTest()
		seedUserWithPassword(repo, "admin@ita.edu", "Sup3rSecret", models.RoleAdmin)

		_, err := svc.Login(ctx, &LoginRequest{Email: "admin@ita.edu", Password: "WrongPass1"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email yields same error as wrong password", func(t *testing.T) {
		svc, _ := newAuthServiceForTest()

		_, err := svc.Login(ctx, &LoginRequest{Email: "ghost@ita.edu", Password: "Sup3rSecret"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("disabled account", func(t *testing.T) {
		svc, repo := newAuthServiceForTest()
		user := seedUserWithPassword(repo, "admin@ita.edu", "Sup3rSecret", models.RoleAdmin)
		user.IsActive = false
		repo.users.Update(ctx, nil, user)

		_, err := svc.Login(ctx, &LoginRequest{Email: "admin@ita.edu", Password: "Sup3rSecret"})
		if !errors.Is(err, ErrAccountDisabled) {
			t.Errorf("expected ErrAccountDisabled, got %v", err)
		}
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, repo := newAuthServiceForTest()
	user := seedUserWithPassword(repo, "student@ita.edu", "OldSecret1", models.RoleStudent)

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user, &ChangePasswordRequest{
			CurrentPassword: "Nope12345",
			NewPassword:     "NewSecret1",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("successful change", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user, &ChangePasswordRequest{
			CurrentPassword: "OldSecret1",
			NewPassword:     "NewSecret1",
		})
		if err != nil {
			t.Fatalf("ChangePassword failed: %v", err)
		}
		stored, _ := repo.users.GetByID(ctx, nil, user.ID)
		if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("NewSecret1")) != nil {
			t.Error("new password does not verify")
		}
	})
}

func TestAuthService_LogoutWithoutDenylist(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthServiceForTest()

	// No denylist configured: logout is a no-op and nothing reads as
	// revoked.
	if err := svc.Logout(ctx, "some-jti", 3600); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	revoked, err := svc.IsTokenRevoked(ctx, "some-jti")
	if err != nil {
		t.Fatalf("IsTokenRevoked failed: %v", err)
	}
	if revoked {
		t.Error("token should not read as revoked without a denylist")
	}
}

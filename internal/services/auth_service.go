package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ITA-F-2025/institute-service/internal/cache"
	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/repositories"
	"github.com/ITA-F-2025/institute-service/internal/validator"
)

type authService struct {
	repo       repositories.Repository
	db         *gorm.DB
	logger     *slog.Logger
	validator  *validator.Validator
	denylist   *cache.CacheHelper
	jwtSecret  []byte
	jwtTTL     time.Duration
	bcryptCost int
}

// NewAuthService creates the authentication service. The denylist helper
// may be nil; logout then degrades to client-side token disposal.
func NewAuthService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, denylist *cache.CacheHelper, jwtSecret string, jwtTTL time.Duration, bcryptCost int) AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		repo:       repo,
		db:         db,
		logger:     logger,
		validator:  v,
		denylist:   denylist,
		jwtSecret:  []byte(jwtSecret),
		jwtTTL:     jwtTTL,
		bcryptCost: bcryptCost,
	}
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	// Stored emails are lowercase-normalized on create; normalize the
	// lookup so a mixed-case login still finds the account.
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Same error as a wrong password so login does not leak
			// which emails exist.
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.logger.Warn("failed login attempt", "email", email)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	token, expiresAt, err := s.issueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if err := s.repo.User().UpdateLastLogin(ctx, nil, user.ID); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)

	return &LoginResponse{
		Token:     token,
		ExpiresIn: int64(time.Until(expiresAt).Seconds()),
		User:      buildUserResponse(user),
	}, nil
}

// Logout revokes a token by denylisting its id for the remainder of its
// lifetime.
func (s *authService) Logout(ctx context.Context, tokenID string, remainingSeconds int64) error {
	if s.denylist == nil {
		return nil
	}
	if remainingSeconds <= 0 {
		return nil // already expired
	}

	ttl := time.Duration(remainingSeconds) * time.Second
	if err := s.denylist.SetString(ctx, tokenID, "revoked", ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.logger.Info("token revoked", "token_id", tokenID)
	return nil
}

func (s *authService) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.denylist == nil {
		return false, nil
	}

	revoked, err := s.denylist.Exists(ctx, tokenID)
	if err != nil {
		if err == cache.ErrCacheNotAvailable {
			return false, nil
		}
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return revoked, nil
}

func (s *authService) ChangePassword(ctx context.Context, actor *models.User, req *ChangePasswordRequest) error {
	if actor == nil {
		return ErrInvalidCredentials
	}

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return errs
	}

	user, err := s.repo.User().GetByID(ctx, nil, actor.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Password = string(hash)
	syncDerivedColumns(user)

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}

func (s *authService) issueToken(user *models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.jwtTTL)

	claims := jwt.MapClaims{
		"userId": user.ID,
		"role":   string(user.Role),
		"jti":    uuid.New().String(),
		"exp":    expiresAt.Unix(),
		"iat":    time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

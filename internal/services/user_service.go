package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ITA-F-2025/institute-service/internal/auth"
	"github.com/ITA-F-2025/institute-service/internal/events"
	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/repositories"
	"github.com/ITA-F-2025/institute-service/internal/validator"
)

type userService struct {
	repo       repositories.Repository
	db         *gorm.DB
	logger     *slog.Logger
	validator  *validator.Validator
	publisher  events.EventPublisher
	bcryptCost int
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, bcryptCost int) UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		repo:       repo,
		db:         db,
		logger:     logger,
		validator:  validator,
		publisher:  publisher,
		bcryptCost: bcryptCost,
	}
}

// principalOf converts an actor into an authorization principal. A nil
// actor is the anonymous principal.
func principalOf(actor *models.User) auth.Principal {
	if actor == nil {
		return auth.Anonymous
	}
	return auth.Principal{
		ID:            actor.ID,
		Role:          actor.Role,
		Active:        actor.IsActive,
		Authenticated: true,
	}
}

// syncDerivedColumns recomputes the staff flag and role group from the
// role. Mutations call this unconditionally before saving, so the derived
// columns can never drift.
func syncDerivedColumns(user *models.User) {
	user.IsStaff = auth.IsStaffRole(user.Role)
	user.RoleGroup = string(user.Role)
}

func buildUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		User:         user,
		Capabilities: auth.Capabilities(user.Role),
	}
}

func actorID(actor *models.User) uint {
	if actor == nil {
		return 0
	}
	return actor.ID
}

// ===== ACCOUNT MANAGEMENT =====

func (s *userService) Create(ctx context.Context, actor *models.User, req *CreateUserRequest) (*UserResponse, error) {
	s.logger.Info("creating user", "actor_id", actorID(actor), "email", req.Email, "role", req.Role)

	if errs := s.validator.GetBusinessValidator().ValidateUserCreate(req); len(errs) > 0 {
		return nil, errs
	}

	role, err := models.ParseRole(string(req.Role))
	if err != nil {
		return nil, auth.ErrUnknownRole
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionUserCreate, auth.Resource{
		Kind:       "user",
		TargetRole: role,
	})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), 0, "user", "create", decision.Reason)
	}

	exists, err := s.repo.User().ExistsByEmail(ctx, nil, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  string(hash),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
		Phone:     req.Phone,
		IsActive:  true,
	}
	syncDerivedColumns(user)

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.User().Create(ctx, nil, user)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicUserCreated, UserEventPayload{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.Role,
		ActorID: actorID(actor),
	})

	s.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	return buildUserResponse(user), nil
}

func (s *userService) GetByID(ctx context.Context, actor *models.User, id uint) (*UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionUserRead, auth.Resource{
		Kind:       "user",
		OwnerID:    user.ID,
		TargetRole: user.Role,
	})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), id, "user", "read", decision.Reason)
	}

	return buildUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, actor *models.User, id uint, req *UpdateUserRequest) (*UserResponse, error) {
	s.logger.Info("updating user", "actor_id", actorID(actor), "user_id", id)

	if errs := s.validator.GetBusinessValidator().ValidateUserUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionUserUpdate, auth.Resource{
		Kind:       "user",
		OwnerID:    user.ID,
		TargetRole: user.Role,
	})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), id, "user", "update", decision.Reason)
	}

	oldRole := user.Role

	if req.Role != nil {
		role, err := models.ParseRole(string(*req.Role))
		if err != nil {
			return nil, auth.ErrUnknownRole
		}
		user.Role = role
	}
	if req.Email != nil && *req.Email != user.Email {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		exists, err := s.repo.User().ExistsByEmail(ctx, nil, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return nil, ErrEmailTaken
		}
		user.Email = email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.IsActive != nil {
		if !*req.IsActive && actor != nil && actor.ID == user.ID {
			return nil, ErrSelfDeactivation
		}
		user.IsActive = *req.IsActive
	}

	syncDerivedColumns(user)

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.User().Update(ctx, nil, user)
	})
	if err != nil {
		return nil, err
	}

	if user.Role != oldRole {
		s.publishEvent(ctx, events.TopicUserRoleChanged, RoleChangedPayload{
			UserID:  user.ID,
			OldRole: oldRole,
			NewRole: user.Role,
			ActorID: actorID(actor),
		})
	}

	s.logger.Info("user updated", "user_id", user.ID)
	return buildUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, actor *models.User, id uint) error {
	s.logger.Info("deleting user", "actor_id", actorID(actor), "user_id", id)

	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionUserDelete, auth.Resource{
		Kind:       "user",
		OwnerID:    user.ID,
		TargetRole: user.Role,
	})
	if !decision.Allowed {
		return NewPermissionError(actorID(actor), id, "user", "delete", decision.Reason)
	}

	if err := s.repo.User().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info("user deleted", "user_id", id)
	return nil
}

func (s *userService) List(ctx context.Context, actor *models.User, filters repositories.UserFilters) (*UserListResponse, error) {
	decision := auth.Authorize(principalOf(actor), auth.ActionUserRead, auth.Resource{
		Kind:       "user",
		TargetRole: models.RoleStudent,
	})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), 0, "user", "list", decision.Reason)
	}

	// Registrars only see student and tutor accounts regardless of the
	// requested filter.
	if actor != nil && actor.Role == models.RoleRegistrar {
		filters.Role = nil
		filters.Roles = auth.AssignableRoles(models.RoleRegistrar)
	}

	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	responses := make([]*UserResponse, len(users))
	for i, u := range users {
		responses[i] = buildUserResponse(u)
	}

	return &UserListResponse{
		Users: responses,
		Total: total,
		Page:  pageOf(filters.Offset, filters.Limit),
		Size:  filters.Limit,
	}, nil
}

// ===== STATUS MANAGEMENT =====

func (s *userService) Deactivate(ctx context.Context, actor *models.User, id uint) error {
	s.logger.Info("deactivating user", "actor_id", actorID(actor), "user_id", id)

	if actor != nil && actor.ID == id {
		return ErrSelfDeactivation
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionUserDeactivate, auth.Resource{
		Kind:       "user",
		OwnerID:    user.ID,
		TargetRole: user.Role,
	})
	if !decision.Allowed {
		return NewPermissionError(actorID(actor), id, "user", "deactivate", decision.Reason)
	}

	user.IsActive = false
	syncDerivedColumns(user)

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return err
	}

	s.publishEvent(ctx, events.TopicUserDeactivated, UserEventPayload{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.Role,
		ActorID: actorID(actor),
	})

	return nil
}

func (s *userService) Activate(ctx context.Context, actor *models.User, id uint) error {
	s.logger.Info("activating user", "actor_id", actorID(actor), "user_id", id)

	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionUserDeactivate, auth.Resource{
		Kind:       "user",
		OwnerID:    user.ID,
		TargetRole: user.Role,
	})
	if !decision.Allowed {
		return NewPermissionError(actorID(actor), id, "user", "activate", decision.Reason)
	}

	user.IsActive = true
	syncDerivedColumns(user)

	return s.repo.User().Update(ctx, nil, user)
}

func (s *userService) ResetPassword(ctx context.Context, actor *models.User, id uint, req *ResetPasswordRequest) error {
	s.logger.Info("resetting password", "actor_id", actorID(actor), "user_id", id)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return errs
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionUserResetPassword, auth.Resource{
		Kind:       "user",
		OwnerID:    user.ID,
		TargetRole: user.Role,
	})
	if !decision.Allowed {
		return NewPermissionError(actorID(actor), id, "user", "reset_password", decision.Reason)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Password = string(hash)
	syncDerivedColumns(user)

	return s.repo.User().Update(ctx, nil, user)
}

// ===== SELF-SERVICE =====

func (s *userService) GetProfile(ctx context.Context, actor *models.User) (*UserResponse, error) {
	if actor == nil {
		return nil, NewPermissionError(0, 0, "profile", "read", auth.DenyUnauthenticated)
	}

	user, err := s.getUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return buildUserResponse(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor *models.User, req *UpdateProfileRequest) (*UserResponse, error) {
	if actor == nil {
		return nil, NewPermissionError(0, 0, "profile", "update", auth.DenyUnauthenticated)
	}

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionProfileUpdate, auth.Resource{
		Kind:    "profile",
		OwnerID: actor.ID,
	})
	if !decision.Allowed {
		return nil, NewPermissionError(actor.ID, actor.ID, "profile", "update", decision.Reason)
	}

	user, err := s.getUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}

	syncDerivedColumns(user)

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, err
	}

	return buildUserResponse(user), nil
}

// ===== HELPERS =====

func (s *userService) getUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) publishEvent(ctx context.Context, topic string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(topic, payload)); err != nil {
		s.logger.Error("failed to publish event", "topic", topic, "error", err)
	}
}

func pageOf(offset, limit int) int {
	if limit <= 0 {
		return 1
	}
	return offset/limit + 1
}

package services

import (
	"context"

	"github.com/ITA-F-2025/institute-service/internal/auth"
	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/repositories"
	"github.com/ITA-F-2025/institute-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateUserRequest = validator.UserCreateRequest
type UpdateUserRequest = validator.UserUpdateRequest
type UpdateProfileRequest = validator.ProfileUpdateRequest
type ChangePasswordRequest = validator.ChangePasswordRequest
type ResetPasswordRequest = validator.ResetPasswordRequest
type LoginRequest = validator.LoginRequest

type CreateCategoryRequest = validator.CategoryCreateRequest
type UpdateCategoryRequest = validator.CategoryUpdateRequest
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type UpdatePrerequisitesRequest = validator.PrerequisitesUpdateRequest
type BatchPrerequisitesRequest = validator.PrerequisitesBatchRequest

type UserResponse struct {
	*models.User
	Capabilities []auth.Capability `json:"capabilities"`
}

type UserListResponse struct {
	Users []*UserResponse `json:"users"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

type CourseResponse struct {
	*models.Course
	PrerequisiteIDs []uint `json:"prerequisite_ids"`
	Enrollments     int64  `json:"enrollments,omitempty"`
}

type CourseListResponse struct {
	Courses []*CourseResponse `json:"courses"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

// CourseEnrollmentsResponse is the per-course enrollment roll-up.
type CourseEnrollmentsResponse struct {
	CourseID    uint                 `json:"course_id"`
	Total       int64                `json:"total"`
	InProgress  int64                `json:"in_progress"`
	Completed   int64                `json:"completed"`
	Cancelled   int64                `json:"cancelled"`
	Enrollments []*models.Enrollment `json:"enrollments"`
}

type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expires_in"`
	User      *UserResponse `json:"user"`
}

// ===== EVENT PAYLOADS =====

type UserEventPayload struct {
	UserID  uint            `json:"user_id"`
	Email   string          `json:"email"`
	Role    models.UserRole `json:"role"`
	ActorID uint            `json:"actor_id"`
}

type RoleChangedPayload struct {
	UserID  uint            `json:"user_id"`
	OldRole models.UserRole `json:"old_role"`
	NewRole models.UserRole `json:"new_role"`
	ActorID uint            `json:"actor_id"`
}

type CourseEventPayload struct {
	CourseID uint   `json:"course_id"`
	Code     string `json:"code"`
	ActorID  uint   `json:"actor_id"`
}

type PrereqsChangedPayload struct {
	CourseID      uint   `json:"course_id"`
	Prerequisites []uint `json:"prerequisites"`
	ActorID       uint   `json:"actor_id"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, tokenID string, remainingSeconds int64) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	ChangePassword(ctx context.Context, actor *models.User, req *ChangePasswordRequest) error
}

type UserService interface {
	// Account management
	Create(ctx context.Context, actor *models.User, req *CreateUserRequest) (*UserResponse, error)
	GetByID(ctx context.Context, actor *models.User, id uint) (*UserResponse, error)
	Update(ctx context.Context, actor *models.User, id uint, req *UpdateUserRequest) (*UserResponse, error)
	Delete(ctx context.Context, actor *models.User, id uint) error
	List(ctx context.Context, actor *models.User, filters repositories.UserFilters) (*UserListResponse, error)

	// Status management
	Deactivate(ctx context.Context, actor *models.User, id uint) error
	Activate(ctx context.Context, actor *models.User, id uint) error
	ResetPassword(ctx context.Context, actor *models.User, id uint, req *ResetPasswordRequest) error

	// Self-service
	GetProfile(ctx context.Context, actor *models.User) (*UserResponse, error)
	UpdateProfile(ctx context.Context, actor *models.User, req *UpdateProfileRequest) (*UserResponse, error)
}

type CategoryService interface {
	Create(ctx context.Context, actor *models.User, req *CreateCategoryRequest) (*models.Category, error)
	GetByID(ctx context.Context, actor *models.User, id uint) (*models.Category, error)
	Update(ctx context.Context, actor *models.User, id uint, req *UpdateCategoryRequest) (*models.Category, error)
	Delete(ctx context.Context, actor *models.User, id uint) error
	List(ctx context.Context, actor *models.User) ([]*models.Category, error)

	// Public catalog
	PublicList(ctx context.Context) ([]*models.Category, error)
}

type CourseService interface {
	// Core CRUD operations
	Create(ctx context.Context, actor *models.User, req *CreateCourseRequest) (*CourseResponse, error)
	GetByID(ctx context.Context, actor *models.User, id uint) (*CourseResponse, error)
	Update(ctx context.Context, actor *models.User, id uint, req *UpdateCourseRequest) (*CourseResponse, error)
	Delete(ctx context.Context, actor *models.User, id uint) error
	List(ctx context.Context, actor *models.User, filters repositories.CourseFilters) (*CourseListResponse, error)

	// Prerequisite management
	UpdatePrerequisites(ctx context.Context, actor *models.User, id uint, req *UpdatePrerequisitesRequest) (*CourseResponse, error)
	UpdatePrerequisitesBatch(ctx context.Context, actor *models.User, req *BatchPrerequisitesRequest) error

	// Status and statistics
	ToggleActive(ctx context.Context, actor *models.User, id uint) (*CourseResponse, error)
	GetStatistics(ctx context.Context, actor *models.User) (*repositories.CourseStatistics, error)
	GetEnrollments(ctx context.Context, actor *models.User, id uint) (*CourseEnrollmentsResponse, error)

	// Public catalog (no actor)
	PublicList(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error)
	PublicGet(ctx context.Context, id uint) (*CourseResponse, error)
}

type ExportService interface {
	// ExportCatalog renders the course catalog as an XLSX workbook.
	ExportCatalog(ctx context.Context, actor *models.User) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Auth() AuthService
	User() UserService
	Category() CategoryService
	Course() CourseService
	Export() ExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

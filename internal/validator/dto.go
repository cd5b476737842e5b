package validator

import (
	"gorm.io/datatypes"

	"github.com/ITA-F-2025/institute-service/internal/models"
)

// UserCreateRequest represents the request structure for creating users
type UserCreateRequest struct {
	Email     string          `json:"email" validate:"required,email,max=255"`
	Password  string          `json:"password" validate:"required,password_strength"`
	FirstName string          `json:"first_name" validate:"required,max=100"`
	LastName  string          `json:"last_name" validate:"required,max=100"`
	Role      models.UserRole `json:"role" validate:"required,user_role"`
	Phone     *string         `json:"phone" validate:"omitempty,max=30"`
}

// UserUpdateRequest represents the request structure for updating users
type UserUpdateRequest struct {
	Email     *string          `json:"email" validate:"omitempty,email,max=255"`
	FirstName *string          `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string          `json:"last_name" validate:"omitempty,max=100"`
	Role      *models.UserRole `json:"role" validate:"omitempty,user_role"`
	Phone     *string          `json:"phone" validate:"omitempty,max=30"`
	IsActive  *bool            `json:"is_active"`
}

// ProfileUpdateRequest covers the self-service profile fields
type ProfileUpdateRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=30"`
}

// ChangePasswordRequest represents a self-service password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,password_strength"`
}

// ResetPasswordRequest is the admin-driven password reset
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,password_strength"`
}

// LoginRequest represents the login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CategoryCreateRequest represents the request structure for creating categories
type CategoryCreateRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// CategoryUpdateRequest represents the request structure for updating categories
type CategoryUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active"`
}

// CourseCreateRequest represents the request structure for creating courses
type CourseCreateRequest struct {
	Code          string             `json:"code" validate:"required,course_code"`
	Title         string             `json:"title" validate:"required,max=200"`
	Description   *string            `json:"description" validate:"omitempty,max=5000"`
	Level         models.CourseLevel `json:"level" validate:"required,course_level"`
	CategoryID    uint               `json:"category_id" validate:"required"`
	Price         float64            `json:"price" validate:"min=0"`
	DurationWeeks int                `json:"duration_weeks" validate:"required,course_duration"`
	MaxStudents   int                `json:"max_students" validate:"omitempty,min=1,max=500"`
	Prerequisites []uint             `json:"prerequisites" validate:"omitempty,max=20"`
	Syllabus      datatypes.JSON     `json:"syllabus" validate:"omitempty"`
}

// CourseUpdateRequest represents the request structure for updating courses
type CourseUpdateRequest struct {
	Code          *string             `json:"code" validate:"omitempty,course_code"`
	Title         *string             `json:"title" validate:"omitempty,max=200"`
	Description   *string             `json:"description" validate:"omitempty,max=5000"`
	Level         *models.CourseLevel `json:"level" validate:"omitempty,course_level"`
	CategoryID    *uint               `json:"category_id"`
	Price         *float64            `json:"price" validate:"omitempty,min=0"`
	DurationWeeks *int                `json:"duration_weeks" validate:"omitempty,course_duration"`
	MaxStudents   *int                `json:"max_students" validate:"omitempty,min=1,max=500"`
	Syllabus      datatypes.JSON      `json:"syllabus" validate:"omitempty"`
}

// PrerequisitesUpdateRequest replaces a course's prerequisite set
type PrerequisitesUpdateRequest struct {
	Prerequisites []uint `json:"prerequisites" validate:"max=20"`
}

// PrerequisitesBatchItem is one entry of a batch prerequisite update
type PrerequisitesBatchItem struct {
	CourseID      uint   `json:"course_id" validate:"required"`
	Prerequisites []uint `json:"prerequisites" validate:"max=20"`
}

// PrerequisitesBatchRequest replaces prerequisite sets of several courses
// in one call
type PrerequisitesBatchRequest struct {
	Items []PrerequisitesBatchItem `json:"items" validate:"required,min=1,dive"`
}

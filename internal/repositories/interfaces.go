package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/prereq"
)

// ===== FILTERS =====

// UserFilters narrows user list queries. Pointer fields are skipped when nil.
type UserFilters struct {
	Role     *models.UserRole
	Roles    []models.UserRole
	IsActive *bool
	IsStaff  *bool
	Query    string // matches email, first or last name

	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// CourseFilters narrows course list queries.
type CourseFilters struct {
	Level       *models.CourseLevel
	CategoryID  *uint
	IsActive    *bool
	MinPrice    *float64
	MaxPrice    *float64
	MinDuration *int
	MaxDuration *int
	Query       string // matches code, title or description

	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// EnrollmentFilters narrows enrollment queries.
type EnrollmentFilters struct {
	StudentID *uint
	CourseID  *uint
	Status    *models.EnrollmentStatus

	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// ===== STATS =====

// CourseStatistics aggregates catalog-wide numbers for the statistics
// endpoint.
type CourseStatistics struct {
	TotalCourses  int64                        `json:"total_courses"`
	ActiveCourses int64                        `json:"active_courses"`
	ByLevel       map[models.CourseLevel]int64 `json:"by_level"`
	ByCategory    map[string]int64             `json:"by_category"`
	AvgCompletion float64                      `json:"avg_completion_rate"`
	TopEnrolled   []CourseEnrollmentCount      `json:"top_enrolled"`
}

// CourseEnrollmentCount pairs a course with its enrollment count.
type CourseEnrollmentCount struct {
	CourseID    uint   `json:"course_id"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	Enrollments int64  `json:"enrollments"`
}

// ===== REPOSITORY INTERFACES =====

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, tx *gorm.DB, id uint) error
}

type CategoryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, category *models.Category) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Category, error)
	Update(ctx context.Context, tx *gorm.DB, category *models.Category) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB) ([]*models.Category, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*models.Category, error)
	CountCourses(ctx context.Context, tx *gorm.DB, id uint) (int64, error)
}

type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetByIDWithPrerequisites(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Course, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error)
	ExistAll(ctx context.Context, tx *gorm.DB, ids []uint) (bool, error)

	// Prerequisite edges
	ReplacePrerequisites(ctx context.Context, tx *gorm.DB, courseID uint, prereqIDs []uint) error
	LoadPrerequisiteGraph(ctx context.Context, tx *gorm.DB) (*prereq.Graph, error)

	// Statistics
	GetStatistics(ctx context.Context, tx *gorm.DB) (*CourseStatistics, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error)
	Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	List(ctx context.Context, tx *gorm.DB, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ITA-F-2025/institute-service/internal/cache"
	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/prereq"
	"github.com/ITA-F-2025/institute-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CourseRepository {
	return &CoursePostgreSQL{db: db, cache: cacheManager}
}

func (r *CoursePostgreSQL) dbOrTx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	if err := r.dbOrTx(tx).WithContext(ctx).Omit("Prerequisites").Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	r.invalidate(ctx, course.ID)
	return nil
}

func (r *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	err := r.dbOrTx(tx).WithContext(ctx).Preload("Category").First(&course, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

func (r *CoursePostgreSQL) GetByIDWithPrerequisites(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	err := r.dbOrTx(tx).WithContext(ctx).
		Preload("Category").
		Preload("Prerequisites").
		First(&course, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course with prerequisites: %w", err)
	}
	return &course, nil
}

func (r *CoursePostgreSQL) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Course, error) {
	var course models.Course
	err := r.dbOrTx(tx).WithContext(ctx).Where("code = ?", code).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course by code: %w", err)
	}
	return &course, nil
}

func (r *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	err := r.dbOrTx(tx).WithContext(ctx).Omit("Prerequisites", "Category").Save(course).Error
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	r.invalidate(ctx, course.ID)
	return nil
}

func (r *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.dbOrTx(tx).WithContext(ctx)

	// Drop prerequisite edges in both directions before the soft delete so
	// the graph never references a removed course.
	if err := db.Exec("DELETE FROM course_prerequisites WHERE course_id = ? OR prerequisite_id = ?", id, id).Error; err != nil {
		return fmt.Errorf("failed to clear prerequisite edges: %w", err)
	}

	result := db.Delete(&models.Course{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrCourseNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := r.dbOrTx(tx).WithContext(ctx).Model(&models.Course{})
	query = applyCourseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var courses []*models.Course
	if err := query.Preload("Category").Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	return courses, total, nil
}

func (r *CoursePostgreSQL) ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	var count int64
	err := r.dbOrTx(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check course code: %w", err)
	}
	return count > 0, nil
}

func (r *CoursePostgreSQL) ExistAll(ctx context.Context, tx *gorm.DB, ids []uint) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	var count int64
	err := r.dbOrTx(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id IN ?", ids).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check course ids: %w", err)
	}
	return count == int64(len(ids)), nil
}

// ReplacePrerequisites swaps the full prerequisite set of a course. Cycle
// validation happens in the service layer before this is called.
func (r *CoursePostgreSQL) ReplacePrerequisites(ctx context.Context, tx *gorm.DB, courseID uint, prereqIDs []uint) error {
	db := r.dbOrTx(tx).WithContext(ctx)

	if err := db.Exec("DELETE FROM course_prerequisites WHERE course_id = ?", courseID).Error; err != nil {
		return fmt.Errorf("failed to clear prerequisites: %w", err)
	}

	for _, prereqID := range prereqIDs {
		err := db.Exec(
			"INSERT INTO course_prerequisites (course_id, prerequisite_id) VALUES (?, ?)",
			courseID, prereqID,
		).Error
		if err != nil {
			return fmt.Errorf("failed to add prerequisite %d: %w", prereqID, err)
		}
	}

	r.invalidate(ctx, courseID)
	return nil
}

type prereqEdge struct {
	CourseID       uint
	PrerequisiteID uint
}

// LoadPrerequisiteGraph loads all prerequisite edges into a graph snapshot.
func (r *CoursePostgreSQL) LoadPrerequisiteGraph(ctx context.Context, tx *gorm.DB) (*prereq.Graph, error) {
	var edges []prereqEdge
	err := r.dbOrTx(tx).WithContext(ctx).
		Table("course_prerequisites").
		Select("course_id", "prerequisite_id").
		Scan(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load prerequisite edges: %w", err)
	}

	byCourse := make(map[uint][]uint)
	for _, e := range edges {
		byCourse[e.CourseID] = append(byCourse[e.CourseID], e.PrerequisiteID)
	}

	graph := prereq.NewGraph()
	for courseID, prereqIDs := range byCourse {
		graph.SetPrerequisites(courseID, prereqIDs)
	}
	return graph, nil
}

type levelCount struct {
	Level models.CourseLevel
	Count int64
}

type categoryCount struct {
	Name  string
	Count int64
}

// GetStatistics aggregates catalog statistics in a handful of queries.
func (r *CoursePostgreSQL) GetStatistics(ctx context.Context, tx *gorm.DB) (*repositories.CourseStatistics, error) {
	db := r.dbOrTx(tx).WithContext(ctx)
	stats := &repositories.CourseStatistics{
		ByLevel:    make(map[models.CourseLevel]int64),
		ByCategory: make(map[string]int64),
	}

	if err := db.Model(&models.Course{}).Count(&stats.TotalCourses).Error; err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}

	if err := db.Model(&models.Course{}).Where("is_active = ?", true).Count(&stats.ActiveCourses).Error; err != nil {
		return nil, fmt.Errorf("failed to count active courses: %w", err)
	}

	var levels []levelCount
	err := db.Model(&models.Course{}).
		Select("level, COUNT(*) as count").
		Group("level").
		Scan(&levels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count courses by level: %w", err)
	}
	for _, lc := range levels {
		stats.ByLevel[lc.Level] = lc.Count
	}

	var categories []categoryCount
	err = db.Model(&models.Course{}).
		Select("categories.name as name, COUNT(*) as count").
		Joins("JOIN categories ON categories.id = courses.category_id").
		Group("categories.name").
		Scan(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count courses by category: %w", err)
	}
	for _, cc := range categories {
		stats.ByCategory[cc.Name] = cc.Count
	}

	var avg *float64
	err = db.Model(&models.Enrollment{}).
		Select("AVG(completion_rate)").
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to average completion rate: %w", err)
	}
	if avg != nil {
		stats.AvgCompletion = *avg
	}

	err = db.Model(&models.Enrollment{}).
		Select("courses.id as course_id, courses.code, courses.title, COUNT(enrollments.id) as enrollments").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Group("courses.id, courses.code, courses.title").
		Order("enrollments DESC").
		Limit(5).
		Scan(&stats.TopEnrolled).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank courses by enrollment: %w", err)
	}

	return stats, nil
}

func (r *CoursePostgreSQL) invalidate(ctx context.Context, id uint) {
	if r.cache == nil {
		return
	}
	_ = r.cache.InvalidateCourse(ctx, id)
}

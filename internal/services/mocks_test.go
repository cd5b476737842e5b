package services

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/prereq"
	"github.com/ITA-F-2025/institute-service/internal/repositories"
)

// mockRepository is an in-memory Repository for service tests.
type mockRepository struct {
	users       *mockUserRepo
	categories  *mockCategoryRepo
	courses     *mockCourseRepo
	enrollments *mockEnrollmentRepo
}

func newMockRepository() *mockRepository {
	courses := &mockCourseRepo{
		courses: make(map[uint]*models.Course),
		prereqs: make(map[uint][]uint),
	}
	return &mockRepository{
		users:       &mockUserRepo{users: make(map[uint]*models.User)},
		categories:  &mockCategoryRepo{categories: make(map[uint]*models.Category)},
		courses:     courses,
		enrollments: &mockEnrollmentRepo{},
	}
}

func (m *mockRepository) User() repositories.UserRepository             { return m.users }
func (m *mockRepository) Category() repositories.CategoryRepository     { return m.categories }
func (m *mockRepository) Course() repositories.CourseRepository         { return m.courses }
func (m *mockRepository) Enrollment() repositories.EnrollmentRepository { return m.enrollments }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== USER REPO =====

type mockUserRepo struct {
	mu          sync.Mutex
	users       map[uint]*models.User
	nextID      uint
	lastFilters repositories.UserFilters
}

func (m *mockUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilters = filters

	var result []*models.User
	for _, user := range m.users {
		if len(filters.Roles) > 0 {
			match := false
			for _, role := range filters.Roles {
				if user.Role == role {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		clone := *user
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, tx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, tx *gorm.DB, id uint) error {
	return nil
}

// ===== CATEGORY REPO =====

type mockCategoryRepo struct {
	mu          sync.Mutex
	categories  map[uint]*models.Category
	nextID      uint
	courseCount map[uint]int64
}

func (m *mockCategoryRepo) Create(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	category.ID = m.nextID
	clone := *category
	m.categories[category.ID] = &clone
	return nil
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[id]
	if !ok {
		return nil, repositories.ErrCategoryNotFound
	}
	clone := *category
	return &clone, nil
}

func (m *mockCategoryRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, category := range m.categories {
		if category.Slug == slug {
			clone := *category
			return &clone, nil
		}
	}
	return nil, repositories.ErrCategoryNotFound
}

func (m *mockCategoryRepo) Update(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[category.ID]; !ok {
		return repositories.ErrCategoryNotFound
	}
	clone := *category
	m.categories[category.ID] = &clone
	return nil
}

func (m *mockCategoryRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return repositories.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepo) List(ctx context.Context, tx *gorm.DB) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Category
	for _, category := range m.categories {
		clone := *category
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockCategoryRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Category
	for _, category := range m.categories {
		if !category.IsActive {
			continue
		}
		clone := *category
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockCategoryRepo) CountCourses(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.courseCount[id], nil
}

// ===== COURSE REPO =====

type mockCourseRepo struct {
	mu      sync.Mutex
	courses map[uint]*models.Course
	prereqs map[uint][]uint
	nextID  uint
	stats   *repositories.CourseStatistics
}

func (m *mockCourseRepo) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	course.ID = m.nextID
	clone := *course
	m.courses[course.ID] = &clone
	return nil
}

func (m *mockCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	course, ok := m.courses[id]
	if !ok {
		return nil, repositories.ErrCourseNotFound
	}
	clone := *course
	return &clone, nil
}

func (m *mockCourseRepo) GetByIDWithPrerequisites(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	course, ok := m.courses[id]
	if !ok {
		return nil, repositories.ErrCourseNotFound
	}
	clone := *course
	clone.Prerequisites = nil
	for _, pid := range m.prereqs[id] {
		if p, ok := m.courses[pid]; ok {
			pclone := *p
			clone.Prerequisites = append(clone.Prerequisites, &pclone)
		}
	}
	return &clone, nil
}

func (m *mockCourseRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, course := range m.courses {
		if course.Code == code {
			clone := *course
			return &clone, nil
		}
	}
	return nil, repositories.ErrCourseNotFound
}

func (m *mockCourseRepo) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[course.ID]; !ok {
		return repositories.ErrCourseNotFound
	}
	clone := *course
	m.courses[course.ID] = &clone
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[id]; !ok {
		return repositories.ErrCourseNotFound
	}
	delete(m.courses, id)
	delete(m.prereqs, id)
	return nil
}

func (m *mockCourseRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Course
	for _, course := range m.courses {
		if filters.IsActive != nil && course.IsActive != *filters.IsActive {
			continue
		}
		if filters.Level != nil && course.Level != *filters.Level {
			continue
		}
		clone := *course
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, int64(len(result)), nil
}

func (m *mockCourseRepo) ExistsByCode(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	_, err := m.GetByCode(ctx, tx, code)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (m *mockCourseRepo) ExistAll(ctx context.Context, tx *gorm.DB, ids []uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.courses[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (m *mockCourseRepo) ReplacePrerequisites(ctx context.Context, tx *gorm.DB, courseID uint, prereqIDs []uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint, len(prereqIDs))
	copy(ids, prereqIDs)
	m.prereqs[courseID] = ids
	return nil
}

func (m *mockCourseRepo) LoadPrerequisiteGraph(ctx context.Context, tx *gorm.DB) (*prereq.Graph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := prereq.NewGraph()
	for courseID, ids := range m.prereqs {
		g.SetPrerequisites(courseID, ids)
	}
	return g, nil
}

func (m *mockCourseRepo) GetStatistics(ctx context.Context, tx *gorm.DB) (*repositories.CourseStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stats != nil {
		return m.stats, nil
	}
	return &repositories.CourseStatistics{TotalCourses: int64(len(m.courses))}, nil
}

// ===== ENROLLMENT REPO =====

type mockEnrollmentRepo struct {
	counts      map[uint]int64
	enrollments []*models.Enrollment
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	return nil
}

func (m *mockEnrollmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	return nil, repositories.ErrEnrollmentNotFound
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	return nil
}

func (m *mockEnrollmentRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	var matched []*models.Enrollment
	for _, e := range m.enrollments {
		if filters.CourseID != nil && e.CourseID != *filters.CourseID {
			continue
		}
		if filters.StudentID != nil && e.StudentID != *filters.StudentID {
			continue
		}
		if filters.Status != nil && e.Status != *filters.Status {
			continue
		}
		clone := *e
		matched = append(matched, &clone)
	}
	return matched, int64(len(matched)), nil
}

func (m *mockEnrollmentRepo) CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	return m.counts[courseID], nil
}

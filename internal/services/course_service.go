package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/ITA-F-2025/institute-service/internal/auth"
	"github.com/ITA-F-2025/institute-service/internal/cache"
	"github.com/ITA-F-2025/institute-service/internal/events"
	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/prereq"
	"github.com/ITA-F-2025/institute-service/internal/repositories"
	"github.com/ITA-F-2025/institute-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	cache     *cache.CacheManager

	// prereqLocks serializes prerequisite mutations per course so two
	// concurrent edits cannot both pass cycle validation and then commit
	// a cycle together.
	prereqLocks sync.Map // map[uint]*sync.Mutex
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, cacheManager *cache.CacheManager) CourseService {
	return &courseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		cache:     cacheManager,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, actor *models.User, req *CreateCourseRequest) (*CourseResponse, error) {
	s.logger.Info("creating course", "actor_id", actorID(actor), "code", req.Code)

	if errs := s.validator.GetBusinessValidator().ValidateCourseCreate(req); len(errs) > 0 {
		return nil, errs
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionCourseCreate, auth.Resource{Kind: "course"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), 0, "course", "create", decision.Reason)
	}

	if _, err := s.repo.Category().GetByID(ctx, nil, req.CategoryID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to check category: %w", err)
	}

	exists, err := s.repo.Course().ExistsByCode(ctx, nil, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check course code: %w", err)
	}
	if exists {
		return nil, ErrCourseCodeTaken
	}

	maxStudents := req.MaxStudents
	if maxStudents == 0 {
		maxStudents = 30
	}

	course := &models.Course{
		Code:          req.Code,
		Title:         req.Title,
		Description:   req.Description,
		Level:         req.Level,
		CategoryID:    req.CategoryID,
		Price:         req.Price,
		DurationWeeks: req.DurationWeeks,
		MaxStudents:   maxStudents,
		IsActive:      true,
		Syllabus:      req.Syllabus,
		CreatedBy:     actorID(actor),
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Course().Create(ctx, nil, course); err != nil {
			return err
		}

		if len(req.Prerequisites) > 0 {
			if err := s.validateAndReplacePrereqs(ctx, txRepo, course.ID, req.Prerequisites); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicCourseCreated, CourseEventPayload{
		CourseID: course.ID,
		Code:     course.Code,
		ActorID:  actorID(actor),
	})

	s.logger.Info("course created", "course_id", course.ID, "code", course.Code)
	return s.buildResponse(ctx, course.ID)
}

func (s *courseService) GetByID(ctx context.Context, actor *models.User, id uint) (*CourseResponse, error) {
	decision := auth.Authorize(principalOf(actor), auth.ActionCourseRead, auth.Resource{Kind: "course"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), id, "course", "read", decision.Reason)
	}

	return s.buildResponse(ctx, id)
}

func (s *courseService) Update(ctx context.Context, actor *models.User, id uint, req *UpdateCourseRequest) (*CourseResponse, error) {
	s.logger.Info("updating course", "actor_id", actorID(actor), "course_id", id)

	if errs := s.validator.GetBusinessValidator().ValidateCourseUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionCourseUpdate, auth.Resource{Kind: "course"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), id, "course", "update", decision.Reason)
	}

	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil && *req.Code != course.Code {
		exists, err := s.repo.Course().ExistsByCode(ctx, nil, *req.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to check course code: %w", err)
		}
		if exists {
			return nil, ErrCourseCodeTaken
		}
		course.Code = *req.Code
	}
	if req.CategoryID != nil && *req.CategoryID != course.CategoryID {
		if _, err := s.repo.Category().GetByID(ctx, nil, *req.CategoryID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to check category: %w", err)
		}
		course.CategoryID = *req.CategoryID
	}
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.DurationWeeks != nil {
		course.DurationWeeks = *req.DurationWeeks
	}
	if req.MaxStudents != nil {
		course.MaxStudents = *req.MaxStudents
	}
	if req.Syllabus != nil {
		course.Syllabus = req.Syllabus
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, err
	}

	return s.buildResponse(ctx, id)
}

func (s *courseService) Delete(ctx context.Context, actor *models.User, id uint) error {
	s.logger.Info("deleting course", "actor_id", actorID(actor), "course_id", id)

	decision := auth.Authorize(principalOf(actor), auth.ActionCourseDelete, auth.Resource{Kind: "course"})
	if !decision.Allowed {
		return NewPermissionError(actorID(actor), id, "course", "delete", decision.Reason)
	}

	unlock := s.lockCourse(id)
	defer unlock()

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Course().Delete(ctx, nil, id)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return err
	}
	return nil
}

func (s *courseService) List(ctx context.Context, actor *models.User, filters repositories.CourseFilters) (*CourseListResponse, error) {
	decision := auth.Authorize(principalOf(actor), auth.ActionCourseRead, auth.Resource{Kind: "course"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), 0, "course", "list", decision.Reason)
	}

	return s.list(ctx, filters)
}

// ===== PREREQUISITE MANAGEMENT =====

func (s *courseService) UpdatePrerequisites(ctx context.Context, actor *models.User, id uint, req *UpdatePrerequisitesRequest) (*CourseResponse, error) {
	s.logger.Info("updating prerequisites", "actor_id", actorID(actor), "course_id", id, "prerequisites", req.Prerequisites)

	if errs := s.validator.GetBusinessValidator().ValidatePrerequisites(req); len(errs) > 0 {
		return nil, errs
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionPrereqModify, auth.Resource{Kind: "course"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), id, "course", "modify_prerequisites", decision.Reason)
	}

	unlock := s.lockCourse(id)
	defer unlock()

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if _, err := txRepo.Course().GetByID(ctx, nil, id); err != nil {
			return err
		}
		return s.validateAndReplacePrereqs(ctx, txRepo, id, req.Prerequisites)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	s.publishEvent(ctx, events.TopicCoursePrereqsChanged, PrereqsChangedPayload{
		CourseID:      id,
		Prerequisites: req.Prerequisites,
		ActorID:       actorID(actor),
	})

	return s.buildResponse(ctx, id)
}

func (s *courseService) UpdatePrerequisitesBatch(ctx context.Context, actor *models.User, req *BatchPrerequisitesRequest) error {
	s.logger.Info("updating prerequisites batch", "actor_id", actorID(actor), "items", len(req.Items))

	if errs := s.validator.GetBusinessValidator().ValidatePrerequisitesBatch(req); len(errs) > 0 {
		return errs
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionPrereqModify, auth.Resource{Kind: "course"})
	if !decision.Allowed {
		return NewPermissionError(actorID(actor), 0, "course", "modify_prerequisites", decision.Reason)
	}

	// Lock all affected courses in ascending ID order to avoid deadlock
	// with concurrent batches. The IDs must be unique before locking: the
	// per-course mutex is not reentrant, so locking the same course twice
	// would hang this goroutine. Validation already rejects duplicate
	// course IDs; the set keeps the lock path safe regardless.
	seen := make(map[uint]bool, len(req.Items))
	ids := make([]uint, 0, len(req.Items))
	for _, item := range req.Items {
		if seen[item.CourseID] {
			continue
		}
		seen[item.CourseID] = true
		ids = append(ids, item.CourseID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		unlock := s.lockCourse(id)
		defer unlock()
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		graph, err := txRepo.Course().LoadPrerequisiteGraph(ctx, nil)
		if err != nil {
			return err
		}

		// Validate cumulatively: each item sees the batch items before it
		// already applied, so cycles assembled inside the batch fail too.
		assignments := make([]prereq.Assignment, len(req.Items))
		allIDs := make(map[uint]bool)
		for i, item := range req.Items {
			assignments[i] = prereq.Assignment{CourseID: item.CourseID, Prerequisites: item.Prerequisites}
			allIDs[item.CourseID] = true
			for _, p := range item.Prerequisites {
				allIDs[p] = true
			}
		}

		idList := make([]uint, 0, len(allIDs))
		for id := range allIDs {
			idList = append(idList, id)
		}
		ok, err := txRepo.Course().ExistAll(ctx, nil, idList)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCourseNotFound
		}

		if err := graph.ValidateBatch(assignments); err != nil {
			return err
		}

		for _, item := range req.Items {
			if err := txRepo.Course().ReplacePrerequisites(ctx, nil, item.CourseID, item.Prerequisites); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, item := range req.Items {
		s.publishEvent(ctx, events.TopicCoursePrereqsChanged, PrereqsChangedPayload{
			CourseID:      item.CourseID,
			Prerequisites: item.Prerequisites,
			ActorID:       actorID(actor),
		})
	}
	return nil
}

// validateAndReplacePrereqs runs graph validation against the current edge
// set and persists the replacement inside the caller's transaction.
func (s *courseService) validateAndReplacePrereqs(ctx context.Context, txRepo repositories.Repository, courseID uint, prereqIDs []uint) error {
	if len(prereqIDs) > 0 {
		ok, err := txRepo.Course().ExistAll(ctx, nil, prereqIDs)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCourseNotFound
		}
	}

	graph, err := txRepo.Course().LoadPrerequisiteGraph(ctx, nil)
	if err != nil {
		return err
	}

	if err := graph.Validate(courseID, prereqIDs); err != nil {
		return err
	}

	return txRepo.Course().ReplacePrerequisites(ctx, nil, courseID, prereqIDs)
}

// lockCourse acquires the per-course prerequisite mutex and returns its
// release func.
func (s *courseService) lockCourse(id uint) func() {
	v, _ := s.prereqLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ===== STATUS AND STATISTICS =====

func (s *courseService) ToggleActive(ctx context.Context, actor *models.User, id uint) (*CourseResponse, error) {
	s.logger.Info("toggling course active state", "actor_id", actorID(actor), "course_id", id)

	decision := auth.Authorize(principalOf(actor), auth.ActionCourseToggleActive, auth.Resource{Kind: "course"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), id, "course", "toggle_active", decision.Reason)
	}

	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	course.IsActive = !course.IsActive
	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, err
	}

	return s.buildResponse(ctx, id)
}

func (s *courseService) GetStatistics(ctx context.Context, actor *models.User) (*repositories.CourseStatistics, error) {
	decision := auth.Authorize(principalOf(actor), auth.ActionCourseStats, auth.Resource{Kind: "course"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), 0, "course", "statistics", decision.Reason)
	}

	// Statistics are expensive aggregates; serve from the stats cache
	// when available.
	if s.cache != nil {
		var stats repositories.CourseStatistics
		err := s.cache.Stats.CacheOrExecute(ctx, "courses:summary", &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
			return s.repo.Course().GetStatistics(ctx, nil)
		})
		if err == nil {
			return &stats, nil
		}
		s.logger.Warn("stats cache path failed, querying directly", "error", err)
	}

	return s.repo.Course().GetStatistics(ctx, nil)
}

// GetEnrollments returns the enrollment roll-up for one course, with
// per-status counts.
func (s *courseService) GetEnrollments(ctx context.Context, actor *models.User, id uint) (*CourseEnrollmentsResponse, error) {
	decision := auth.Authorize(principalOf(actor), auth.ActionCourseRead, auth.Resource{Kind: "course"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), id, "course", "enrollments", decision.Reason)
	}

	if _, err := s.getCourse(ctx, id); err != nil {
		return nil, err
	}

	enrollments, total, err := s.repo.Enrollment().List(ctx, nil, repositories.EnrollmentFilters{CourseID: &id})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	resp := &CourseEnrollmentsResponse{
		CourseID:    id,
		Total:       total,
		Enrollments: enrollments,
	}
	for _, e := range enrollments {
		switch e.Status {
		case models.EnrollmentInProgress:
			resp.InProgress++
		case models.EnrollmentCompleted:
			resp.Completed++
		case models.EnrollmentCancelled:
			resp.Cancelled++
		}
	}
	return resp, nil
}

// ===== PUBLIC CATALOG =====

func (s *courseService) PublicList(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error) {
	decision := auth.Authorize(auth.Anonymous, auth.ActionCatalogRead, auth.Resource{Kind: "course", Public: true})
	if !decision.Allowed {
		return nil, NewPermissionError(0, 0, "course", "catalog", decision.Reason)
	}

	// The public catalog only ever exposes active courses.
	active := true
	filters.IsActive = &active

	return s.list(ctx, filters)
}

func (s *courseService) PublicGet(ctx context.Context, id uint) (*CourseResponse, error) {
	decision := auth.Authorize(auth.Anonymous, auth.ActionCatalogRead, auth.Resource{Kind: "course", Public: true})
	if !decision.Allowed {
		return nil, NewPermissionError(0, 0, "course", "catalog", decision.Reason)
	}

	resp, err := s.buildResponse(ctx, id)
	if err != nil {
		return nil, err
	}
	if !resp.Course.IsActive {
		return nil, ErrCourseNotFound
	}
	return resp, nil
}

// ===== HELPERS =====

func (s *courseService) list(ctx context.Context, filters repositories.CourseFilters) (*CourseListResponse, error) {
	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	responses := make([]*CourseResponse, len(courses))
	for i, c := range courses {
		responses[i] = &CourseResponse{Course: c, PrerequisiteIDs: c.PrerequisiteIDs()}
	}

	return &CourseListResponse{
		Courses: responses,
		Total:   total,
		Page:    pageOf(filters.Offset, filters.Limit),
		Size:    filters.Limit,
	}, nil
}

func (s *courseService) getCourse(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *courseService) buildResponse(ctx context.Context, id uint) (*CourseResponse, error) {
	course, err := s.repo.Course().GetByIDWithPrerequisites(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	enrollments, err := s.repo.Enrollment().CountByCourse(ctx, nil, id)
	if err != nil {
		s.logger.Warn("failed to count enrollments", "course_id", id, "error", err)
	}

	return &CourseResponse{
		Course:          course,
		PrerequisiteIDs: course.PrerequisiteIDs(),
		Enrollments:     enrollments,
	}, nil
}

func (s *courseService) publishEvent(ctx context.Context, topic string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(topic, payload)); err != nil {
		s.logger.Error("failed to publish event", "topic", topic, "error", err)
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/ITA-F-2025/institute-service/internal/auth"
	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/repositories"
	"github.com/ITA-F-2025/institute-service/internal/validator"
)

type categoryService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCategoryService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) CategoryService {
	return &categoryService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *categoryService) Create(ctx context.Context, actor *models.User, req *CreateCategoryRequest) (*models.Category, error) {
	s.logger.Info("creating category", "actor_id", actorID(actor), "name", req.Name)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionCategoryManage, auth.Resource{Kind: "category"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), 0, "category", "create", decision.Reason)
	}

	category := &models.Category{
		Name:        req.Name,
		Slug:        slugify(req.Name),
		Description: req.Description,
		IsActive:    true,
	}

	if err := s.repo.Category().Create(ctx, nil, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *categoryService) GetByID(ctx context.Context, actor *models.User, id uint) (*models.Category, error) {
	decision := auth.Authorize(principalOf(actor), auth.ActionCategoryRead, auth.Resource{Kind: "category"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), id, "category", "read", decision.Reason)
	}

	category, err := s.repo.Category().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, actor *models.User, id uint, req *UpdateCategoryRequest) (*models.Category, error) {
	s.logger.Info("updating category", "actor_id", actorID(actor), "category_id", id)

	if errs := s.validator.GetBusinessValidator().Validate(req); len(errs) > 0 {
		return nil, errs
	}

	decision := auth.Authorize(principalOf(actor), auth.ActionCategoryManage, auth.Resource{Kind: "category"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), id, "category", "update", decision.Reason)
	}

	category, err := s.repo.Category().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	if req.Name != nil {
		category.Name = *req.Name
		category.Slug = slugify(*req.Name)
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.repo.Category().Update(ctx, nil, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, actor *models.User, id uint) error {
	s.logger.Info("deleting category", "actor_id", actorID(actor), "category_id", id)

	decision := auth.Authorize(principalOf(actor), auth.ActionCategoryManage, auth.Resource{Kind: "category"})
	if !decision.Allowed {
		return NewPermissionError(actorID(actor), id, "category", "delete", decision.Reason)
	}

	count, err := s.repo.Category().CountCourses(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to count category courses: %w", err)
	}
	if count > 0 {
		return ErrCategoryNotEmpty
	}

	if err := s.repo.Category().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func (s *categoryService) List(ctx context.Context, actor *models.User) ([]*models.Category, error) {
	decision := auth.Authorize(principalOf(actor), auth.ActionCategoryRead, auth.Resource{Kind: "category"})
	if !decision.Allowed {
		return nil, NewPermissionError(actorID(actor), 0, "category", "list", decision.Reason)
	}

	return s.repo.Category().List(ctx, nil)
}

// PublicList serves the anonymous catalog and only exposes active
// categories.
func (s *categoryService) PublicList(ctx context.Context) ([]*models.Category, error) {
	decision := auth.Authorize(auth.Anonymous, auth.ActionCatalogRead, auth.Resource{Kind: "category", Public: true})
	if !decision.Allowed {
		return nil, NewPermissionError(0, 0, "category", "catalog", decision.Reason)
	}

	return s.repo.Category().ListActive(ctx, nil)
}

var slugCleanup = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugCleanup.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

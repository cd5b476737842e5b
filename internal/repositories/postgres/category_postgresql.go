package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ITA-F-2025/institute-service/internal/cache"
	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/repositories"
)

type CategoryPostgreSQL struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

func NewCategoryPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CategoryRepository {
	return &CategoryPostgreSQL{db: db, cache: cacheManager}
}

func (r *CategoryPostgreSQL) dbOrTx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *CategoryPostgreSQL) Create(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	if err := r.dbOrTx(tx).WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	r.invalidateList(ctx)
	return nil
}

func (r *CategoryPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Category, error) {
	var category models.Category
	err := r.dbOrTx(tx).WithContext(ctx).First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (r *CategoryPostgreSQL) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Category, error) {
	var category models.Category
	err := r.dbOrTx(tx).WithContext(ctx).Where("slug = ?", slug).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}
	return &category, nil
}

func (r *CategoryPostgreSQL) Update(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	if err := r.dbOrTx(tx).WithContext(ctx).Save(category).Error; err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	r.invalidateList(ctx)
	return nil
}

func (r *CategoryPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := r.dbOrTx(tx).WithContext(ctx).Delete(&models.Category{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrCategoryNotFound
	}
	r.invalidateList(ctx)
	return nil
}

func (r *CategoryPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Category, error) {
	// Category list is small and read often; serve from cache outside
	// transactions.
	if tx == nil && r.cache != nil {
		var cached []*models.Category
		if err := r.cache.Category.Get(ctx, "list", &cached); err == nil {
			return cached, nil
		}
	}

	var categories []*models.Category
	err := r.dbOrTx(tx).WithContext(ctx).Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	if tx == nil && r.cache != nil {
		_ = r.cache.Category.Set(ctx, "list", categories, cache.CategoryCacheConfig.TTL)
	}

	return categories, nil
}

func (r *CategoryPostgreSQL) ListActive(ctx context.Context, tx *gorm.DB) ([]*models.Category, error) {
	if tx == nil && r.cache != nil {
		var cached []*models.Category
		if err := r.cache.Category.Get(ctx, "list:active", &cached); err == nil {
			return cached, nil
		}
	}

	var categories []*models.Category
	err := r.dbOrTx(tx).WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active categories: %w", err)
	}

	if tx == nil && r.cache != nil {
		_ = r.cache.Category.Set(ctx, "list:active", categories, cache.CategoryCacheConfig.TTL)
	}

	return categories, nil
}

func (r *CategoryPostgreSQL) CountCourses(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	var count int64
	err := r.dbOrTx(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("category_id = ?", id).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count category courses: %w", err)
	}
	return count, nil
}

func (r *CategoryPostgreSQL) invalidateList(ctx context.Context) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Category.Delete(ctx, "list")
	_ = r.cache.Category.Delete(ctx, "list:active")
}

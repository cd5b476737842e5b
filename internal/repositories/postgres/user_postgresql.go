package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ITA-F-2025/institute-service/internal/cache"
	"github.com/ITA-F-2025/institute-service/internal/models"
	"github.com/ITA-F-2025/institute-service/internal/repositories"
)

// UserPostgreSQL implements UserRepository backed by postgres with a
// cache-aside layer for lookups by id.
type UserPostgreSQL struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.UserRepository {
	return &UserPostgreSQL{db: db, cache: cacheManager}
}

func (r *UserPostgreSQL) dbOrTx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := r.dbOrTx(tx).WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	// Bypass cache inside transactions to avoid stale reads
	if tx == nil && r.cache != nil {
		var cached models.User
		key := fmt.Sprintf("id:%d", id)
		if err := r.cache.User.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	var user models.User
	err := r.dbOrTx(tx).WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if tx == nil && r.cache != nil {
		key := fmt.Sprintf("id:%d", id)
		_ = r.cache.User.Set(ctx, key, &user, 5*time.Minute)
	}

	return &user, nil
}

func (r *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := r.dbOrTx(tx).WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *UserPostgreSQL) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	result := r.dbOrTx(tx).WithContext(ctx).Save(user)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}

	r.invalidate(ctx, user.ID)
	return nil
}

func (r *UserPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := r.dbOrTx(tx).WithContext(ctx).Delete(&models.User{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrUserNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := r.dbOrTx(tx).WithContext(ctx).Model(&models.User{})
	query = applyUserFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var users []*models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

func (r *UserPostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var count int64
	err := r.dbOrTx(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user email: %w", err)
	}
	return count > 0, nil
}

func (r *UserPostgreSQL) UpdateLastLogin(ctx context.Context, tx *gorm.DB, id uint) error {
	now := time.Now()
	err := r.dbOrTx(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", now).Error
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *UserPostgreSQL) invalidate(ctx context.Context, id uint) {
	if r.cache == nil {
		return
	}
	_ = r.cache.User.Delete(ctx, fmt.Sprintf("id:%d", id))
}

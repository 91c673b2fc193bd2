// Package permission provides CRUD operations for permissions.
package permission

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sg-semilla/semilla-auth/internal/apperr"
	"github.com/sg-semilla/semilla-auth/internal/cache"
	"github.com/sg-semilla/semilla-auth/internal/db/models"
	"github.com/sg-semilla/semilla-auth/internal/metrics"
)

var (
	// ErrPermissionNotFound is returned when no permission matches the lookup.
	ErrPermissionNotFound = apperr.New(apperr.KindNotFound, "permission not found")
	// ErrCodeTaken is returned when another permission already has the code.
	ErrCodeTaken = apperr.New(apperr.KindValidation, "permission code is already in use")
)

// Store reads and writes permissions.
type Store struct {
	db    *gorm.DB
	cache cache.PermissionCache
}

// New creates a Store on db. A nil cache disables invalidation.
func New(db *gorm.DB, c cache.PermissionCache) *Store {
	if db == nil {
		panic("permission store: db is nil")
	}

	if c == nil {
		c = cache.Nop{}
	}

	return &Store{db: db, cache: c}
}

// List returns all permissions ordered by category and code.
func (s *Store) List(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission

	if err := s.db.WithContext(ctx).Order("category, code").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}

	return perms, nil
}

// FindByID returns the permission with the given id.
func (s *Store) FindByID(ctx context.Context, id string) (*models.Permission, error) {
	return s.findOne(ctx, "id = ?", id)
}

// FindByCode returns the permission with the given code.
func (s *Store) FindByCode(ctx context.Context, code string) (*models.Permission, error) {
	return s.findOne(ctx, "code = ?", code)
}

func (s *Store) findOne(ctx context.Context, query string, arg any) (*models.Permission, error) {
	var perm models.Permission

	if err := s.db.WithContext(ctx).Where(query, arg).First(&perm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}

		return nil, fmt.Errorf("failed to query permission: %w", err)
	}

	return &perm, nil
}

// Create inserts a permission with a unique code.
func (s *Store) Create(ctx context.Context, perm *models.Permission) error {
	if err := s.checkCode(ctx, perm); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(perm).Error; err != nil {
		return fmt.Errorf("failed to create permission: %w", err)
	}

	return nil
}

// Update writes all fields of perm. Granted codes may change, so the whole cache is dropped.
func (s *Store) Update(ctx context.Context, perm *models.Permission) error {
	if err := s.checkCode(ctx, perm); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Save(perm).Error; err != nil {
		return fmt.Errorf("failed to update permission: %w", err)
	}

	s.invalidateAll(ctx)

	return nil
}

// Delete removes a permission and all its grants.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("permission_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to delete permission grants: %w", err)
		}

		res := tx.Delete(&models.Permission{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete permission: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return ErrPermissionNotFound
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateAll(ctx)

	return nil
}

// invalidateAll runs after the change is committed. Stale entries expire with the cache TTL.
func (s *Store) invalidateAll(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		metrics.PermissionCacheTotal.WithLabelValues("invalidate_error").Inc()
		log.Error().Err(err).Msg("permission cache invalidation failed, entries kept until ttl")
	}
}

func (s *Store) checkCode(ctx context.Context, perm *models.Permission) error {
	var count int64

	err := s.db.WithContext(ctx).Model(&models.Permission{}).
		Where("code = ? AND id <> ?", perm.Code, perm.ID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check permission code: %w", err)
	}

	if count > 0 {
		return ErrCodeTaken
	}

	return nil
}

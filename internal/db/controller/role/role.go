// Package role provides role CRUD and the role to permission codes catalog.
package role

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
	// ErrRoleNotFound is returned when no role matches the lookup.
	ErrRoleNotFound = apperr.New(apperr.KindNotFound, "role not found")
	// ErrRoleNameTaken is returned when another role already has the name.
	ErrRoleNameTaken = apperr.New(apperr.KindValidation, "role name is already in use")
	// ErrRoleInUse is returned when deleting a role that is still assigned to users.
	ErrRoleInUse = apperr.New(apperr.KindValidation, "role is still assigned to users")
	// ErrUnknownPermission is returned when a grant references a missing permission.
	ErrUnknownPermission = apperr.New(apperr.KindValidation, "unknown permission id")
)

// Store reads and writes roles and their grants.
type Store struct {
	db    *gorm.DB
	cache cache.PermissionCache
}

// New creates a Store on db. A nil cache disables caching.
func New(db *gorm.DB, c cache.PermissionCache) *Store {
	if db == nil {
		panic("role store: db is nil")
	}

	if c == nil {
		c = cache.Nop{}
	}

	return &Store{db: db, cache: c}
}

// List returns all roles ordered by id.
func (s *Store) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role

	if err := s.db.WithContext(ctx).Order("id").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}

// FindByID returns the role with the given id.
func (s *Store) FindByID(ctx context.Context, id uint) (*models.Role, error) {
	return s.findOne(ctx, "id = ?", id)
}

// FindByName returns the role with the given name.
func (s *Store) FindByName(ctx context.Context, name string) (*models.Role, error) {
	return s.findOne(ctx, "name = ?", name)
}

func (s *Store) findOne(ctx context.Context, query string, arg any) (*models.Role, error) {
	var role models.Role

	if err := s.db.WithContext(ctx).Where(query, arg).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}

		return nil, fmt.Errorf("failed to query role: %w", err)
	}

	return &role, nil
}

// Permissions returns the permissions granted to a role ordered by code.
func (s *Store) Permissions(ctx context.Context, roleID uint) ([]models.Permission, error) {
	var perms []models.Permission

	err := s.db.WithContext(ctx).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Order("permissions.code").
		Find(&perms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query role permissions: %w", err)
	}

	return perms, nil
}

// PermissionCodes returns the codes currently granted to a role, served from
// the cache when possible. Cache failures fall back to the database.
func (s *Store) PermissionCodes(ctx context.Context, roleID uint) ([]string, error) {
	codes, ok, err := s.cache.Get(ctx, roleID)

	switch {
	case err != nil:
		metrics.PermissionCacheTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Uint("role_id", roleID).Msg("permission cache read failed")
	case ok:
		metrics.PermissionCacheTotal.WithLabelValues("hit").Inc()
		return codes, nil
	default:
		metrics.PermissionCacheTotal.WithLabelValues("miss").Inc()
	}

	codes = []string{}

	err = s.db.WithContext(ctx).Model(&models.Permission{}).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Order("permissions.code").
		Pluck("permissions.code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query role permission codes: %w", err)
	}

	if errSet := s.cache.Set(ctx, roleID, codes); errSet != nil {
		log.Warn().Err(errSet).Uint("role_id", roleID).Msg("permission cache write failed")
	}

	return codes, nil
}

// Create inserts a role granting permissionIDs.
func (s *Store) Create(ctx context.Context, role *models.Role, permissionIDs []string) error {
	if err := s.checkName(ctx, role); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}

		return replaceGrants(tx, role.ID, permissionIDs)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, role.ID)

	return nil
}

// Update writes all fields of role. A nil permissionIDs keeps the current
// grants, any other value replaces them.
func (s *Store) Update(ctx context.Context, role *models.Role, permissionIDs []string) error {
	if err := s.checkName(ctx, role); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(role).Error; err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		if permissionIDs == nil {
			return nil
		}

		return replaceGrants(tx, role.ID, permissionIDs)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, role.ID)

	return nil
}

// Delete removes a role that is not assigned to any user.
func (s *Store) Delete(ctx context.Context, id uint) error {
	var users int64

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role_id = ?", id).Count(&users).Error; err != nil {
		return fmt.Errorf("failed to count role users: %w", err)
	}

	if users > 0 {
		return ErrRoleInUse
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to delete role grants: %w", err)
		}

		res := tx.Delete(&models.Role{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete role: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return ErrRoleNotFound
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)

	return nil
}

// invalidate runs after the change is committed, so a failure can't undo it.
// Stale entries expire with the cache TTL.
func (s *Store) invalidate(ctx context.Context, roleID uint) {
	if err := s.cache.Invalidate(ctx, roleID); err != nil {
		metrics.PermissionCacheTotal.WithLabelValues("invalidate_error").Inc()
		log.Error().Err(err).Uint("role_id", roleID).Msg("permission cache invalidation failed, entry kept until ttl")
	}
}

func (s *Store) checkName(ctx context.Context, role *models.Role) error {
	var count int64

	err := s.db.WithContext(ctx).Model(&models.Role{}).
		Where("name = ? AND id <> ?", role.Name, role.ID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check role name: %w", err)
	}

	if count > 0 {
		return ErrRoleNameTaken
	}

	return nil
}

// replaceGrants sets the grants of roleID to exactly permissionIDs.
func replaceGrants(tx *gorm.DB, roleID uint, permissionIDs []string) error {
	if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
		return fmt.Errorf("failed to clear role grants: %w", err)
	}

	if len(permissionIDs) == 0 {
		return nil
	}

	unique := make(map[string]struct{}, len(permissionIDs))
	grants := make([]models.RolePermission, 0, len(permissionIDs))

	for _, id := range permissionIDs {
		if _, seen := unique[id]; seen {
			continue
		}

		unique[id] = struct{}{}
		grants = append(grants, models.RolePermission{RoleID: roleID, PermissionID: id})
	}

	var found int64

	if err := tx.Model(&models.Permission{}).Where("id IN ?", permissionIDs).Count(&found).Error; err != nil {
		return fmt.Errorf("failed to check permissions: %w", err)
	}

	if int(found) != len(grants) {
		return ErrUnknownPermission
	}

	if err := tx.Omit("Role", "Permission").Create(&grants).Error; err != nil {
		return fmt.Errorf("failed to grant permissions: %w", err)
	}

	return nil
}

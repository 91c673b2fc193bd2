package daemon

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sg-semilla/semilla-auth/internal/auth"
	"github.com/sg-semilla/semilla-auth/internal/config"
	"github.com/sg-semilla/semilla-auth/internal/db/models"
)

const (
	// RoleAdministrator holds every built-in permission.
	RoleAdministrator = "Administrator"
	// RoleUser holds every built-in permission except deletes.
	RoleUser = "User"
	// RoleGuest holds the read permissions.
	RoleGuest = "Guest"
)

type seedRole struct {
	name        string
	description string
	grants      func(code string) bool
}

type seedUser struct {
	username       string
	email          string
	documentNumber string
	password       string
	role           string
}

func seedRoles() []seedRole {
	return []seedRole{
		{RoleAdministrator, "Full access", func(string) bool { return true }},
		{RoleUser, "Standard user", func(code string) bool { return !strings.HasSuffix(code, ".delete") }},
		{RoleGuest, "Read only access", func(code string) bool { return strings.HasSuffix(code, ".read") }},
	}
}

func seedUsers(cfg *config.Seed) []seedUser {
	return []seedUser{
		{"admin", "admin@example.com", "00000000", cfg.AdminPassword, RoleAdministrator},
		{"user", "user@example.com", "11111111", cfg.UserPassword, RoleUser},
	}
}

// seed creates the built-in permissions, roles and users that are missing.
// Existing rows, including grants of existing roles, are left untouched.
func seed(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms, err := seedPermissions(tx)
		if err != nil {
			return err
		}

		roleIDs := make(map[string]uint)

		for _, sr := range seedRoles() {
			id, errRole := createSeedRole(tx, sr, perms)
			if errRole != nil {
				return errRole
			}

			roleIDs[sr.name] = id
		}

		for _, su := range seedUsers(&cfg.Seed) {
			if errUser := seedOneUser(tx, su, roleIDs[su.role]); errUser != nil {
				return errUser
			}
		}

		return nil
	})
}

// seedPermissions returns the ids of all built-in permissions by code.
func seedPermissions(tx *gorm.DB) (map[string]string, error) {
	defs := auth.BuiltinPermissions()
	ids := make(map[string]string, len(defs))

	for _, def := range defs {
		perm := models.Permission{}

		err := tx.Where(models.Permission{Code: def.Code}).
			Attrs(models.Permission{Name: def.Name, Description: def.Description, Category: def.Category}).
			FirstOrCreate(&perm).Error
		if err != nil {
			return nil, fmt.Errorf("failed to seed permission %s: %w", def.Code, err)
		}

		ids[def.Code] = perm.ID
	}

	return ids, nil
}

func createSeedRole(tx *gorm.DB, sr seedRole, perms map[string]string) (uint, error) {
	r := models.Role{}

	if err := tx.Where("name = ?", sr.name).Limit(1).Find(&r).Error; err != nil {
		return 0, fmt.Errorf("failed to check seed role %s: %w", sr.name, err)
	}

	// grants of an existing role belong to its operators
	if r.ID != 0 {
		return r.ID, nil
	}

	r = models.Role{Name: sr.name, Description: sr.description, Active: true}

	if err := tx.Create(&r).Error; err != nil {
		return 0, fmt.Errorf("failed to seed role %s: %w", sr.name, err)
	}

	grants := make([]models.RolePermission, 0, len(perms))

	for _, def := range auth.BuiltinPermissions() {
		if sr.grants(def.Code) {
			grants = append(grants, models.RolePermission{RoleID: r.ID, PermissionID: perms[def.Code]})
		}
	}

	if len(grants) == 0 {
		return r.ID, nil
	}

	if err := tx.Omit("Role", "Permission").Create(&grants).Error; err != nil {
		return 0, fmt.Errorf("failed to seed grants of role %s: %w", sr.name, err)
	}

	log.Info().Str("role", sr.name).Int("permissions", len(grants)).Msg("seeded role")

	return r.ID, nil
}

func seedOneUser(tx *gorm.DB, su seedUser, roleID uint) error {
	var count int64

	if err := tx.Model(&models.User{}).Where("username = ?", su.username).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check seed user %s: %w", su.username, err)
	}

	if count > 0 {
		return nil
	}

	hash, salt, err := auth.HashPassword(su.password)
	if err != nil {
		return err
	}

	u := models.User{
		Username:       su.username,
		Email:          su.email,
		DocumentNumber: su.documentNumber,
		PasswordHash:   hash,
		Salt:           salt,
		Active:         true,
		RoleID:         roleID,
	}

	if err = tx.Omit("Role").Create(&u).Error; err != nil {
		return fmt.Errorf("failed to seed user %s: %w", su.username, err)
	}

	log.Info().Str("username", su.username).Msg("seeded user")

	return nil
}

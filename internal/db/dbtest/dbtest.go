// Package dbtest provides in-memory sqlite databases for tests.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sg-semilla/semilla-auth/internal/db/engine"
	"github.com/sg-semilla/semilla-auth/internal/db/models"
)

// Open returns a migrated in-memory sqlite database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)

	// every sqlite :memory: connection is its own database
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, engine.Migrate(db), "failed to migrate test database")

	return db
}

// Role creates a role granting the given permission codes, creating missing permissions.
func Role(t *testing.T, db *gorm.DB, name string, codes ...string) *models.Role {
	t.Helper()

	role := &models.Role{Name: name, Description: name, Active: true}
	require.NoError(t, db.Create(role).Error)

	for _, code := range codes {
		perm := models.Permission{Code: code}
		require.NoError(t, db.Where(models.Permission{Code: code}).
			Attrs(models.Permission{Name: code, Category: "Test"}).
			FirstOrCreate(&perm).Error)

		require.NoError(t, db.Create(&models.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error)
	}

	return role
}

package models

import "time"

// Role groups the permissions granted to its users.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique name of the role (e.g., "Administrator", "User").
	Name string `gorm:"uniqueIndex;size:50;not null"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:200"`
	// Active indicates whether the role can be assigned.
	Active bool `gorm:"column:is_active;not null"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}

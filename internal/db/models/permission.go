package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Permission is a single grantable right identified by its code, e.g. "users.read".
type Permission struct {
	// ID is the unique identifier (UUID).
	ID string `gorm:"primaryKey;size:36"`
	// Code is the unique permission code carried in tokens.
	Code string `gorm:"uniqueIndex;size:50;not null"`
	// Name is the display name.
	Name string `gorm:"size:50;not null"`
	// Description explains what the permission grants.
	Description string `gorm:"size:200"`
	// Category groups permissions for display (e.g., "Users").
	Category string `gorm:"size:50"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}

// BeforeCreate assigns a UUID to new permissions without an ID.
func (p *Permission) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	return nil
}

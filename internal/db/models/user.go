package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an identity that can log in.
// Local users verify against PasswordHash, LDAP-backed users against the directory;
// for them the stored hash is a placeholder and never used for verification.
type User struct {
	// ID is the unique identifier (UUID).
	ID string `gorm:"primaryKey;size:36"`
	// Username is the unique login name.
	Username string `gorm:"uniqueIndex;size:50;not null"`
	// Email is the unique email address.
	Email string `gorm:"uniqueIndex;size:100;not null"`
	// DocumentNumber is the secondary login identifier.
	DocumentNumber string `gorm:"index;size:20;not null"`
	// PasswordHash is an argon2id hash or, for legacy records, a base64 salted SHA-256 digest.
	PasswordHash string `gorm:"size:255;not null"`
	// Salt is the base64 salt of PasswordHash.
	Salt string `gorm:"size:64"`
	// Active indicates whether the account may log in.
	Active bool `gorm:"column:is_active;not null"`
	// LDAPBacked marks identities whose credentials live in the directory.
	LDAPBacked bool `gorm:"column:is_ldap_user;not null"`
	// RoleID is the ID of the role assigned to this user.
	RoleID uint `gorm:"column:role_id;not null"`
	// Role is the associated role (enforced with a foreign key constraint).
	Role Role `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	// LastLogin is set on every successful authentication.
	LastLogin *time.Time
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID to new users without an ID.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	return nil
}

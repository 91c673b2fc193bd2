// Package user provides the gorm backed credential store.
package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sg-semilla/semilla-auth/internal/apperr"
	"github.com/sg-semilla/semilla-auth/internal/db/models"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = apperr.New(apperr.KindNotFound, "user not found")
	// ErrUsernameTaken is returned when another user already has the username.
	ErrUsernameTaken = apperr.New(apperr.KindValidation, "username is already in use")
	// ErrEmailTaken is returned when another user already has the email.
	ErrEmailTaken = apperr.New(apperr.KindValidation, "email is already in use")
)

// Store reads and writes users.
type Store struct {
	db *gorm.DB
}

// New creates a Store on db.
func New(db *gorm.DB) *Store {
	if db == nil {
		panic("user store: db is nil")
	}

	return &Store{db: db}
}

// FindByUsername returns the user with the given username and its role.
func (s *Store) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, "username = ?", username)
}

// FindByDocumentNumber returns the first user with the given document number and its role.
func (s *Store) FindByDocumentNumber(ctx context.Context, documentNumber string) (*models.User, error) {
	return s.findOne(ctx, "document_number = ?", documentNumber)
}

// FindByID returns the user with the given id and its role.
func (s *Store) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *Store) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Preload("Role").Where(query, arg).Order("created_at").First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// List returns all users ordered by username.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	var users []models.User

	if err := s.db.WithContext(ctx).Preload("Role").Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// Create inserts a new user after checking username and email are free.
func (s *Store) Create(ctx context.Context, user *models.User) error {
	if err := s.checkUnique(ctx, user); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Update writes all fields of an existing user after checking username and email are free.
func (s *Store) Update(ctx context.Context, user *models.User) error {
	if err := s.checkUnique(ctx, user); err != nil {
		return err
	}

	return s.Save(ctx, user)
}

// Save writes all fields of user without touching its role.
func (s *Store) Save(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// Delete removes the user with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// checkUnique fails when another user holds the username or email of user.
func (s *Store) checkUnique(ctx context.Context, user *models.User) error {
	for _, check := range []struct {
		column string
		value  string
		err    error
	}{
		{"username", user.Username, ErrUsernameTaken},
		{"email", user.Email, ErrEmailTaken},
	} {
		var count int64

		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where(check.column+" = ? AND id <> ?", check.value, user.ID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", check.column, err)
		}

		if count > 0 {
			return check.err
		}
	}

	return nil
}

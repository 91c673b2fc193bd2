// Package user provides the /api/v1/users administration endpoints.
package user

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/sg-semilla/semilla-auth/internal/apperr"
	"github.com/sg-semilla/semilla-auth/internal/auth"
	"github.com/sg-semilla/semilla-auth/internal/config"
	"github.com/sg-semilla/semilla-auth/internal/db/controller/role"
	usercontroller "github.com/sg-semilla/semilla-auth/internal/db/controller/user"
	"github.com/sg-semilla/semilla-auth/internal/db/models"
	"github.com/sg-semilla/semilla-auth/internal/web/handler"
)

const (
	// Path is the base path for user management.
	Path = handler.APIPath + "/users"

	// ProfilePath is the path of the caller's own user.
	ProfilePath = "/profile"
)

// CreateRequest is the body of POST /users.
type CreateRequest struct {
	Username       string `json:"username"       validate:"required,min=3,max=50"`
	Email          string `json:"email"          validate:"required,email,max=100"`
	DocumentNumber string `json:"documentNumber" validate:"required,max=20"`
	Password       string `json:"password"       validate:"required,min=6,max=100"`
	IsActive       *bool  `json:"isActive"`
	IsLdapUser     bool   `json:"isLdapUser"`
	RoleID         uint   `json:"roleId"         validate:"required"`
}

// UpdateRequest is the body of PUT /users/:id. Absent fields are kept.
type UpdateRequest struct {
	Username       *string `json:"username"       validate:"omitempty,min=3,max=50"`
	Email          *string `json:"email"          validate:"omitempty,email,max=100"`
	DocumentNumber *string `json:"documentNumber" validate:"omitempty,max=20"`
	Password       *string `json:"password"       validate:"omitempty,min=6,max=100"`
	IsActive       *bool   `json:"isActive"`
	IsLdapUser     *bool   `json:"isLdapUser"`
	RoleID         *uint   `json:"roleId"         validate:"omitempty,gt=0"`
}

// ProfileRequest is the body of PUT /users/profile. The role can't be changed here.
type ProfileRequest struct {
	Email          *string `json:"email"          validate:"omitempty,email,max=100"`
	DocumentNumber *string `json:"documentNumber" validate:"omitempty,max=20"`
	Password       *string `json:"password"       validate:"omitempty,min=6,max=100"`
}

// Service provides CRUD operations for users.
type Service struct {
	handler.Service
	cfg   *config.Config
	users *usercontroller.Store
	roles *role.Store
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, cfg *config.Config, deps *handler.Deps) error {
	if router == nil || cfg == nil || deps == nil || deps.Users == nil || deps.Roles == nil {
		return handler.ErrNilRCD
	}

	s.cfg = cfg
	s.users = deps.Users
	s.roles = deps.Roles

	group := router.Group(Path, auth.RequireAuthenticated(deps.Auth.Issuer()))

	// profile routes come first, "profile" is not an id
	group.Get(ProfilePath, s.Profile)
	group.Put(ProfilePath, s.UpdateProfile)

	group.Get(handler.RootPath, auth.RequirePermission(auth.PermUsersRead), s.List)
	group.Get(handler.IDPath, auth.RequirePermission(auth.PermUsersRead), s.Get)
	group.Post(handler.RootPath, auth.RequirePermission(auth.PermUsersWrite), s.Create)
	group.Put(handler.IDPath, auth.RequirePermission(auth.PermUsersWrite), s.Update)
	group.Delete(handler.IDPath, auth.RequirePermission(auth.PermUsersDelete), s.Delete)

	return nil
}

// List returns all users.
func (s *Service) List(c fiber.Ctx) error {
	users, err := s.users.List(c.Context())
	if err != nil {
		return err
	}

	out := make([]handler.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, handler.NewUserResponse(&users[i]))
	}

	return c.JSON(out)
}

// Get returns one user.
func (s *Service) Get(c fiber.Ctx) error {
	user, err := s.users.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(handler.NewUserResponse(user))
}

// Profile returns the caller's user.
func (s *Service) Profile(c fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return err
	}

	return c.JSON(handler.NewUserResponse(user))
}

// Create adds a user. Passwords of LDAP backed users are stored but never checked.
func (s *Service) Create(c fiber.Ctx) error {
	var req CreateRequest
	if err := handler.BindBody(c, &req); err != nil {
		return err
	}

	userRole, err := s.findRole(c.Context(), req.RoleID)
	if err != nil {
		return err
	}

	hash, salt, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		DocumentNumber: req.DocumentNumber,
		PasswordHash:   hash,
		Salt:           salt,
		Active:         active,
		LDAPBacked:     req.IsLdapUser,
		RoleID:         userRole.ID,
	}

	if err = s.users.Create(c.Context(), user); err != nil {
		return err
	}

	user.Role = *userRole

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user created")

	return c.Status(fiber.StatusCreated).JSON(handler.NewUserResponse(user))
}

// Update changes the given fields of a user.
func (s *Service) Update(c fiber.Ctx) error {
	var req UpdateRequest
	if err := handler.BindBody(c, &req); err != nil {
		return err
	}

	user, err := s.users.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}

	if req.IsActive != nil {
		user.Active = *req.IsActive
	}

	if req.IsLdapUser != nil {
		user.LDAPBacked = *req.IsLdapUser
	}

	if req.RoleID != nil && *req.RoleID != user.RoleID {
		userRole, errRole := s.findRole(c.Context(), *req.RoleID)
		if errRole != nil {
			return errRole
		}

		user.RoleID = userRole.ID
		user.Role = *userRole
	}

	if err = applyProfile(user, req.Email, req.DocumentNumber, req.Password); err != nil {
		return err
	}

	if err = s.users.Update(c.Context(), user); err != nil {
		return err
	}

	return c.JSON(handler.NewUserResponse(user))
}

// UpdateProfile lets the caller change their own email, document number and password.
func (s *Service) UpdateProfile(c fiber.Ctx) error {
	var req ProfileRequest
	if err := handler.BindBody(c, &req); err != nil {
		return err
	}

	user, err := s.currentUser(c)
	if err != nil {
		return err
	}

	if err = applyProfile(user, req.Email, req.DocumentNumber, req.Password); err != nil {
		return err
	}

	if err = s.users.Update(c.Context(), user); err != nil {
		return err
	}

	return c.JSON(handler.NewUserResponse(user))
}

// Delete removes a user.
func (s *Service) Delete(c fiber.Ctx) error {
	if err := s.users.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}

	log.Info().Str("user_id", c.Params("id")).Msg("user deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) currentUser(c fiber.Ctx) (*models.User, error) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}

	return s.users.FindByUsername(c.Context(), principal.Subject)
}

// findRole resolves a role referenced by a request, a missing role is a bad request.
func (s *Service) findRole(ctx context.Context, id uint) (*models.Role, error) {
	userRole, err := s.roles.FindByID(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Validation("role does not exist", map[string]string{"roleId": "unknown role"})
		}

		return nil, err
	}

	return userRole, nil
}

func applyProfile(user *models.User, email, documentNumber, password *string) error {
	if email != nil {
		user.Email = *email
	}

	if documentNumber != nil {
		user.DocumentNumber = *documentNumber
	}

	if password != nil {
		hash, salt, err := auth.HashPassword(*password)
		if err != nil {
			return err
		}

		user.PasswordHash = hash
		user.Salt = salt
	}

	return nil
}

// Package permission provides the /api/v1/permissions administration endpoints.
package permission

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/sg-semilla/semilla-auth/internal/auth"
	"github.com/sg-semilla/semilla-auth/internal/config"
	permissioncontroller "github.com/sg-semilla/semilla-auth/internal/db/controller/permission"
	"github.com/sg-semilla/semilla-auth/internal/db/models"
	"github.com/sg-semilla/semilla-auth/internal/web/handler"
)

// Path is the base path for permission management.
const Path = handler.APIPath + "/permissions"

// CreateRequest is the body of POST /permissions.
type CreateRequest struct {
	Name        string `json:"name"        validate:"required,min=3,max=50"`
	Code        string `json:"code"        validate:"required,min=3,max=50"`
	Description string `json:"description" validate:"max=200"`
	Category    string `json:"category"    validate:"max=50"`
}

// UpdateRequest is the body of PUT /permissions/:id. Absent fields are kept.
type UpdateRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=3,max=50"`
	Code        *string `json:"code"        validate:"omitempty,min=3,max=50"`
	Description *string `json:"description" validate:"omitempty,max=200"`
	Category    *string `json:"category"    validate:"omitempty,max=50"`
}

// Service provides CRUD operations for permissions.
type Service struct {
	handler.Service
	cfg         *config.Config
	permissions *permissioncontroller.Store
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, cfg *config.Config, deps *handler.Deps) error {
	if router == nil || cfg == nil || deps == nil || deps.Permissions == nil {
		return handler.ErrNilRCD
	}

	s.cfg = cfg
	s.permissions = deps.Permissions

	group := router.Group(Path, auth.RequireAuthenticated(deps.Auth.Issuer()))

	group.Get(handler.RootPath, auth.RequirePermission(auth.PermPermissionsRead), s.List)
	group.Get("/code/:code", auth.RequirePermission(auth.PermPermissionsRead), s.GetByCode)
	group.Get(handler.IDPath, auth.RequirePermission(auth.PermPermissionsRead), s.Get)
	group.Post(handler.RootPath, auth.RequirePermission(auth.PermPermissionsWrite), s.Create)
	group.Put(handler.IDPath, auth.RequirePermission(auth.PermPermissionsWrite), s.Update)
	group.Delete(handler.IDPath, auth.RequirePermission(auth.PermPermissionsDelete), s.Delete)

	return nil
}

// List returns all permissions.
func (s *Service) List(c fiber.Ctx) error {
	perms, err := s.permissions.List(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(handler.NewPermissionResponses(perms))
}

// Get returns one permission by id.
func (s *Service) Get(c fiber.Ctx) error {
	perm, err := s.permissions.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(handler.NewPermissionResponse(perm))
}

// GetByCode returns one permission by code.
func (s *Service) GetByCode(c fiber.Ctx) error {
	perm, err := s.permissions.FindByCode(c.Context(), c.Params("code"))
	if err != nil {
		return err
	}

	return c.JSON(handler.NewPermissionResponse(perm))
}

// Create adds a permission.
func (s *Service) Create(c fiber.Ctx) error {
	var req CreateRequest
	if err := handler.BindBody(c, &req); err != nil {
		return err
	}

	perm := &models.Permission{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Category:    req.Category,
	}

	if err := s.permissions.Create(c.Context(), perm); err != nil {
		return err
	}

	log.Info().Str("permission_id", perm.ID).Str("code", perm.Code).Msg("permission created")

	return c.Status(fiber.StatusCreated).JSON(handler.NewPermissionResponse(perm))
}

// Update changes the given fields of a permission.
func (s *Service) Update(c fiber.Ctx) error {
	var req UpdateRequest
	if err := handler.BindBody(c, &req); err != nil {
		return err
	}

	perm, err := s.permissions.FindByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	for _, f := range []struct {
		dst *string
		src *string
	}{
		{&perm.Name, req.Name},
		{&perm.Code, req.Code},
		{&perm.Description, req.Description},
		{&perm.Category, req.Category},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}

	if err = s.permissions.Update(c.Context(), perm); err != nil {
		return err
	}

	return c.JSON(handler.NewPermissionResponse(perm))
}

// Delete removes a permission and revokes it from all roles.
func (s *Service) Delete(c fiber.Ctx) error {
	if err := s.permissions.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}

	log.Info().Str("permission_id", c.Params("id")).Msg("permission deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

// Package role provides the /api/v1/roles administration endpoints.
package role

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/sg-semilla/semilla-auth/internal/auth"
	"github.com/sg-semilla/semilla-auth/internal/config"
	rolecontroller "github.com/sg-semilla/semilla-auth/internal/db/controller/role"
	"github.com/sg-semilla/semilla-auth/internal/db/models"
	"github.com/sg-semilla/semilla-auth/internal/web/handler"
)

// Path is the base path for role management.
const Path = handler.APIPath + "/roles"

// CreateRequest is the body of POST /roles.
type CreateRequest struct {
	Name          string   `json:"name"          validate:"required,min=3,max=50"`
	Description   string   `json:"description"   validate:"max=200"`
	IsActive      *bool    `json:"isActive"`
	PermissionIDs []string `json:"permissionIds" validate:"omitempty,dive,uuid"`
}

// UpdateRequest is the body of PUT /roles/:id. Absent fields are kept, a
// present permissionIds replaces all grants.
type UpdateRequest struct {
	Name          *string  `json:"name"          validate:"omitempty,min=3,max=50"`
	Description   *string  `json:"description"   validate:"omitempty,max=200"`
	IsActive      *bool    `json:"isActive"`
	PermissionIDs []string `json:"permissionIds" validate:"omitempty,dive,uuid"`
}

// Service provides CRUD operations for roles.
type Service struct {
	handler.Service
	cfg   *config.Config
	roles *rolecontroller.Store
}

// Init registers routes.
func (s *Service) Init(router fiber.Router, cfg *config.Config, deps *handler.Deps) error {
	if router == nil || cfg == nil || deps == nil || deps.Roles == nil {
		return handler.ErrNilRCD
	}

	s.cfg = cfg
	s.roles = deps.Roles

	group := router.Group(Path, auth.RequireAuthenticated(deps.Auth.Issuer()))

	group.Get(handler.RootPath, auth.RequirePermission(auth.PermRolesRead), s.List)
	group.Get(handler.IDPath, auth.RequirePermission(auth.PermRolesRead), s.Get)
	group.Get(handler.IDPath+"/permissions", auth.RequirePermission(auth.PermRolesRead), s.Permissions)
	group.Post(handler.RootPath, auth.RequirePermission(auth.PermRolesWrite), s.Create)
	group.Put(handler.IDPath, auth.RequirePermission(auth.PermRolesWrite), s.Update)
	group.Delete(handler.IDPath, auth.RequirePermission(auth.PermRolesDelete), s.Delete)

	return nil
}

// List returns all roles with their grants.
func (s *Service) List(c fiber.Ctx) error {
	roles, err := s.roles.List(c.Context())
	if err != nil {
		return err
	}

	out := make([]handler.RoleResponse, 0, len(roles))

	for i := range roles {
		perms, errPerms := s.roles.Permissions(c.Context(), roles[i].ID)
		if errPerms != nil {
			return errPerms
		}

		out = append(out, handler.NewRoleResponse(&roles[i], perms))
	}

	return c.JSON(out)
}

// Get returns one role with its grants.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := handler.ParseUintParam(c, "id")
	if err != nil {
		return err
	}

	return s.respond(c, fiber.StatusOK, id)
}

// Permissions returns the permissions granted to a role.
func (s *Service) Permissions(c fiber.Ctx) error {
	id, err := handler.ParseUintParam(c, "id")
	if err != nil {
		return err
	}

	if _, err = s.roles.FindByID(c.Context(), id); err != nil {
		return err
	}

	perms, err := s.roles.Permissions(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(handler.NewPermissionResponses(perms))
}

// Create adds a role granting the listed permissions.
func (s *Service) Create(c fiber.Ctx) error {
	var req CreateRequest
	if err := handler.BindBody(c, &req); err != nil {
		return err
	}

	r := &models.Role{
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}

	if req.IsActive != nil {
		r.Active = *req.IsActive
	}

	if err := s.roles.Create(c.Context(), r, req.PermissionIDs); err != nil {
		return err
	}

	log.Info().Uint("role_id", r.ID).Str("name", r.Name).Msg("role created")

	return s.respond(c, fiber.StatusCreated, r.ID)
}

// Update changes the given fields of a role.
func (s *Service) Update(c fiber.Ctx) error {
	id, err := handler.ParseUintParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateRequest
	if err = handler.BindBody(c, &req); err != nil {
		return err
	}

	r, err := s.roles.FindByID(c.Context(), id)
	if err != nil {
		return err
	}

	if req.Name != nil {
		r.Name = *req.Name
	}

	if req.Description != nil {
		r.Description = *req.Description
	}

	if req.IsActive != nil {
		r.Active = *req.IsActive
	}

	if err = s.roles.Update(c.Context(), r, req.PermissionIDs); err != nil {
		return err
	}

	return s.respond(c, fiber.StatusOK, r.ID)
}

// Delete removes a role that no user holds.
func (s *Service) Delete(c fiber.Ctx) error {
	id, err := handler.ParseUintParam(c, "id")
	if err != nil {
		return err
	}

	if err = s.roles.Delete(c.Context(), id); err != nil {
		return err
	}

	log.Info().Uint("role_id", id).Msg("role deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) respond(c fiber.Ctx, status int, id uint) error {
	r, err := s.roles.FindByID(c.Context(), id)
	if err != nil {
		return err
	}

	perms, err := s.roles.Permissions(c.Context(), id)
	if err != nil {
		return err
	}

	return c.Status(status).JSON(handler.NewRoleResponse(r, perms))
}

package handler

import (
	"time"

	"github.com/sg-semilla/semilla-auth/internal/db/models"
)

// MessageResponse is the body of most error responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationResponse is the body of a 400 with field level messages.
type ValidationResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// InternalErrorResponse is the body of an unhandled error.
type InternalErrorResponse struct {
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	DocumentNumber string     `json:"documentNumber"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastLogin      *time.Time `json:"lastLogin"`
	IsActive       bool       `json:"isActive"`
	IsLdapUser     bool       `json:"isLdapUser"`
	RoleID         uint       `json:"roleId"`
	RoleName       string     `json:"roleName"`
}

// NewUserResponse maps a user. Its role should be loaded.
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		DocumentNumber: u.DocumentNumber,
		CreatedAt:      u.CreatedAt,
		LastLogin:      u.LastLogin,
		IsActive:       u.Active,
		IsLdapUser:     u.LDAPBacked,
		RoleID:         u.RoleID,
		RoleName:       u.Role.Name,
	}
}

// PermissionResponse is the public view of a permission.
type PermissionResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewPermissionResponse maps a permission.
func NewPermissionResponse(p *models.Permission) PermissionResponse {
	return PermissionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Code:        p.Code,
		Description: p.Description,
		Category:    p.Category,
		CreatedAt:   p.CreatedAt,
	}
}

// NewPermissionResponses maps a list of permissions.
func NewPermissionResponses(perms []models.Permission) []PermissionResponse {
	out := make([]PermissionResponse, 0, len(perms))
	for i := range perms {
		out = append(out, NewPermissionResponse(&perms[i]))
	}

	return out
}

// RoleResponse is the public view of a role with its grants.
type RoleResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsActive    bool                 `json:"isActive"`
	CreatedAt   time.Time            `json:"createdAt"`
	Permissions []PermissionResponse `json:"permissions"`
}

// NewRoleResponse maps a role and its granted permissions.
func NewRoleResponse(r *models.Role, perms []models.Permission) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.Active,
		CreatedAt:   r.CreatedAt,
		Permissions: NewPermissionResponses(perms),
	}
}

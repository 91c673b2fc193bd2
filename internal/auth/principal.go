package auth

import (
	"slices"
	"time"
)

// Principal is the identity carried by a validated token.
type Principal struct {
	Subject     string
	TokenID     string
	RoleName    string
	RoleID      uint
	Permissions map[string]struct{}
	ExpiresAt   time.Time
}

// NewPrincipal builds a principal holding codes.
func NewPrincipal(subject, roleName string, roleID uint, codes []string) *Principal {
	perms := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		perms[code] = struct{}{}
	}

	return &Principal{
		Subject:     subject,
		RoleName:    roleName,
		RoleID:      roleID,
		Permissions: perms,
	}
}

// HasPermission reports whether the principal holds exactly code.
func (p *Principal) HasPermission(code string) bool {
	if p == nil {
		return false
	}

	_, ok := p.Permissions[code]

	return ok
}

// PermissionList returns the held codes sorted.
func (p *Principal) PermissionList() []string {
	codes := make([]string, 0, len(p.Permissions))
	for code := range p.Permissions {
		codes = append(codes, code)
	}

	slices.Sort(codes)

	return codes
}

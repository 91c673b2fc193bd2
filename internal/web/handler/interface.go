package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/sg-semilla/semilla-auth/internal/auth"
	"github.com/sg-semilla/semilla-auth/internal/config"
	"github.com/sg-semilla/semilla-auth/internal/db/controller/permission"
	"github.com/sg-semilla/semilla-auth/internal/db/controller/role"
	"github.com/sg-semilla/semilla-auth/internal/db/controller/user"
)

// ErrNilRCD is returned by Init when router, cfg or deps is nil.
var ErrNilRCD = errors.New(ErrNilRCDFatalLogMsg)

// Deps holds the services handlers are built on.
type Deps struct {
	Auth        *auth.Service
	Users       *user.Store
	Roles       *role.Store
	Permissions *permission.Store
	// LimiterStorage keeps login rate limit counters. Nil uses process memory.
	LimiterStorage fiber.Storage
}

// Service is the interface for a web handler service.
type Service interface {
	Init(router fiber.Router, cfg *config.Config, deps *Deps) error
}

// Package auth provides the /api/v1/auth endpoints: login, register, token
// validation, refresh and the dev mode token shortcut.
package auth

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/rs/zerolog/log"

	coreauth "github.com/sg-semilla/semilla-auth/internal/auth"
	"github.com/sg-semilla/semilla-auth/internal/config"
	"github.com/sg-semilla/semilla-auth/internal/web/handler"
)

const (
	// Path is the base path of the auth endpoints.
	Path = handler.APIPath + "/auth"

	// DevTokenUser is the identity the dev token is issued for.
	DevTokenUser = "admin"
)

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	UsernameOrDocumentNumber string `json:"usernameOrDocumentNumber" validate:"required,max=100"`
	Password                 string `json:"password"                 validate:"required,max=100"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Username       string `json:"username"       validate:"required,min=3,max=50"`
	Email          string `json:"email"          validate:"required,email,max=100"`
	DocumentNumber string `json:"documentNumber" validate:"required,max=20"`
	Password       string `json:"password"       validate:"required,min=6,max=100"`
	RoleID         uint   `json:"roleId"         validate:"required"`
}

// SessionResponse is returned by login, register and refresh.
type SessionResponse struct {
	Token      string                `json:"token"`
	Expiration time.Time             `json:"expiration"`
	User       *handler.UserResponse `json:"user"`
}

// ValidateResponse is returned by GET /validate.
type ValidateResponse struct {
	IsValid  bool     `json:"isValid"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// Service is the auth handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	auth *coreauth.Service
}

// Init registers the routes under Path.
func (s *Service) Init(router fiber.Router, cfg *config.Config, deps *handler.Deps) error {
	if router == nil || cfg == nil || deps == nil || deps.Auth == nil {
		return handler.ErrNilRCD
	}

	s.cfg = cfg
	s.auth = deps.Auth

	authenticated := coreauth.RequireAuthenticated(deps.Auth.Issuer())

	group := router.Group(Path)

	if cfg.Webserver.LoginRateLimit.Enabled {
		group.Post("/login", loginLimiter(cfg.Webserver.LoginRateLimit, deps.LimiterStorage), s.Login)
	} else {
		group.Post("/login", s.Login)
	}

	group.Post("/register", s.Register)
	group.Get("/validate", authenticated, s.Validate)
	group.Post("/refresh", authenticated, s.Refresh)

	if cfg.DevMode {
		log.Warn().Str("path", Path+"/dev-token").Msg("dev mode enabled: unauthenticated dev token endpoint is active")
		group.Get("/dev-token", s.DevToken)
	}

	return nil
}

func loginLimiter(cfg config.LoginRateLimit, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Expiration,
		Storage:    storage,
		LimitReached: func(c fiber.Ctx) error {
			log.Warn().Str("ip", c.IP()).Msg("login rate limit reached")

			return c.Status(fiber.StatusTooManyRequests).JSON(handler.MessageResponse{
				Message: "too many login attempts, try again later",
			})
		},
	})
}

// Login handles POST /login.
func (s *Service) Login(c fiber.Ctx) error {
	var req LoginRequest
	if err := handler.BindBody(c, &req); err != nil {
		return err
	}

	session, err := s.auth.Login(c.Context(), req.UsernameOrDocumentNumber, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(newSessionResponse(session))
}

// Register handles POST /register.
func (s *Service) Register(c fiber.Ctx) error {
	var req RegisterRequest
	if err := handler.BindBody(c, &req); err != nil {
		return err
	}

	session, err := s.auth.Register(c.Context(), coreauth.Registration{
		Username:       req.Username,
		Email:          req.Email,
		DocumentNumber: req.DocumentNumber,
		Password:       req.Password,
		RoleID:         req.RoleID,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(newSessionResponse(session))
}

// Validate handles GET /validate. The token was checked by the middleware.
func (s *Service) Validate(c fiber.Ctx) error {
	principal, ok := coreauth.PrincipalFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	return c.JSON(ValidateResponse{
		IsValid:  true,
		Username: principal.Subject,
		Roles:    []string{principal.RoleName},
	})
}

// Refresh handles POST /refresh.
func (s *Service) Refresh(c fiber.Ctx) error {
	principal, ok := coreauth.PrincipalFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	session, err := s.auth.Refresh(c.Context(), principal)
	if err != nil {
		return err
	}

	return c.JSON(newSessionResponse(session))
}

// DevToken handles GET /dev-token, registered in dev mode only.
func (s *Service) DevToken(c fiber.Ctx) error {
	session, err := s.auth.IssueFor(c.Context(), DevTokenUser)
	if err != nil {
		return err
	}

	return c.JSON(newSessionResponse(session))
}

func newSessionResponse(session *coreauth.Session) SessionResponse {
	user := handler.NewUserResponse(session.User)

	return SessionResponse{
		Token:      session.Token,
		Expiration: session.Expiration,
		User:       &user,
	}
}

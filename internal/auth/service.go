package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/sg-semilla/semilla-auth/internal/apperr"
	"github.com/sg-semilla/semilla-auth/internal/db/models"
	"github.com/sg-semilla/semilla-auth/internal/metrics"
)

// RoleCatalog resolves roles and the permission codes granted to them.
type RoleCatalog interface {
	RoleFinder
	FindByID(ctx context.Context, id uint) (*models.Role, error)
	PermissionCodes(ctx context.Context, roleID uint) ([]string, error)
}

// Session is the outcome of a successful login, registration or refresh.
type Session struct {
	Token      string
	Expiration time.Time
	User       *models.User
}

// Registration holds the data of a new local identity.
type Registration struct {
	Username       string
	Email          string
	DocumentNumber string
	Password       string
	RoleID         uint
}

// Service ties authentication, the role catalog and token issuance together.
type Service struct {
	authenticator *Authenticator
	users         UserStore
	roles         RoleCatalog
	issuer        *TokenIssuer
}

// NewService creates a new auth service.
func NewService(authenticator *Authenticator, users UserStore, roles RoleCatalog, issuer *TokenIssuer) *Service {
	return &Service{
		authenticator: authenticator,
		users:         users,
		roles:         roles,
		issuer:        issuer,
	}
}

// Issuer returns the token issuer, used by the route middleware.
func (s *Service) Issuer() *TokenIssuer {
	return s.issuer
}

// Login authenticates the credentials and issues a token.
func (s *Service) Login(ctx context.Context, identifier, password string) (*Session, error) {
	user, err := s.authenticator.Authenticate(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	return s.issue(ctx, user, "login")
}

// Register creates an active local identity and issues a token for it.
func (s *Service) Register(ctx context.Context, reg Registration) (*Session, error) {
	role, err := s.roles.FindByID(ctx, reg.RoleID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Validation("role does not exist", map[string]string{"roleId": "unknown role"})
		}

		return nil, err
	}

	if !role.Active {
		return nil, apperr.Validation("role is not active", map[string]string{"roleId": "inactive role"})
	}

	hash, salt, err := HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:       reg.Username,
		Email:          reg.Email,
		DocumentNumber: reg.DocumentNumber,
		PasswordHash:   hash,
		Salt:           salt,
		Active:         true,
		RoleID:         role.ID,
	}

	if err = s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	user.Role = *role

	return s.issue(ctx, user, "register")
}

// Refresh issues a new token for the principal's identity with the permissions
// currently granted to its role.
func (s *Service) Refresh(ctx context.Context, principal *Principal) (*Session, error) {
	user, err := s.users.FindByUsername(ctx, principal.Subject)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.New(apperr.KindAuthentication, "user no longer exists")
		}

		return nil, err
	}

	if !user.Active {
		return nil, apperr.New(apperr.KindAuthentication, ReasonAccountDisabled.Message())
	}

	return s.issue(ctx, user, "refresh")
}

// IssueFor issues a token for username without verifying credentials. Only
// wired in dev mode.
func (s *Service) IssueFor(ctx context.Context, username string) (*Session, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return s.issue(ctx, user, "dev")
}

func (s *Service) issue(ctx context.Context, user *models.User, kind string) (*Session, error) {
	codes, err := s.roles.PermissionCodes(ctx, user.RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve permissions of role %d: %w", user.RoleID, err)
	}

	token, err := s.issuer.Issue(user, codes)
	if err != nil {
		return nil, err
	}

	metrics.TokensIssuedTotal.WithLabelValues(kind).Inc()

	return &Session{Token: token.Value, Expiration: token.ExpiresAt, User: user}, nil
}

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sg-semilla/semilla-auth/internal/apperr"
	"github.com/sg-semilla/semilla-auth/internal/config"
	"github.com/sg-semilla/semilla-auth/internal/db/models"
	"github.com/sg-semilla/semilla-auth/internal/metrics"
)

// Column sizes of models.User that bound provisioned identities.
const (
	maxUsernameLen       = 50
	maxDocumentNumberLen = 20
)

// UserStore is the credential store used by the authenticator.
// Lookups return an apperr.KindNotFound error when nothing matches.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByDocumentNumber(ctx context.Context, documentNumber string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
}

// RoleFinder resolves the default role of provisioned identities.
type RoleFinder interface {
	FindByName(ctx context.Context, name string) (*models.Role, error)
}

// Authenticator verifies credentials against the local store and the directory.
type Authenticator struct {
	users       UserStore
	roles       RoleFinder
	directory   Directory
	defaultRole string
	emailDomain string
	timeout     time.Duration
	now         func() time.Time
}

// NewAuthenticator creates an Authenticator. A nil directory disables the directory fallback.
func NewAuthenticator(cfg *config.Config, users UserStore, roles RoleFinder, directory Directory) *Authenticator {
	if directory == nil {
		directory = NoDirectory{}
	}

	timeout := time.Duration(cfg.LDAP.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultLDAPTimeout
	}

	emailDomain := cfg.LDAP.EmailDomain
	if emailDomain == "" {
		emailDomain = "example.com"
	}

	return &Authenticator{
		users:       users,
		roles:       roles,
		directory:   directory,
		defaultRole: cfg.Auth.DefaultRole,
		emailDomain: emailDomain,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Authenticate resolves identifier (username or document number) and verifies
// secret. Refused credentials yield a *Rejection, store failures any other error.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, secret string) (*models.User, error) {
	user, err := a.authenticate(ctx, identifier, secret)

	outcome := "success"

	switch reason, ok := RejectionReason(err); {
	case ok:
		outcome = string(reason)
	case err != nil:
		outcome = "error"
	}

	metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()

	return user, err
}

func (a *Authenticator) authenticate(ctx context.Context, identifier, secret string) (*models.User, error) {
	local, err := a.lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if local != nil && !local.Active {
		log.Info().Str("identifier", identifier).Str("user_id", local.ID).Msg("login refused, account disabled")
		return nil, &Rejection{Reason: ReasonAccountDisabled}
	}

	if local != nil && local.LDAPBacked {
		return a.authenticateDirectoryUser(ctx, local, identifier, secret)
	}

	if local != nil && VerifyPassword(secret, local.PasswordHash, local.Salt) {
		return a.touch(ctx, local)
	}

	return a.fallbackToDirectory(ctx, local, identifier, secret)
}

// lookup finds the identity by username, then by document number. It returns nil when neither matches.
func (a *Authenticator) lookup(ctx context.Context, identifier string) (*models.User, error) {
	user, err := a.users.FindByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}

	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	user, err = a.users.FindByDocumentNumber(ctx, identifier)
	if err == nil {
		return user, nil
	}

	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	return nil, nil
}

// authenticateDirectoryUser verifies an LDAP backed identity. Its local password is never consulted.
func (a *Authenticator) authenticateDirectoryUser(
	ctx context.Context,
	local *models.User,
	identifier, secret string,
) (*models.User, error) {
	status, err := a.askDirectory(ctx, identifier, secret)
	if err != nil {
		log.Error().Err(err).Str("identifier", identifier).Str("user_id", local.ID).
			Msg("directory unavailable for LDAP backed user")

		return nil, &Rejection{Reason: ReasonOracleUnavailable, Err: err}
	}

	switch status {
	case DirectoryOK:
		return a.touch(ctx, local)
	case DirectoryDisabledAccount:
		if errDeactivate := a.deactivate(ctx, local); errDeactivate != nil {
			return nil, errDeactivate
		}

		return nil, &Rejection{Reason: ReasonLdapAccountDisabled, Directory: status}
	default:
		log.Warn().Str("identifier", identifier).Str("user_id", local.ID).
			Str("directory_status", status.String()).Msg("directory refused LDAP backed user")

		return nil, &Rejection{Reason: ReasonLdapAuthFailed, Directory: status}
	}
}

// fallbackToDirectory runs when local is nil or its password did not match.
func (a *Authenticator) fallbackToDirectory(
	ctx context.Context,
	local *models.User,
	identifier, secret string,
) (*models.User, error) {
	status, err := a.askDirectory(ctx, identifier, secret)
	if err != nil {
		log.Error().Err(err).Str("identifier", identifier).Msg("directory unavailable")

		if local != nil {
			return nil, &Rejection{Reason: ReasonLocalCredentialMismatch, Err: err}
		}

		return nil, &Rejection{Reason: ReasonOracleUnavailable, Err: err}
	}

	switch status {
	case DirectoryOK:
		if local == nil {
			return a.provision(ctx, identifier, secret)
		}

		log.Warn().Str("identifier", identifier).Str("user_id", local.ID).
			Msg("local password mismatch accepted by directory")

		return a.touch(ctx, local)
	case DirectoryDisabledAccount:
		if local != nil {
			if errDeactivate := a.deactivate(ctx, local); errDeactivate != nil {
				return nil, errDeactivate
			}
		}

		return nil, &Rejection{Reason: ReasonLdapAccountDisabled, Directory: status}
	case DirectoryNotAMember:
		return nil, a.reject(identifier, ReasonLdapNotAMember, status)
	case DirectoryInvalidCredentials:
		return nil, a.reject(identifier, ReasonLdapInvalidCredentials, status)
	default:
		if local != nil {
			return nil, a.reject(identifier, ReasonLocalCredentialMismatch, status)
		}

		return nil, a.reject(identifier, ReasonLdapNotFound, status)
	}
}

// askDirectory calls the directory under the configured deadline.
func (a *Authenticator) askDirectory(ctx context.Context, identifier, secret string) (DirectoryStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	status, err := a.directory.Authenticate(ctx, identifier, secret)

	metrics.DirectoryRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.DirectoryRequestsTotal.WithLabelValues("unavailable").Inc()
		return status, err
	}

	metrics.DirectoryRequestsTotal.WithLabelValues(status.String()).Inc()

	return status, nil
}

// provision creates a local LDAP backed identity for a directory-only identifier.
func (a *Authenticator) provision(ctx context.Context, identifier, secret string) (*models.User, error) {
	if len(identifier) > maxUsernameLen {
		log.Warn().Str("identifier", identifier).Msg("directory identifier too long for a local username, not provisioned")
		return nil, &Rejection{Reason: ReasonProvisioningConflict, Directory: DirectoryOK}
	}

	role, err := a.roles.FindByName(ctx, a.defaultRole)
	if err != nil {
		log.Error().Err(err).Str("role", a.defaultRole).Msg("can't provision directory user, default role missing")
		return nil, apperr.Wrap(apperr.KindInternal, "default role is not configured", err)
	}

	// placeholder credential material, never used for verification
	hash, salt, err := HashPassword(secret)
	if err != nil {
		return nil, err
	}

	now := a.now()

	user := &models.User{
		Username:     identifier,
		Email:        identifier + "@" + a.emailDomain,
		PasswordHash: hash,
		Salt:         salt,
		Active:       true,
		LDAPBacked:   true,
		RoleID:       role.ID,
		LastLogin:    &now,
	}

	if len(identifier) <= maxDocumentNumberLen {
		user.DocumentNumber = identifier
	}

	if err = a.users.Create(ctx, user); err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			log.Warn().Err(err).Str("identifier", identifier).Str("email", user.Email).
				Msg("directory user collides with a local identity, not provisioned")

			return nil, &Rejection{Reason: ReasonProvisioningConflict, Directory: DirectoryOK, Err: err}
		}

		return nil, fmt.Errorf("failed to provision directory user: %w", err)
	}

	user.Role = *role

	log.Info().Str("identifier", identifier).Str("user_id", user.ID).Str("role", role.Name).
		Msg("provisioned user from directory")

	return user, nil
}

func (a *Authenticator) touch(ctx context.Context, user *models.User) (*models.User, error) {
	now := a.now()
	user.LastLogin = &now

	if err := a.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to record last login: %w", err)
	}

	return user, nil
}

func (a *Authenticator) deactivate(ctx context.Context, user *models.User) error {
	user.Active = false

	if err := a.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).
		Msg("user deactivated locally, account disabled in directory")

	return nil
}

func (a *Authenticator) reject(identifier string, reason Reason, status DirectoryStatus) error {
	log.Warn().Str("identifier", identifier).Str("reason", string(reason)).
		Str("directory_status", status.String()).Msg("login refused")

	return &Rejection{Reason: reason, Directory: status}
}


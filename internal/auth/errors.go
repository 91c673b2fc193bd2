package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidToken is returned when a token fails signature, algorithm or claim validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSigningSecretRequired is returned when the issuer is built without a usable secret
	// outside dev mode.
	ErrSigningSecretRequired = errors.New("jwt signing secret must be configured outside dev mode")

	// ErrDirectoryDisabled is returned by directory lookups when no directory is configured.
	ErrDirectoryDisabled = errors.New("directory authentication is disabled")
)

// Reason explains why an authentication attempt was rejected.
type Reason string

const (
	// ReasonAccountDisabled means the local identity is inactive.
	ReasonAccountDisabled Reason = "account_disabled"
	// ReasonLdapAccountDisabled means the directory reported the account disabled.
	ReasonLdapAccountDisabled Reason = "ldap_account_disabled"
	// ReasonLdapAuthFailed means an LDAP backed identity was refused by the directory.
	ReasonLdapAuthFailed Reason = "ldap_auth_failed"
	// ReasonLdapNotAMember means the directory account lacks the required group.
	ReasonLdapNotAMember Reason = "ldap_not_a_member"
	// ReasonLdapNotFound means the identifier is unknown locally and in the directory.
	ReasonLdapNotFound Reason = "ldap_not_found"
	// ReasonLdapInvalidCredentials means the directory refused the secret.
	ReasonLdapInvalidCredentials Reason = "ldap_invalid_credentials"
	// ReasonLocalCredentialMismatch means the local password did not match and the directory
	// could not vouch for the identifier.
	ReasonLocalCredentialMismatch Reason = "local_credential_mismatch"
	// ReasonOracleUnavailable means the directory could not be reached.
	ReasonOracleUnavailable Reason = "oracle_unavailable"
	// ReasonProvisioningConflict means the directory accepted an identifier whose
	// provisioned identity collides with a local one, e.g. on email.
	ReasonProvisioningConflict Reason = "provisioning_conflict"
)

// Message returns the client facing text of the reason. Credential failures
// share one message so callers cannot tell which factor failed.
func (r Reason) Message() string {
	switch r {
	case ReasonAccountDisabled:
		return "account is disabled"
	case ReasonLdapAccountDisabled:
		return "account has been disabled in the directory"
	case ReasonLdapAuthFailed:
		return "directory authentication failed"
	case ReasonLdapNotAMember:
		return "user is not a member of the required group"
	case ReasonLdapNotFound, ReasonLdapInvalidCredentials, ReasonLocalCredentialMismatch:
		return "invalid username or password"
	default:
		return "authentication failed"
	}
}

// Rejection is returned by Authenticator when credentials are refused.
type Rejection struct {
	Reason Reason
	// Directory is the status reported by the directory, if it was asked.
	Directory DirectoryStatus
	// Err is the directory transport error for ReasonOracleUnavailable.
	Err error
}

// Error implements error.
func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("authentication rejected (%s): %v", r.Reason, r.Err)
	}

	return fmt.Sprintf("authentication rejected (%s)", r.Reason)
}

// Unwrap returns the underlying directory error.
func (r *Rejection) Unwrap() error {
	return r.Err
}

// Message returns the client facing text.
func (r *Rejection) Message() string {
	return r.Reason.Message()
}

// RejectionReason returns the reason of the first *Rejection in err's chain.
func RejectionReason(err error) (Reason, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Reason, true
	}

	return "", false
}

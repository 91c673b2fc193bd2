package auth

import "context"

// DirectoryStatus is the verdict of a directory on a set of credentials.
type DirectoryStatus int

const (
	// DirectoryOK means the credentials are valid and the account may log in.
	DirectoryOK DirectoryStatus = iota
	// DirectoryDisabledAccount means the account exists but is disabled.
	DirectoryDisabledAccount
	// DirectoryNotAMember means the account is not in the required group.
	DirectoryNotAMember
	// DirectoryNotFound means the directory does not know the identifier.
	DirectoryNotFound
	// DirectoryInvalidCredentials means the directory refused the secret.
	DirectoryInvalidCredentials
)

// String implements fmt.Stringer, the values are used as metric labels.
func (s DirectoryStatus) String() string {
	switch s {
	case DirectoryOK:
		return "ok"
	case DirectoryDisabledAccount:
		return "disabled_account"
	case DirectoryNotAMember:
		return "not_a_member"
	case DirectoryNotFound:
		return "not_found"
	case DirectoryInvalidCredentials:
		return "invalid_credentials"
	default:
		return "unknown"
	}
}

// Directory is an external identity source used as an alternate credential check.
// Implementations must be safe for concurrent use. A non-nil error means the
// directory could not give a verdict, e.g. it was unreachable or ctx expired.
type Directory interface {
	Authenticate(ctx context.Context, identifier, secret string) (DirectoryStatus, error)
}

// NoDirectory is the Directory used when LDAP is disabled. It knows nobody.
type NoDirectory struct{}

// Authenticate always reports DirectoryNotFound.
func (NoDirectory) Authenticate(context.Context, string, string) (DirectoryStatus, error) {
	return DirectoryNotFound, nil
}

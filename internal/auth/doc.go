// Package auth implements authentication and authorization for the API.
//
// # Authentication
//
// Authenticator verifies a login identifier (username or document number) and
// a secret against two sources:
//   - the local credential store, hashed with Argon2id (legacy salted SHA-256
//     hashes are still accepted)
//   - a Directory, usually an LDAP or Active Directory server reached through
//     LDAPDirectory
//
// Identities flagged as LDAP backed are always verified by the directory. A
// local password mismatch falls back to the directory, and an identifier only
// known to the directory is provisioned locally with the default role on its
// first successful login. Failures are returned as *Rejection carrying a Reason.
//
// # Tokens
//
// TokenIssuer signs HS256 JWTs embedding the role and the permission codes
// granted to it at issuance time. Parsing a token yields a Principal; no store
// is queried afterwards, so revoked permissions stay usable until the token
// expires or is refreshed.
//
// # Middleware
//
// Fiber middleware protects routes:
//   - RequireAuthenticated: parse the bearer token into a Principal
//   - RequirePermission: allow only principals holding an exact permission code
//
// Example usage:
//
//	issuer, err := auth.NewTokenIssuer(&cfg)
//	service := auth.NewService(authenticator, users, roles, issuer)
//
//	api.Get("/users",
//	    auth.RequireAuthenticated(issuer),
//	    auth.RequirePermission(auth.PermUsersRead),
//	    handler,
//	)
package auth

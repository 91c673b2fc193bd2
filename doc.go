// Package main provides the entry point for the semilla-auth service.
// It runs a REST API built on Fiber that authenticates users against a local
// credential store or an LDAP directory, issues signed JWTs carrying the
// permission codes of the user's role, and exposes permission-guarded
// administration of users, roles and permissions. Persistence uses gorm.
package main

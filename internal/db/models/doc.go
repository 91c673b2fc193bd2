// Package models contains the gorm models of identities, roles and permissions.
package models

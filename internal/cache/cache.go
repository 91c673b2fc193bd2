// Package cache holds the role to permission codes cache used when issuing tokens.
package cache

import (
	"context"
)

// PermissionCache caches the permission codes granted to a role.
// Writers of grants must invalidate the affected roles before the change is visible to token issuance.
type PermissionCache interface {
	// Get returns the cached codes and whether the role was cached.
	Get(ctx context.Context, roleID uint) ([]string, bool, error)
	// Set stores the codes of a role.
	Set(ctx context.Context, roleID uint, codes []string) error
	// Invalidate drops the given roles.
	Invalidate(ctx context.Context, roleIDs ...uint) error
	// InvalidateAll drops every cached role.
	InvalidateAll(ctx context.Context) error
}

// Nop is a PermissionCache that never caches.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, uint) ([]string, bool, error) { return nil, false, nil }

// Set does nothing.
func (Nop) Set(context.Context, uint, []string) error { return nil }

// Invalidate does nothing.
func (Nop) Invalidate(context.Context, ...uint) error { return nil }

// InvalidateAll does nothing.
func (Nop) InvalidateAll(context.Context) error { return nil }

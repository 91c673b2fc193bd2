// Package metrics defines the prometheus collectors of the auth service.
// All collectors register with the default registry on package init and are
// served by GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "semilla_auth"

// LoginAttemptsTotal counts login attempts.
// Label:
//   - outcome: "success" or the rejection reason (e.g. "ldap_not_found")
var LoginAttemptsTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// DirectoryRequestsTotal counts calls to the directory oracle.
// Label:
//   - status: directory status ("ok", "disabled_account", ...) or "unavailable"
var DirectoryRequestsTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "directory_requests_total",
		Help:      "Total number of directory authentication calls, by status.",
	},
	[]string{"status"},
)

// DirectoryRequestDuration measures directory call latency including dial and bind.
var DirectoryRequestDuration = promauto.NewHistogram( //nolint:gochecknoglobals
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "directory_request_duration_seconds",
		Help:      "Duration of directory authentication calls.",
		Buckets:   prometheus.DefBuckets,
	},
)

// TokensIssuedTotal counts issued tokens.
// Label:
//   - kind: "login", "register", "refresh" or "dev"
var TokensIssuedTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of issued tokens, by kind.",
	},
	[]string{"kind"},
)

// PermissionCacheTotal counts permission cache lookups and failed invalidations.
// Label:
//   - result: "hit", "miss", "error" or "invalidate_error"
var PermissionCacheTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_cache_total",
		Help:      "Total number of role permission cache lookups, by result.",
	},
	[]string{"result"},
)

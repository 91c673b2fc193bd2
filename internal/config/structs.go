package config

import (
	"time"

	"github.com/sg-semilla/semilla-auth/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	DB        DB
	JWT       JWT
	LDAP      LDAP
	Auth      Auth
	Redis     Redis
	Seed      Seed
	Log       logger.Log
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	Port            int            // listening port for the webserver
	ShutDownTime    int            // wait time for shutdown in seconds
	URL             string         // base url for the webserver
	HideErrorDetail bool           // do not expose internal error text in 500 responses
	DisableRecover  bool           // disable recover middleware
	LoginRateLimit  LoginRateLimit // throttling of the login endpoint
}

// LoginRateLimit configures the limiter in front of POST /api/v1/auth/login.
type LoginRateLimit struct {
	Enabled    bool
	Max        int           // requests per client IP and window
	Expiration time.Duration // window length
}

// JWT holds the token signing and lifetime settings.
type JWT struct {
	Secret          string // HMAC signing secret, required outside dev mode
	Issuer          string
	Audience        string
	LifetimeMinutes int
}

// Lifetime returns the configured token lifetime.
func (j JWT) Lifetime() time.Duration {
	return time.Duration(j.LifetimeMinutes) * time.Minute
}

// LDAP holds the directory oracle settings.
type LDAP struct {
	Enabled    bool
	Host       string
	Port       int
	UseSSL     bool // ldaps://
	UseTLS     bool // StartTLS on a plain connection
	SkipVerify bool
	BaseDN     string
	// BindFormat builds the bind identity from the login identifier, e.g. "{username}@corp.local".
	BindFormat string
	// UserFilter finds the user entry, {username} is replaced by the escaped identifier.
	UserFilter string
	// RequiredGroup is the CN the user must be a member of. Empty disables the check.
	RequiredGroup string
	Timeout       int    // seconds, covers dial, bind and search
	EmailDomain   string // domain of placeholder emails for auto-provisioned users
}

// Auth holds authenticator settings.
type Auth struct {
	DefaultRole string // role assigned to auto-provisioned directory users
}

// Redis holds the optional permission cache settings.
type Redis struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Seed controls the initial data created on start.
type Seed struct {
	Enabled       bool
	AdminPassword string
	UserPassword  string
}

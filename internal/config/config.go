// Package config handles input from etc/main.toml and SEMILLA_* environment variables.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment variables overriding single keys, e.g. SEMILLA_JWT_SECRET.
	EnvPrefix = "SEMILLA"

	// EnvConfigJSON names the variable holding a JSON document merged over the file config.
	EnvConfigJSON = "SEMILLA_AUTH_CONFIG_JSON"

	// DefaultDevSecret is the signing secret used in dev mode when none is configured.
	// It is rejected outside dev mode.
	DefaultDevSecret = "semilla-dev-secret-change-me-0123456789"

	// DefaultTokenLifetimeMinutes is used when jwt.lifetimeminutes is not set.
	DefaultTokenLifetimeMinutes = 60

	redactedValue = "******"
)

// Option adjusts the configuration after it was read and before it is validated.
type Option func(c *Config)

// WithDevMode forces dev mode on, used by the --dev flag.
func WithDevMode(enabled bool) Option {
	return func(c *Config) {
		if enabled {
			c.DevMode = true
		}
	}
}

// ReadConfig from config file.
func ReadConfig(path string, opts ...Option) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path + "main.toml")
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c, validate(&c)
}

// setDefaults registers every key viper should resolve from the environment
// even when main.toml does not mention it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "semilla-auth")

	v.SetDefault("webserver.port", 8080)
	v.SetDefault("webserver.url", "http://localhost:8080")
	v.SetDefault("webserver.shutdowntime", 5)
	v.SetDefault("webserver.hideerrordetail", false)
	v.SetDefault("webserver.loginratelimit.enabled", true)
	v.SetDefault("webserver.loginratelimit.max", 10)
	v.SetDefault("webserver.loginratelimit.expiration", "1m")

	v.SetDefault("db.gormengine", EngineSQLite)
	v.SetDefault("db.path", "semilla.db")
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 0)
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "")
	v.SetDefault("db.extras", "")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "semilla-auth")
	v.SetDefault("jwt.audience", "semilla-auth-clients")
	v.SetDefault("jwt.lifetimeminutes", DefaultTokenLifetimeMinutes)

	v.SetDefault("ldap.enabled", false)
	v.SetDefault("ldap.host", "")
	v.SetDefault("ldap.port", 389)
	v.SetDefault("ldap.basedn", "")
	v.SetDefault("ldap.bindformat", "{username}")
	v.SetDefault("ldap.userfilter", "(&(objectClass=user)(sAMAccountName={username}))")
	v.SetDefault("ldap.requiredgroup", "")
	v.SetDefault("ldap.timeout", 10)
	v.SetDefault("ldap.emaildomain", "example.com")

	v.SetDefault("auth.defaultrole", "User")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "10m")

	v.SetDefault("seed.enabled", true)
	v.SetDefault("seed.adminpassword", "Admin123!")
	v.SetDefault("seed.userpassword", "Usuario123!")

	v.SetDefault("log.loglevel", "info")
	v.SetDefault("log.appname", "semilla-auth")
	v.SetDefault("log.servicename", "semilla-auth")
	v.SetDefault("log.console.enabled", true)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// Redacted returns a copy of the config with all secrets masked.
func (c *Config) Redacted() Config {
	out := *c

	for _, s := range []*string{
		&out.JWT.Secret,
		&out.DB.Password,
		&out.Redis.Password,
		&out.Seed.AdminPassword,
		&out.Seed.UserPassword,
	} {
		if *s != "" {
			*s = redactedValue
		}
	}

	return out
}

// SigningSecret returns the configured JWT secret, falling back to
// DefaultDevSecret in dev mode only.
func (c *Config) SigningSecret() string {
	if c.JWT.Secret == "" && c.DevMode {
		return DefaultDevSecret
	}

	return c.JWT.Secret
}

// validate minimal config settings.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	switch c.DB.GormEngine {
	case EngineSQLite, EnginePostgres, EngineMySQL:
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	if c.JWT.LifetimeMinutes <= 0 {
		c.JWT.LifetimeMinutes = DefaultTokenLifetimeMinutes
	}

	if !c.DevMode && (c.JWT.Secret == "" || c.JWT.Secret == DefaultDevSecret) {
		return errors.Wrap(ErrSigningSecretRequired, invalidErrMessage)
	}

	if c.LDAP.Enabled && c.LDAP.Host == "" {
		return errors.Wrap(ErrLDAPHostRequired, invalidErrMessage)
	}

	return nil
}

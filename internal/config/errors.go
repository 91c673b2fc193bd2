package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrUnknownGormEngine error if db.gormengine is not one of sqlite, postgres or mysql.
	ErrUnknownGormEngine = errors.New("config db.gormengine must be sqlite, postgres or mysql")

	// ErrSigningSecretRequired error if no jwt.secret is set outside dev mode.
	ErrSigningSecretRequired = errors.New("config jwt.secret must be set to a non default value outside dev mode")

	// ErrLDAPHostRequired error if ldap is enabled without a host.
	ErrLDAPHostRequired = errors.New("config ldap.host can not be empty when ldap is enabled")
)

package web

import (
	"net/http"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sg-semilla/semilla-auth/internal/config"
	"github.com/sg-semilla/semilla-auth/internal/db/models"
	"github.com/sg-semilla/semilla-auth/internal/web/handler"
	authhandler "github.com/sg-semilla/semilla-auth/internal/web/handler/auth"
)

const loginPath = authhandler.Path + "/login"

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	for _, identifier := range []string{"admin", "00000000"} {
		t.Run(identifier, func(t *testing.T) {
			status, body := env.do(http.MethodPost, loginPath, "", authhandler.LoginRequest{
				UsernameOrDocumentNumber: identifier,
				Password:                 testAdminPassword,
			})
			require.Equal(t, http.StatusOK, status, string(body))

			session := decode[authhandler.SessionResponse](t, body)
			assert.NotEmpty(t, session.Token)
			assert.WithinDuration(t, time.Now().Add(time.Hour), session.Expiration, time.Minute)
			require.NotNil(t, session.User)
			assert.Equal(t, "admin", session.User.Username)
			assert.Equal(t, "Administrator", session.User.RoleName)
			assert.NotNil(t, session.User.LastLogin)

			principal, err := env.issuer.Parse(session.Token)
			require.NoError(t, err)

			want := allPermissionCodes()
			sort.Strings(want)
			assert.Equal(t, want, principal.PermissionList())
		})
	}
}

func TestLoginRejected(t *testing.T) {
	env := newTestEnv(t)

	inactive := env.createUser("carol", "33333333", "Carol123!", env.guestRole.ID)
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	tests := []struct {
		name       string
		identifier string
		password   string
		status     int
		message    string
	}{
		{"wrong password", "admin", "nope", http.StatusUnauthorized, "invalid username or password"},
		{"unknown identifier", "nobody", "whatever", http.StatusUnauthorized, "invalid username or password"},
		{"inactive account", "carol", "Carol123!", http.StatusUnauthorized, "account is disabled"},
		{"missing identifier", "", "whatever", http.StatusBadRequest, "validation failed"},
		{"missing password", "admin", "", http.StatusBadRequest, "validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(http.MethodPost, loginPath, "", authhandler.LoginRequest{
				UsernameOrDocumentNumber: tt.identifier,
				Password:                 tt.password,
			})
			assert.Equal(t, tt.status, status, string(body))
			assert.Equal(t, tt.message, decode[handler.ValidationResponse](t, body).Message)
			assert.NotContains(t, string(body), "token")
		})
	}
}

func TestLoginProvisioning(t *testing.T) {
	env := newDirectoryTestEnv(t, acceptingDirectory{}, func(c *config.Config) {
		c.LDAP.EmailDomain = "corp.local"
	})

	status, body := env.do(http.MethodPost, loginPath, "", authhandler.LoginRequest{
		UsernameOrDocumentNumber: "erin",
		Password:                 "Directory123!",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	session := decode[authhandler.SessionResponse](t, body)
	assert.True(t, session.User.IsLdapUser)
	assert.Equal(t, "Guest", session.User.RoleName)

	// zed already owns the email frank would be provisioned with
	zed := env.createUser("zed", "55555555", "Zed12345!", env.guestRole.ID)
	require.NoError(t, env.db.Model(zed).Update("email", "frank@corp.local").Error)

	status, body = env.do(http.MethodPost, loginPath, "", authhandler.LoginRequest{
		UsernameOrDocumentNumber: "frank",
		Password:                 "Directory123!",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "authentication failed", decode[handler.MessageResponse](t, body).Message)
	assert.NotContains(t, string(body), "email")
}

func TestLoginProvisioningWithoutDefaultRole(t *testing.T) {
	env := newDirectoryTestEnv(t, acceptingDirectory{}, func(c *config.Config) {
		c.Auth.DefaultRole = "Ghost"
	})

	status, body := env.do(http.MethodPost, loginPath, "", authhandler.LoginRequest{
		UsernameOrDocumentNumber: "erin",
		Password:                 "Directory123!",
	})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "default role is not configured", decode[handler.MessageResponse](t, body).Message)

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Where("username = ?", "erin").Count(&count).Error)
	assert.Zero(t, count)
}

func TestLoginMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(http.MethodPost, loginPath, "", "not an object")
	assert.Equal(t, http.StatusBadRequest, status, string(body))
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Webserver.LoginRateLimit = config.LoginRateLimit{Enabled: true, Max: 2, Expiration: time.Minute}
	})

	req := authhandler.LoginRequest{UsernameOrDocumentNumber: "admin", Password: "nope"}

	for range 2 {
		status, _ := env.do(http.MethodPost, loginPath, "", req)
		assert.Equal(t, http.StatusUnauthorized, status)
	}

	status, body := env.do(http.MethodPost, loginPath, "", req)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, string(body), "too many login attempts")
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t)
	bearer := env.login("admin", testAdminPassword)
	raw := strings.TrimPrefix(bearer, "Bearer ")

	// the scheme is optional and validation has no side effects
	for _, header := range []string{bearer, raw, bearer, "bearer " + raw} {
		status, body := env.do(http.MethodGet, authhandler.Path+"/validate", header, nil)
		require.Equal(t, http.StatusOK, status, string(body))

		out := decode[authhandler.ValidateResponse](t, body)
		assert.True(t, out.IsValid)
		assert.Equal(t, "admin", out.Username)
		assert.Equal(t, []string{"Administrator"}, out.Roles)
	}
}

func TestValidateRejected(t *testing.T) {
	env := newTestEnv(t)
	bearer := env.login("admin", testAdminPassword)

	for name, header := range map[string]string{
		"missing":  "",
		"scheme":   "Bearer",
		"garbage":  "Bearer abc123",
		"tampered": bearer + "x",
	} {
		t.Run(name, func(t *testing.T) {
			status, body := env.do(http.MethodGet, authhandler.Path+"/validate", header, nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "invalid or missing token", decode[handler.MessageResponse](t, body).Message)
		})
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	req := authhandler.RegisterRequest{
		Username:       "erin",
		Email:          "erin@example.com",
		DocumentNumber: "44444444",
		Password:       "Erin1234!",
		RoleID:         env.guestRole.ID,
	}

	status, body := env.do(http.MethodPost, authhandler.Path+"/register", "", req)
	require.Equal(t, http.StatusCreated, status, string(body))

	session := decode[authhandler.SessionResponse](t, body)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "erin", session.User.Username)
	assert.Equal(t, "Guest", session.User.RoleName)
	assert.False(t, session.User.IsLdapUser)

	env.login("44444444", "Erin1234!")

	t.Run("duplicate username", func(t *testing.T) {
		dup := req
		dup.Email = "other@example.com"

		status, body := env.do(http.MethodPost, authhandler.Path+"/register", "", dup)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "username is already in use", decode[handler.ValidationResponse](t, body).Message)
	})

	t.Run("unknown role", func(t *testing.T) {
		bad := req
		bad.Username = "frank"
		bad.Email = "frank@example.com"
		bad.RoleID = 999

		status, _ := env.do(http.MethodPost, authhandler.Path+"/register", "", bad)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("invalid fields", func(t *testing.T) {
		status, body := env.do(http.MethodPost, authhandler.Path+"/register", "", authhandler.RegisterRequest{
			Username: "x",
			Email:    "not-an-email",
			Password: "123",
		})
		require.Equal(t, http.StatusBadRequest, status)

		fields := decode[handler.ValidationResponse](t, body).Errors
		assert.Contains(t, fields, "username")
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "documentNumber")
		assert.Contains(t, fields, "password")
		assert.Contains(t, fields, "roleId")
	})
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	bearer := env.login("guest", testGuestPassword)

	status, body := env.do(http.MethodPost, authhandler.Path+"/refresh", bearer, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	session := decode[authhandler.SessionResponse](t, body)
	assert.NotEqual(t, strings.TrimPrefix(bearer, "Bearer "), session.Token)
	assert.Equal(t, "guest", session.User.Username)

	require.NoError(t, env.db.Model(&models.User{}).Where("username = ?", "guest").Update("is_active", false).Error)

	status, _ = env.do(http.MethodPost, authhandler.Path+"/refresh", bearer, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(http.MethodPost, authhandler.Path+"/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDevToken(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodGet, authhandler.Path+"/dev-token", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	dev := newTestEnv(t, func(c *config.Config) { c.DevMode = true })

	status, body := dev.do(http.MethodGet, authhandler.Path+"/dev-token", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	session := decode[authhandler.SessionResponse](t, body)
	assert.Equal(t, authhandler.DevTokenUser, session.User.Username)

	status, _ = dev.do(http.MethodGet, authhandler.Path+"/validate", "Bearer "+session.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCheckAliveAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(http.MethodGet, CheckAlivePath, "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", string(body))

	env.service.alive.Store(false)

	status, _ = env.do(http.MethodGet, CheckAlivePath, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.False(t, env.service.Alive())

	env.login("admin", testAdminPassword)

	status, body = env.do(http.MethodGet, MetricsPath, "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "login_attempts_total")
}

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sg-semilla/semilla-auth/internal/auth"
	"github.com/sg-semilla/semilla-auth/internal/cache"
	"github.com/sg-semilla/semilla-auth/internal/config"
	"github.com/sg-semilla/semilla-auth/internal/db/controller/permission"
	"github.com/sg-semilla/semilla-auth/internal/db/controller/role"
	"github.com/sg-semilla/semilla-auth/internal/db/controller/user"
	"github.com/sg-semilla/semilla-auth/internal/db/dbtest"
	"github.com/sg-semilla/semilla-auth/internal/db/models"
	"github.com/sg-semilla/semilla-auth/internal/web/handler"
)

const (
	testSecret        = "web-test-secret-0123456789abcdef0123"
	testAdminPassword = "Admin123!"
	testGuestPassword = "Guest123!"
)

func TestMain(m *testing.M) {
	auth.HashParams = &argon2id.Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}

	os.Exit(m.Run())
}

type testEnv struct {
	t         *testing.T
	db        *gorm.DB
	cfg       *config.Config
	service   *Service
	issuer    *auth.TokenIssuer
	adminRole *models.Role
	guestRole *models.Role
}

func testConfig() *config.Config {
	return &config.Config{
		Title: "semilla-auth-test",
		JWT: config.JWT{
			Secret:          testSecret,
			Issuer:          "semilla-auth",
			Audience:        "semilla-auth-clients",
			LifetimeMinutes: 60,
		},
		Auth: config.Auth{DefaultRole: "Guest"},
	}
}

func allPermissionCodes() []string {
	defs := auth.BuiltinPermissions()
	codes := make([]string, 0, len(defs))

	for _, def := range defs {
		codes = append(codes, def.Code)
	}

	return codes
}

// newTestEnv serves the full API over an in-memory database holding an
// Administrator role with every permission and a Guest role that can read users.
func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	return newDirectoryTestEnv(t, auth.NoDirectory{}, mutate...)
}

// newDirectoryTestEnv is newTestEnv with logins falling back to dir.
func newDirectoryTestEnv(t *testing.T, dir auth.Directory, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	db := dbtest.Open(t)

	env := &testEnv{
		t:         t,
		db:        db,
		cfg:       cfg,
		adminRole: dbtest.Role(t, db, "Administrator", allPermissionCodes()...),
		guestRole: dbtest.Role(t, db, "Guest", auth.PermUsersRead, auth.PermRolesRead),
	}

	env.createUser("admin", "00000000", testAdminPassword, env.adminRole.ID)
	env.createUser("guest", "22222222", testGuestPassword, env.guestRole.ID)

	users := user.New(db)
	roles := role.New(db, cache.Nop{})

	issuer, err := auth.NewTokenIssuer(cfg)
	require.NoError(t, err)

	env.issuer = issuer

	deps := &handler.Deps{
		Auth:        auth.NewService(auth.NewAuthenticator(cfg, users, roles, dir), users, roles, issuer),
		Users:       users,
		Roles:       roles,
		Permissions: permission.New(db, cache.Nop{}),
	}

	env.service, err = New(cfg, deps)
	require.NoError(t, err)

	return env
}

func (e *testEnv) createUser(username, documentNumber, password string, roleID uint) *models.User {
	e.t.Helper()

	hash, salt, err := auth.HashPassword(password)
	require.NoError(e.t, err)

	u := &models.User{
		Username:       username,
		Email:          username + "@example.com",
		DocumentNumber: documentNumber,
		PasswordHash:   hash,
		Salt:           salt,
		Active:         true,
		RoleID:         roleID,
	}
	require.NoError(e.t, e.db.Omit("Role").Create(u).Error)

	return u
}

// do sends a request and returns the status and the raw body. authorization is
// sent verbatim when not empty.
func (e *testEnv) do(method, path, authorization string, body any) (int, []byte) {
	e.t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := e.service.App.Test(req)
	require.NoError(e.t, err)

	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)

	return resp.StatusCode, out
}

// login returns a bearer header value for the given credentials.
func (e *testEnv) login(identifier, password string) string {
	e.t.Helper()

	status, body := e.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"usernameOrDocumentNumber": identifier,
		"password":                 password,
	})
	require.Equal(e.t, http.StatusOK, status, string(body))

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(e.t, json.Unmarshal(body, &session))
	require.NotEmpty(e.t, session.Token)

	return "Bearer " + session.Token
}

// acceptingDirectory vouches for every identifier.
type acceptingDirectory struct{}

func (acceptingDirectory) Authenticate(context.Context, string, string) (auth.DirectoryStatus, error) {
	return auth.DirectoryOK, nil
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))

	return out
}

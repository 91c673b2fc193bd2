package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	issuer := newTestIssuer(t)

	reader, err := issuer.Issue(testUser(), []string{PermUsersRead})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/users",
		RequireAuthenticated(issuer),
		RequirePermission(PermUsersRead),
		func(c fiber.Ctx) error {
			principal, ok := PrincipalFrom(c)
			if !ok {
				return fiber.ErrInternalServerError
			}

			return c.SendString(principal.Subject)
		},
	)
	app.Delete("/users",
		RequireAuthenticated(issuer),
		RequirePermission(PermUsersDelete),
		func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) },
	)
	app.Get("/unguarded", RequirePermission(PermUsersRead), func(c fiber.Ctx) error { return nil })

	testCases := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"no header", http.MethodGet, "/users", "", fiber.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/users", "Bearer abc123", fiber.StatusUnauthorized},
		{"bearer token", http.MethodGet, "/users", "Bearer " + reader.Value, fiber.StatusOK},
		{"raw token", http.MethodGet, "/users", reader.Value, fiber.StatusOK},
		{"missing permission", http.MethodDelete, "/users", reader.Value, fiber.StatusForbidden},
		{"permission without authentication", http.MethodGet, "/unguarded", reader.Value, fiber.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}

			resp, errTest := app.Test(req)
			require.NoError(t, errTest)

			defer resp.Body.Close()

			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

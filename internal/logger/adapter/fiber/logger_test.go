package fiber_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sg-semilla/semilla-auth/internal/logger"
	adapter "github.com/sg-semilla/semilla-auth/internal/logger/adapter/fiber"
)

// accessLine mirrors the fields written per request.
type accessLine struct {
	RequestID string  `json:"requestId"`
	IP        string  `json:"IP"`
	Status    int     `json:"status"`
	Perf      float64 `json:"X-Performance"`
	URI       string  `json:"URI"`
	Method    string  `json:"method"`
	Host      string  `json:"host"`
	Error     string  `json:"error"`
}

func newTestApp(cfg adapter.Config) *fiber.App {
	app := fiber.New(fiber.Config{CaseSensitive: true, Immutable: true})
	app.Use(adapter.New(cfg))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("hello test")
	})
	app.Get("/checkalive", func(c fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/teapot", func(_ fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	return app
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		targetPath string
		wantStatus int
		wantURI    string
		wantError  bool
	}{
		{name: "root", targetPath: "/", wantStatus: fiber.StatusOK, wantURI: "/"},
		{name: "query string is kept", targetPath: "/?test=123", wantStatus: fiber.StatusOK, wantURI: "/?test=123"},
		{name: "double slash is kept", targetPath: "//test", wantStatus: fiber.StatusNotFound, wantURI: "//test", wantError: true},
		{name: "handler error", targetPath: "/teapot", wantStatus: fiber.StatusTeapot, wantURI: "/teapot", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			app := newTestApp(adapter.Config{Output: &buf})

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tt.targetPath, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
			assert.NotEmpty(t, resp.Header.Get(adapter.HeaderPerformance))

			var line accessLine
			require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))

			assert.Equal(t, tt.wantStatus, line.Status)
			assert.Equal(t, tt.wantURI, line.URI)
			assert.Equal(t, fiber.MethodGet, line.Method)
			assert.Equal(t, "example.com", line.Host)
			assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), line.RequestID)
			assert.Equal(t, tt.wantError, line.Error != "")
		})
	}
}

func TestNewKeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer

	app := newTestApp(adapter.Config{Output: &buf})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc-123")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(fiber.HeaderXRequestID))
	assert.Contains(t, buf.String(), `"requestId":"abc-123"`)
}

func TestNewSkipsCheckAlive(t *testing.T) {
	var buf bytes.Buffer

	app := newTestApp(adapter.Config{
		Output:        &buf,
		CheckAliveURI: "/checkalive",
		Config:        logger.Log{DisableCheckAlive: true},
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/checkalive", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, strings.TrimSpace(buf.String()))
}

func TestNextSkipsLogging(t *testing.T) {
	var buf bytes.Buffer

	app := newTestApp(adapter.Config{
		Output: &buf,
		Next:   func(_ fiber.Ctx) bool { return true },
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vyrodovalexey/avroute/internal/config"
	"github.com/vyrodovalexey/avroute/internal/dispatch"
	"github.com/vyrodovalexey/avroute/internal/observability"
)

func strPtr(s string) *string { return &s }

// newTestApplication builds the demo application with a static mount at
// /static backed by a temp dir that has a sibling secret file. modify, if
// given, adjusts the config before the application is built.
func newTestApplication(t *testing.T, modify ...func(*config.Config)) *application {
	t.Helper()

	root := t.TempDir()
	public := filepath.Join(root, "public")
	require.NoError(t, os.MkdirAll(public, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(public, "hello.txt"), []byte("hello from disk"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("do not serve"), 0o600))

	cfg := config.DefaultConfig()
	cfg.Server.Address = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Static.Mounts = []config.StaticMount{{Prefix: "/static", Dir: public}}
	for _, fn := range modify {
		fn(cfg)
	}

	app, err := newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.close() })
	return app
}

func TestDemoRoutes_Scenarios(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t)

	tests := []struct {
		name     string
		method   string
		target   string
		body     *string
		headers  map[string]string
		expected dispatch.SimulatedResponse
	}{
		{
			name: "user profile", method: http.MethodGet, target: "/users/Jimmy",
			expected: dispatch.SimulatedResponse{Body: "User profile: Jimmy", StatusCode: 200, ContentType: "text/plain"},
		},
		{
			name: "echo", method: http.MethodPost, target: "/echo", body: strPtr("test post body"),
			expected: dispatch.SimulatedResponse{Body: "You sent: test post body", StatusCode: 201, ContentType: "text/plain"},
		},
		{
			name: "update", method: http.MethodPut, target: "/update", body: strPtr("test put body"),
			expected: dispatch.SimulatedResponse{Body: "Updated data: test put body", StatusCode: 200, ContentType: "text/plain"},
		},
		{
			name: "method not allowed", method: http.MethodDelete, target: "/users/Jimmy",
			expected: dispatch.SimulatedResponse{Body: "Method not allowed", StatusCode: 405, ContentType: "text/plain"},
		},
		{
			name: "group parameter", method: http.MethodGet, target: "/api/test/123",
			expected: dispatch.SimulatedResponse{Body: "Parameter: 123", StatusCode: 200, ContentType: "text/plain"},
		},
		{
			name: "extra segment", method: http.MethodGet, target: "/api/test/123/456",
			expected: dispatch.SimulatedResponse{Body: "Not found", StatusCode: 404, ContentType: "text/plain"},
		},
		{
			name: "params rendering", method: http.MethodGet, target: "/api2/test/123?a=1&b=2",
			expected: dispatch.SimulatedResponse{Body: "{1=123, a=1, b=2}", StatusCode: 200, ContentType: "text/plain"},
		},
		{
			name: "header filter rejects", method: http.MethodGet, target: "/foo/bar",
			headers:  map[string]string{"sucks": "true"},
			expected: dispatch.SimulatedResponse{Body: "Access Denied", StatusCode: 403, ContentType: "text/plain"},
		},
		{
			name: "header filter passes", method: http.MethodGet, target: "/foo/bar",
			expected: dispatch.SimulatedResponse{Body: "bar", StatusCode: 200, ContentType: "text/plain"},
		},
		{
			name: "static file", method: http.MethodGet, target: "/static/hello.txt",
			expected: dispatch.SimulatedResponse{Body: "hello from disk", StatusCode: 200, ContentType: "text/plain"},
		},
		{
			name: "static traversal", method: http.MethodGet, target: "/static/../secret.txt",
			expected: dispatch.SimulatedResponse{Body: "File not found", StatusCode: 404, ContentType: "text/plain"},
		},
		{
			name: "admin without role", method: http.MethodGet, target: "/admin/routes",
			expected: dispatch.SimulatedResponse{Body: "Access Denied", StatusCode: 403, ContentType: "text/plain"},
		},
		{
			name: "admin with role", method: http.MethodGet, target: "/admin/routes",
			headers:  map[string]string{"X-Role": "admin"},
			expected: dispatch.SimulatedResponse{Body: "9 endpoints", StatusCode: 200, ContentType: "text/plain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, app.server.DirectRequest(tt.method, tt.target, tt.body, tt.headers))
		})
	}
}

func TestDemoRoutes_RateLimited(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t)
	headers := map[string]string{"X-Client-ID": "greedy"}

	var limited int
	for i := 0; i < config.DefaultRateLimitBurst+5; i++ {
		resp := app.server.DirectRequest(http.MethodGet, "/limited/ping", nil, headers)
		if resp.StatusCode == http.StatusTooManyRequests {
			limited++
			assert.Equal(t, "Too Many Requests", resp.Body)
		}
	}
	assert.Positive(t, limited)

	other := app.server.DirectRequest(http.MethodGet, "/limited/ping", nil, map[string]string{"X-Client-ID": "polite"})
	assert.Equal(t, "pong", other.Body)
}

func TestDemoRoutes_RedisRateLimited(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	app := newTestApplication(t, func(c *config.Config) {
		c.Filters.RateLimit.Redis.Address = mr.Addr()
		c.Filters.RateLimit.Redis.Limit = 2
		c.Filters.RateLimit.Redis.Window = config.Duration(time.Minute)
	})
	require.NotNil(t, app.redisClient)

	headers := map[string]string{"X-Client-ID": "shared"}

	// Five requests span at most two windows, so at least one is rejected.
	var limited int
	for i := 0; i < 5; i++ {
		resp := app.server.DirectRequest(http.MethodGet, "/limited/ping", nil, headers)
		if resp.StatusCode == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Positive(t, limited)
	assert.NotEmpty(t, mr.Keys())
}

func TestDemoRoutes_UnstableBreaker(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t, func(c *config.Config) {
		c.Filters.Breaker.Threshold = 3
		c.Filters.Breaker.Timeout = config.Duration(time.Hour)
	})

	ok := app.server.DirectRequest(http.MethodGet, "/unstable/work", nil, nil)
	assert.Equal(t, dispatch.SimulatedResponse{Body: "work done", StatusCode: 200, ContentType: "text/plain"}, ok)

	for i := 0; i < 2; i++ {
		resp := app.server.DirectRequest(http.MethodGet, "/unstable/work?fail=true", nil, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}

	open := app.server.DirectRequest(http.MethodGet, "/unstable/work", nil, nil)
	assert.Equal(t, dispatch.SimulatedResponse{
		Body: "Service Unavailable", StatusCode: 503, ContentType: "text/plain",
	}, open)
}

func TestDemoRoutes_APIKey(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)

	app := newTestApplication(t, func(c *config.Config) {
		c.Filters.APIKey.Keys = []string{string(hash)}
	})

	denied := app.server.DirectRequest(http.MethodGet, "/secure/whoami", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, denied.StatusCode)
	assert.Equal(t, "Unauthorized", denied.Body)

	allowed := app.server.DirectRequest(http.MethodGet, "/secure/whoami", nil, map[string]string{"X-API-Key": "letmein"})
	assert.Equal(t, "authorized", allowed.Body)

	count := app.server.DirectRequest(http.MethodGet, "/admin/routes", nil, map[string]string{"X-Role": "admin"})
	assert.Equal(t, "10 endpoints", count.Body)
}

func TestDemoRoutes_JWTProfile(t *testing.T) {
	t.Parallel()

	const secret = "0123456789abcdef0123456789abcdef"
	app := newTestApplication(t, func(c *config.Config) {
		c.Filters.JWT.Secret = secret
		c.Filters.JWT.Issuer = "avroute-test"
	})

	tok, err := jwt.NewBuilder().
		Subject("Jimmy").
		Issuer("avroute-test").
		Expiration(time.Now().Add(time.Hour)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
	require.NoError(t, err)

	denied := app.server.DirectRequest(http.MethodGet, "/me/profile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, denied.StatusCode)

	resp := app.server.DirectRequest(http.MethodGet, "/me/profile", nil,
		map[string]string{"Authorization": "Bearer " + string(signed)})
	assert.Equal(t, dispatch.SimulatedResponse{Body: "Hello, Jimmy", StatusCode: 200, ContentType: "text/plain"}, resp)
}

func TestDemoRoutes_SecureAbsentWithoutKeys(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t)

	resp := app.server.DirectRequest(http.MethodGet, "/secure/whoami", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApplication_StartShutdown(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t)
	require.NoError(t, app.start())

	resp, err := http.Post("http://"+app.server.Addr()+"/echo", "text/plain", strings.NewReader("over the wire"))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "You sent: over the wire", string(body))

	app.shutdown(nil, observability.NopLogger())
	assert.False(t, app.server.IsRunning())
	assert.NoError(t, app.server.Stop(context.Background()))
}

func TestApplyReload(t *testing.T) {
	t.Parallel()

	newLogger := func(t *testing.T) (observability.Logger, observability.LevelSetter) {
		t.Helper()
		logger, err := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
		require.NoError(t, err)
		setter, ok := logger.(observability.LevelSetter)
		require.True(t, ok)
		return logger, setter
	}

	reloaded := config.DefaultConfig()
	reloaded.Logging.Level = "error"

	t.Run("applies level from file", func(t *testing.T) {
		t.Parallel()
		logger, setter := newLogger(t)
		applyReload(reloaded, cliFlags{}, logger)
		assert.Equal(t, "error", setter.Level())
	})

	t.Run("flag level wins", func(t *testing.T) {
		t.Parallel()
		logger, setter := newLogger(t)
		applyReload(reloaded, cliFlags{logLevel: "info"}, logger)
		assert.Equal(t, "info", setter.Level())
	})

	t.Run("logger without level control", func(t *testing.T) {
		t.Parallel()
		assert.NotPanics(t, func() {
			applyReload(reloaded, cliFlags{}, observability.NopLogger())
		})
	})
}

func TestStartConfigWatcher(t *testing.T) {
	t.Parallel()

	assert.Nil(t, startConfigWatcher(context.Background(), cliFlags{}, observability.NopLogger()))

	path := filepath.Join(t.TempDir(), "avroute.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600))

	logger, err := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	setter := logger.(observability.LevelSetter)

	watcher := startConfigWatcher(context.Background(), cliFlags{configPath: path}, logger)
	require.NotNil(t, watcher)
	t.Cleanup(func() { _ = watcher.Stop() })

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))

	assert.Eventually(t, func() bool { return setter.Level() == "debug" }, 5*time.Second, 20*time.Millisecond)
}

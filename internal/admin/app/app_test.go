package app_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/greenadmin/internal/admin/app"
)

const seedFile = `
Seed:
  ApiScopes:
    - Name: orders.read
  Clients:
    - ClientId: web
      AllowedGrantTypes: [client_credentials]
      AllowedScopes: [orders.read]
      ClientSecrets:
        - Value: s3cret
  Roles:
    - Name: Admin
  Users:
    - UserName: alice
      Email: alice@example.com
      Password: hunter2
  UserRoles:
    - Email: alice@example.com
      Roles: [Admin]
`

func newApp(t *testing.T) (*app.Application, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedFile), 0o600))

	cfg := app.Config{
		Env:                  "test",
		Port:                 0,
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
		DatabaseDriver:       "sqlite",
		DatabaseDSN:          ":memory:",
		PepperFile:           filepath.Join(dir, "pepper"),
		AdminAPIKey:          "key",
		SeedFile:             path,
		SeedActor:            "bootstrap",
	}

	a, err := app.NewWithLogger(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, path
}

func TestSeedFromFile(t *testing.T) {
	ctx := context.Background()
	a, _ := newApp(t)

	results, err := a.Seed(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for _, r := range results {
		require.False(t, r.Skipped, r.Kind)
	}

	results, err = a.Seed(ctx, "", false)
	require.NoError(t, err)
	for _, r := range results {
		require.True(t, r.Skipped, r.Kind)
	}

	var buf bytes.Buffer
	require.NoError(t, a.Export(ctx, &buf))
	require.Contains(t, buf.String(), "clientId: web")
	require.Contains(t, buf.String(), "isHashed: true")
	require.NotContains(t, buf.String(), "hunter2")
}

func TestSeedRequiresFile(t *testing.T) {
	a, _ := newApp(t)

	_, err := a.Seed(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.Error(t, err)

	cfg := app.Config{DatabaseDSN: ":memory:", PepperFile: filepath.Join(t.TempDir(), "pepper")}
	bare, err := app.NewWithLogger(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bare.Close() })

	_, err = bare.Seed(context.Background(), "", false)
	require.ErrorIs(t, err, app.ErrNoSeedFile)
}

func TestHandlerServesAdminAPI(t *testing.T) {
	a, _ := newApp(t)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/roles", nil)
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("X-Admin-API-Key", "key")
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	_, err := app.OpenStore("postgres", "postgres://localhost")
	require.ErrorContains(t, err, "unsupported database driver")
}

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiosales/web-gateway/config"
	"audiosales/web-gateway/handlers"
	"audiosales/web-gateway/internal/metrics"
	"audiosales/web-gateway/internal/session"
	"audiosales/web-gateway/middleware"
)

func TestCheckConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  base_url: https://func.example.net/api
  function_key: secret-key
storage:
  account_name: acct
`), 0o600))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"check-config", "--config", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "https://func.example.net/api")
	assert.NotContains(t, out.String(), "secret-key")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("log:\n  level: debug\n"), 0o600))
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"check-config", "--config", bad})
	assert.Error(t, cmd.Execute())
}

func TestAppServesHealthMetricsAndGuardsPages(t *testing.T) {
	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html></html>"), 0o600))

	cfg := config.DefaultConfig()
	cfg.Server.StaticDir = static
	logger, _ := logtest.NewNullLogger()
	m := metrics.New(prometheus.NewRegistry())
	tokens := session.NewTokens("page-secret", time.Hour)
	sess := middleware.SessionConfig{Guard: session.NewGuard(session.DefaultRules(), tokens), Logger: logger}
	app := newApp(cfg, logger, m, handlers.NewApplicationHandler(logger), sess)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/feedback/3", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/meetings", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

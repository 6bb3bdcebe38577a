package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "KB_BACKEND_URL", "KB_API_TOKEN", "KB_JWT_SECRET", "KB_DATA_DIR", "KB_DEBUG"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dashboard.yaml")
	clearOverrides(t)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "default config should be written")

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, int64(52428800), cfg.Upload.MaxFileSizeBytes)
	assert.Equal(t, filepath.Join(dir, "data", "uploads"), cfg.GetUploadDir())
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dashboard.yaml")
	content := `
server:
  port: 9090
backend:
  baseURL: http://kb.internal:8080
  readTimeoutSeconds: 3
upload:
  uploadsDirectory: /var/kb/uploads
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	clearOverrides(t)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://kb.internal:8080", cfg.Backend.BaseURL)
	assert.Equal(t, "/graph-data", cfg.Backend.GraphPath, "unset keys keep defaults")
	assert.Equal(t, "3s", cfg.BackendReadTimeout().String())
	assert.Equal(t, "/var/kb/uploads", cfg.GetUploadDir())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dashboard.yaml")

	t.Setenv("PORT", "4100")
	t.Setenv("KB_BACKEND_URL", "https://kb.example.com")
	t.Setenv("KB_API_TOKEN", "secret-token")
	t.Setenv("KB_DEBUG", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4100, cfg.Server.Port)
	assert.Equal(t, "https://kb.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, "secret-token", cfg.Security.APIToken)
	assert.True(t, cfg.Advanced.Debug)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *AppConfig) {}},
		{name: "relative backend url", mutate: func(c *AppConfig) { c.Backend.BaseURL = "kb:8000" }, wantErr: true},
		{name: "bad port", mutate: func(c *AppConfig) { c.Server.Port = 0 }, wantErr: true},
		{name: "zero size limit", mutate: func(c *AppConfig) { c.Upload.MaxFileSizeBytes = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Upload.DataDirectory = filepath.Join(dir, "data")
	cfg.Upload.UploadsDirectory = filepath.Join(dir, "data", "uploads")

	require.NoError(t, cfg.EnsureDirectories())

	info, err := os.Stat(cfg.Upload.UploadsDirectory)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

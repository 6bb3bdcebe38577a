// Package config provides YAML-based configuration with environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Knowledge-base backend the dashboard reads from
	Backend BackendConfig `yaml:"backend"`

	// Upload candidate storage and limits
	Upload UploadConfig `yaml:"upload"`

	// View session lifecycle
	Views ViewsConfig `yaml:"views"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`

	// Advanced options
	Advanced AdvancedConfig `yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	EnableCORS   bool   `yaml:"enableCORS"`
	AllowOrigins string `yaml:"allowOrigins"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
	BodyLimit    string `yaml:"bodyLimit"`
}

// BackendConfig describes how to reach the knowledge-base backend
type BackendConfig struct {
	BaseURL              string  `yaml:"baseURL"`
	StatsPath            string  `yaml:"statsPath"`
	GraphPath            string  `yaml:"graphPath"`
	UploadPath           string  `yaml:"uploadPath"`
	ReadTimeoutSeconds   int     `yaml:"readTimeoutSeconds"`
	UploadTimeoutSeconds int     `yaml:"uploadTimeoutSeconds"`
	RequestsPerSecond    float64 `yaml:"requestsPerSecond"`
	Burst                int     `yaml:"burst"`
}

// UploadConfig contains upload candidate settings
type UploadConfig struct {
	DataDirectory    string `yaml:"dataDirectory"`
	UploadsDirectory string `yaml:"uploadsDirectory"`
	MaxFileSizeBytes int64  `yaml:"maxFileSizeBytes"`
}

// ViewsConfig controls how long mounted views are kept
type ViewsConfig struct {
	MaxViews               int `yaml:"maxViews"`
	IdleTimeoutMinutes     int `yaml:"idleTimeoutMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
}

// SecurityConfig contains credentials used toward the backend
type SecurityConfig struct {
	APIToken       string `yaml:"apiToken"`
	JWTSecret      string `yaml:"jwtSecret"`
	JWTIssuer      string `yaml:"jwtIssuer"`
	JWTTTLSeconds  int    `yaml:"jwtTTLSeconds"`
	ForwardAuth    bool   `yaml:"forwardAuth"`
	AuthCookieName string `yaml:"authCookieName"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	Debug                   bool `yaml:"debug"`
	EnableRequestLogging    bool `yaml:"enableRequestLogging"`
	EnableMetrics           bool `yaml:"enableMetrics"`
	EnableCompression       bool `yaml:"enableCompression"`
	CompressionLevel        int  `yaml:"compressionLevel"`
	WebSocketMaxMessageSize int  `yaml:"webSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         3000,
			BindAddress:  "0.0.0.0",
			EnableCORS:   false,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 180,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Backend: BackendConfig{
			BaseURL:              "http://localhost:8000",
			StatsPath:            "/kbData",
			GraphPath:            "/graph-data",
			UploadPath:           "/upload",
			ReadTimeoutSeconds:   15,
			UploadTimeoutSeconds: 120,
			RequestsPerSecond:    10,
			Burst:                5,
		},
		Upload: UploadConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			MaxFileSizeBytes: 50 * 1024 * 1024,
		},
		Views: ViewsConfig{
			MaxViews:               200,
			IdleTimeoutMinutes:     30,
			CleanupIntervalMinutes: 5,
		},
		Security: SecurityConfig{
			JWTIssuer:      "kb-dashboard",
			JWTTTLSeconds:  300,
			ForwardAuth:    true,
			AuthCookieName: "token",
		},
		Advanced: AdvancedConfig{
			EnableRequestLogging:    true,
			EnableMetrics:           true,
			EnableCompression:       true,
			CompressionLevel:        5,
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is created
// with defaults. Values from .env and the process environment override the file.
func LoadConfig(configPath string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Knowledge Base Dashboard configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that would otherwise fail late at request time.
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base URL %q", c.Backend.BaseURL)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Upload.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("maxFileSizeBytes must be positive")
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if backend := os.Getenv("KB_BACKEND_URL"); backend != "" {
		c.Backend.BaseURL = backend
	}

	if token := os.Getenv("KB_API_TOKEN"); token != "" {
		c.Security.APIToken = token
	}

	if secret := os.Getenv("KB_JWT_SECRET"); secret != "" {
		c.Security.JWTSecret = secret
	}

	if dataDir := os.Getenv("KB_DATA_DIR"); dataDir != "" {
		c.Upload.DataDirectory = dataDir
		c.Upload.UploadsDirectory = filepath.Join(dataDir, "uploads")
	}

	if debug := os.Getenv("KB_DEBUG"); debug == "true" || debug == "false" {
		c.Advanced.Debug = debug == "true"
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Upload.DataDirectory) {
		c.Upload.DataDirectory = filepath.Join(configDir, c.Upload.DataDirectory)
	}
	if !filepath.IsAbs(c.Upload.UploadsDirectory) {
		c.Upload.UploadsDirectory = filepath.Join(configDir, c.Upload.UploadsDirectory)
	}
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Upload.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// BackendReadTimeout is the deadline for a single stats or graph read.
func (c *AppConfig) BackendReadTimeout() time.Duration {
	return time.Duration(c.Backend.ReadTimeoutSeconds) * time.Second
}

// BackendUploadTimeout is the deadline for forwarding one upload.
func (c *AppConfig) BackendUploadTimeout() time.Duration {
	return time.Duration(c.Backend.UploadTimeoutSeconds) * time.Second
}

// ViewIdleTimeout is how long an untouched view is kept.
func (c *AppConfig) ViewIdleTimeout() time.Duration {
	return time.Duration(c.Views.IdleTimeoutMinutes) * time.Minute
}

// CleanupInterval is the period of the view cleanup ticker.
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Views.CleanupIntervalMinutes) * time.Minute
}

// JWTTTL is the lifetime of a minted service token.
func (c *AppConfig) JWTTTL() time.Duration {
	return time.Duration(c.Security.JWTTTLSeconds) * time.Second
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Upload.DataDirectory,
		c.Upload.UploadsDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

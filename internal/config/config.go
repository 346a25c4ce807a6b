// Package config loads Shelfside configuration from flags, the environment,
// an optional .env file and built-in defaults, in that order of precedence.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	Auth    AuthConfig
	Uploads UploadsConfig
	Reader  ReaderConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates everything the server writes to disk. Paths other than
// BasePath default to children of it.
type DataConfig struct {
	BasePath     string
	DatabasePath string // sqlite file
	UploadsPath  string // books, covers and avatars
	SearchPath   string // bleve index
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// AuthConfig holds token and login throttling settings.
type AuthConfig struct {
	TokenDuration time.Duration
	// LoginRate is the sustained login attempts allowed per client IP per minute.
	LoginRate  int
	LoginBurst int
}

// UploadsConfig bounds the size of uploaded files in bytes.
type UploadsConfig struct {
	MaxBookBytes   int64
	MaxCoverBytes  int64
	MaxAvatarBytes int64
}

// ReaderConfig configures the reading device side.
type ReaderConfig struct {
	// ProgressPath is the badger directory holding device-local reading progress.
	ProgressPath string
	// ServerURL is where book access is reported.
	ServerURL string
}

// LoadConfig loads configuration using the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load parses args and builds the configuration with precedence:
// flags, then environment variables, then the .env file, then defaults.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("shelfside", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for server data")
	dbPath := fs.String("db-path", "", "SQLite database file (default: {data}/shelfside.db)")
	uploadsPath := fs.String("uploads-path", "", "Upload directory (default: {data}/uploads)")
	searchPath := fs.String("search-path", "", "Search index directory (default: {data}/search)")

	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 30s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 120s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins")

	tokenDuration := fs.String("token-duration", "", "Access token lifetime (default: 720h)")
	loginRate := fs.String("login-rate", "", "Login attempts per minute per IP (default: 10)")
	loginBurst := fs.String("login-burst", "", "Login burst per IP (default: 5)")

	maxBook := fs.String("max-book-bytes", "", "Largest accepted EPUB (default: 100MiB)")
	maxCover := fs.String("max-cover-bytes", "", "Largest accepted cover (default: 10MiB)")
	maxAvatar := fs.String("max-avatar-bytes", "", "Largest accepted avatar (default: 5MiB)")

	progressPath := fs.String("progress-path", "", "Device reading progress directory")
	serverURL := fs.String("server-url", "", "Server base URL used by reading devices")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// A missing .env file is fine.
	if err := loadEnvFile(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := &Config{
		App:    AppConfig{Environment: getConfigValue(*env, "ENV", "development")},
		Logger: LoggerConfig{Level: getConfigValue(*logLevel, "LOG_LEVEL", "info")},
		Data: DataConfig{
			BasePath:     getConfigValue(*dataPath, "DATA_PATH", ""),
			DatabasePath: getConfigValue(*dbPath, "DB_PATH", ""),
			UploadsPath:  getConfigValue(*uploadsPath, "UPLOADS_PATH", ""),
			SearchPath:   getConfigValue(*searchPath, "SEARCH_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*port, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			LoginRate:  getIntConfigValue(*loginRate, "LOGIN_RATE", 10),
			LoginBurst: getIntConfigValue(*loginBurst, "LOGIN_BURST", 5),
		},
		Uploads: UploadsConfig{
			MaxBookBytes:   int64(getIntConfigValue(*maxBook, "MAX_BOOK_BYTES", 100<<20)),
			MaxCoverBytes:  int64(getIntConfigValue(*maxCover, "MAX_COVER_BYTES", 10<<20)),
			MaxAvatarBytes: int64(getIntConfigValue(*maxAvatar, "MAX_AVATAR_BYTES", 5<<20)),
		},
		Reader: ReaderConfig{
			ProgressPath: getConfigValue(*progressPath, "PROGRESS_PATH", ""),
			ServerURL:    getConfigValue(*serverURL, "SERVER_URL", "http://localhost:8080"),
		},
	}

	durations := []struct {
		dst          *time.Duration
		flag, envKey string
		def          string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "30s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "60s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "120s"},
		{&cfg.Auth.TokenDuration, *tokenDuration, "TOKEN_DURATION", "720h"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.def)
		v, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = v
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required values are present and in range.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty")
	}

	if p, err := strconv.Atoi(c.Server.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}

	if c.Auth.TokenDuration <= 0 {
		return errors.New("token duration must be positive")
	}
	if c.Auth.LoginRate <= 0 || c.Auth.LoginBurst <= 0 {
		return errors.New("login rate and burst must be positive")
	}

	if c.Uploads.MaxBookBytes <= 0 || c.Uploads.MaxCoverBytes <= 0 || c.Uploads.MaxAvatarBytes <= 0 {
		return errors.New("upload limits must be positive")
	}
	return nil
}

// expandPaths resolves ~ and relative paths and fills derived defaults.
func (c *Config) expandPaths() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get home directory: %w", err)
	}

	if c.Data.BasePath, err = expandPath(c.Data.BasePath, filepath.Join(home, "Shelfside", "data")); err != nil {
		return err
	}
	base := c.Data.BasePath

	for _, p := range []struct {
		dst *string
		def string
	}{
		{&c.Data.DatabasePath, filepath.Join(base, "shelfside.db")},
		{&c.Data.UploadsPath, filepath.Join(base, "uploads")},
		{&c.Data.SearchPath, filepath.Join(base, "search")},
		{&c.Reader.ProgressPath, filepath.Join(home, "Shelfside", "device", "progress")},
	} {
		if *p.dst, err = expandPath(*p.dst, p.def); err != nil {
			return err
		}
	}
	return nil
}

// expandPath expands ~ and makes path absolute, using defaultPath when path is empty.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, rest)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}

// getConfigValue returns the flag value, else the env var, else defaultValue.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// getIntConfigValue is getConfigValue for integers; unparsable values fall back to the default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile sets variables from a KEY=value file without overriding the environment.
func loadEnvFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // user-supplied config path
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("line %d: expected KEY=value", n)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

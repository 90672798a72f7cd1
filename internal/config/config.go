package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config holds the client settings.
type Config struct {
	APIURL         string
	DataDir        string
	LogLevel       string
	LogFormat      string
	PageSize       int
	RequestTimeout time.Duration
	DemoEmails     []string
	DemoUserID     int64
	Storage        string
}

const (
	defaultConfigPath     = "~/.config/rewear/config.toml"
	defaultDataDir        = "~/.local/share/rewear"
	defaultAPIURL         = "http://localhost:8000/api"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultPageSize       = 12
	defaultRequestTimeout = 10 * time.Second
	defaultDemoUserID     = 1
	envPrefix             = "REWEAR_"
)

var defaultDemoEmails = []string{"demo@example.com", "demo@rewear.com"}

type fileConfig struct {
	APIURL                string   `toml:"api_url"`
	DataDir               string   `toml:"data_dir"`
	LogLevel              string   `toml:"log_level"`
	LogFormat             string   `toml:"log_format"`
	PageSize              int      `toml:"page_size"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
	DemoEmails            []string `toml:"demo_emails"`
	DemoUserID            *int64   `toml:"demo_user_id"`
	Storage               string   `toml:"storage"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		DataDir:        mustExpand(defaultDataDir),
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
		PageSize:       defaultPageSize,
		RequestTimeout: defaultRequestTimeout,
		DemoEmails:     append([]string(nil), defaultDemoEmails...),
		DemoUserID:     defaultDemoUserID,
		Storage:        StorageSQLite,
	}
}

// Load reads the TOML file at path (or the default location), then applies a
// .env file from the working directory and REWEAR_* environment variables. A
// missing file of either kind is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	raw, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	cfg.apply(raw)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	cfg.DataDir = mustExpand(cfg.DataDir)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (fileConfig, error) {
	var raw fileConfig
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return raw, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return raw, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return raw, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

func (c *Config) apply(raw fileConfig) {
	setString(&c.APIURL, raw.APIURL)
	setString(&c.DataDir, raw.DataDir)
	setString(&c.LogLevel, raw.LogLevel)
	setString(&c.LogFormat, raw.LogFormat)
	setString(&c.Storage, raw.Storage)
	if raw.PageSize > 0 {
		c.PageSize = raw.PageSize
	}
	if raw.RequestTimeoutSeconds > 0 {
		c.RequestTimeout = time.Duration(raw.RequestTimeoutSeconds) * time.Second
	}
	if emails := cleanList(raw.DemoEmails); len(emails) > 0 {
		c.DemoEmails = emails
	}
	if raw.DemoUserID != nil {
		c.DemoUserID = *raw.DemoUserID
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("API_URL"); ok {
		c.APIURL = v
	}
	if v, ok := get("DATA_DIR"); ok {
		c.DataDir = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.LogFormat = v
	}
	if v, ok := get("STORAGE"); ok {
		c.Storage = v
	}
	if v, ok := get("DEMO_EMAILS"); ok {
		c.DemoEmails = cleanList(strings.Split(v, ","))
	}
	if v, ok := get("PAGE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("parse %sPAGE_SIZE: %q is not a positive integer", envPrefix, v)
		}
		c.PageSize = n
	}
	if v, ok := get("REQUEST_TIMEOUT_SECONDS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("parse %sREQUEST_TIMEOUT_SECONDS: %q is not a positive integer", envPrefix, v)
		}
		c.RequestTimeout = time.Duration(n) * time.Second
	}
	if v, ok := get("DEMO_USER_ID"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("parse %sDEMO_USER_ID: %q is not a user id", envPrefix, v)
		}
		c.DemoUserID = n
	}
	return nil
}

func (c Config) validate() error {
	switch c.Storage {
	case StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("invalid storage %q: want %q or %q", c.Storage, StorageSQLite, StorageMemory)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format %q: want console or json", c.LogFormat)
	}
	return nil
}

// DatabasePath is the SQLite file used by the sqlite storage backend.
func (c Config) DatabasePath() string {
	return filepath.Join(c.dataDir(), "rewear.db")
}

// LogPath is the file the client logs to while the TUI owns the terminal.
func (c Config) LogPath() string {
	return filepath.Join(c.dataDir(), "rewear.log")
}

func (c Config) dataDir() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir)
	}
	return c.DataDir
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) { return expandPath(path) }

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

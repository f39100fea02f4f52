package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultListenAddr       = ":8080"
	DefaultBackendTimeout   = 15 * time.Second
	DefaultTokenTTL         = 24 * time.Hour
	DefaultUploadSASTTL     = 15 * time.Minute
	DefaultCacheTTL         = 30 * time.Second
	DefaultRestoreAttempts  = 3
	DefaultRestoreDelay     = time.Second
	DefaultLevelWindow      = 50
	DefaultLevelPoll        = 50 * time.Millisecond
	DefaultSnapshotInterval = 5 * time.Second
	DefaultRedirectDelay    = 2 * time.Second
	DefaultRecordingRetain  = 2 * time.Minute
	DefaultUploadWorkers    = 4
	DefaultUploadQueue      = 64
	DefaultStaticDir        = "./public"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	StaticDir      string   `yaml:"static_dir"`
}

// BackendConfig points at the Azure Functions API.
type BackendConfig struct {
	BaseURL     string        `yaml:"base_url"`
	FunctionKey string        `yaml:"function_key"`
	Timeout     time.Duration `yaml:"timeout"`
}

// AuthConfig controls session tokens and cookies.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	RestoreAttempts int           `yaml:"restore_attempts"`
	RestoreDelay    time.Duration `yaml:"restore_delay"`
}

// StorageConfig holds the Azure Blob Storage account used for audio.
type StorageConfig struct {
	AccountName   string `yaml:"account_name"`
	AccountKey    string `yaml:"account_key"`
	ContainerName string `yaml:"container_name"`
	// SASToken is the pre-shared read token appended to playback URLs.
	SASToken     string        `yaml:"sas_token"`
	UploadSASTTL time.Duration `yaml:"upload_sas_ttl"`
	// Endpoint overrides https://<account>.blob.core.windows.net (Azurite, tests).
	Endpoint string `yaml:"endpoint"`
}

// CacheConfig selects the cache backend. An empty RedisAddr keeps the cache in memory.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// RecordingConfig tunes recording sessions and the upload pool.
type RecordingConfig struct {
	LevelWindow      int           `yaml:"level_window"`
	LevelPoll        time.Duration `yaml:"level_poll"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	RedirectDelay    time.Duration `yaml:"redirect_delay"`
	Retain           time.Duration `yaml:"retain"`
	UploadWorkers    int           `yaml:"upload_workers"`
	UploadQueue      int           `yaml:"upload_queue"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// Config is the full gateway configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Recording RecordingConfig `yaml:"recording"`
	Log       LogConfig       `yaml:"log"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:     DefaultListenAddr,
			AllowedOrigins: []string{"http://localhost:3000"},
			StaticDir:      DefaultStaticDir,
		},
		Backend: BackendConfig{Timeout: DefaultBackendTimeout},
		Auth: AuthConfig{
			TokenTTL:        DefaultTokenTTL,
			RestoreAttempts: DefaultRestoreAttempts,
			RestoreDelay:    DefaultRestoreDelay,
		},
		Storage: StorageConfig{
			ContainerName: "moc-audio",
			UploadSASTTL:  DefaultUploadSASTTL,
		},
		Cache: CacheConfig{TTL: DefaultCacheTTL},
		Recording: RecordingConfig{
			LevelWindow:      DefaultLevelWindow,
			LevelPoll:        DefaultLevelPoll,
			SnapshotInterval: DefaultSnapshotInterval,
			RedirectDelay:    DefaultRedirectDelay,
			Retain:           DefaultRecordingRetain,
			UploadWorkers:    DefaultUploadWorkers,
			UploadQueue:      DefaultUploadQueue,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path (if non-empty and present) over the
// defaults, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// env-only deployments have no file
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	if port := getenv("PORT"); port != "" {
		c.Server.ListenAddr = ":" + strings.TrimPrefix(port, ":")
	}
	if origins := getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
	setString(&c.Server.StaticDir, "STATIC_DIR")

	setString(&c.Backend.BaseURL, "BACKEND_BASE_URL")
	setString(&c.Backend.FunctionKey, "BACKEND_FUNCTION_KEY")

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	if v := getenv("COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Auth.CookieSecure = b
		}
	}

	setString(&c.Storage.AccountName, "AZURE_STORAGE_ACCOUNT_NAME")
	setString(&c.Storage.AccountKey, "AZURE_STORAGE_ACCOUNT_KEY")
	setString(&c.Storage.ContainerName, "AZURE_STORAGE_CONTAINER_NAME")
	setString(&c.Storage.SASToken, "AZURE_STORAGE_SAS_TOKEN")
	setString(&c.Storage.Endpoint, "AZURE_STORAGE_ENDPOINT")

	setString(&c.Cache.RedisAddr, "REDIS_ADDR")
	setString(&c.Cache.RedisPassword, "REDIS_PASSWORD")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports configuration that prevents the gateway from serving
// requests. A missing JWT secret is deliberately not reported: the session
// guard handles it per request.
func (c *Config) Validate() error {
	var problems []string
	if c.Backend.BaseURL == "" {
		problems = append(problems, "backend.base_url is required")
	}
	if c.Storage.AccountName == "" {
		problems = append(problems, "storage.account_name is required")
	}
	if c.Storage.ContainerName == "" {
		problems = append(problems, "storage.container_name is required")
	}
	if c.Auth.RestoreAttempts < 0 {
		problems = append(problems, "auth.restore_attempts must not be negative")
	}
	if c.Recording.LevelWindow <= 0 {
		problems = append(problems, "recording.level_window must be positive")
	}
	if c.Recording.Retain < 0 {
		problems = append(problems, "recording.retain must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	cp.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	cp.Backend.FunctionKey = mask(c.Backend.FunctionKey)
	cp.Storage.AccountKey = mask(c.Storage.AccountKey)
	cp.Storage.SASToken = mask(c.Storage.SASToken)
	cp.Cache.RedisPassword = mask(c.Cache.RedisPassword)
	return &cp
}

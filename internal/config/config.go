package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerAddress   string        `yaml:"server_address"`
	JWTSecret       string        `yaml:"jwt_secret"`
	JWTExpiration   time.Duration `yaml:"jwt_expiration"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	UploadDir       string        `yaml:"upload_dir"`
	MaxUploadSizeMB int64         `yaml:"max_upload_size_mb"`

	// StoreDriver selects the key/value backend: "json", "sqlite" or "mongo".
	StoreDriver string `yaml:"store_driver"`
	DataDir     string `yaml:"data_dir"`
	MongoURI    string `yaml:"mongo_uri"`
	MongoDB     string `yaml:"mongo_db"`
	MongoTLS    bool   `yaml:"mongo_tls"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// JanitorSchedule is a cron spec for pruning idle in-memory session state.
	JanitorSchedule string        `yaml:"janitor_schedule"`
	SessionIdleTTL  time.Duration `yaml:"session_idle_ttl"`
}

func defaults() *Config {
	return &Config{
		ServerAddress:   ":8080",
		JWTSecret:       "your-secret-key-change-in-production",
		JWTExpiration:   30 * 24 * time.Hour,
		AllowedOrigins:  []string{"*"},
		UploadDir:       "./uploads",
		MaxUploadSizeMB: 10,
		StoreDriver:     "json",
		DataDir:         "./data",
		MongoDB:         "skilltrade",
		LogLevel:        "info",
		LogFormat:       "console",
		JanitorSchedule: "@every 1h",
		SessionIdleTTL:  24 * time.Hour,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// SKILLTRADE_CONFIG (if any), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := getEnv("SKILLTRADE_CONFIG", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.StoreDriver = getEnv("STORE_DRIVER", c.StoreDriver)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.MongoURI = getEnv("MONGODB_URI", c.MongoURI)
	c.MongoDB = getEnv("MONGODB_DB", c.MongoDB)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.JanitorSchedule = getEnv("JANITOR_SCHEDULE", c.JanitorSchedule)

	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	var err error
	if c.JWTExpiration, err = durationEnv("JWT_EXPIRATION", c.JWTExpiration); err != nil {
		return err
	}
	if c.SessionIdleTTL, err = durationEnv("SESSION_IDLE_TTL", c.SessionIdleTTL); err != nil {
		return err
	}
	if c.CookieSecure, err = boolEnv("COOKIE_SECURE", c.CookieSecure); err != nil {
		return err
	}
	if c.MongoTLS, err = boolEnv("MONGODB_TLS", c.MongoTLS); err != nil {
		return err
	}
	if v := getEnv("MAX_UPLOAD_SIZE_MB", ""); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_SIZE_MB: %w", err)
		}
		c.MaxUploadSizeMB = n
	}
	return nil
}

// Validate reports configuration combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "json", "sqlite":
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("store driver mongo requires MONGODB_URI")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret must not be empty")
	}
	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

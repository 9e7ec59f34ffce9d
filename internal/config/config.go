package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Version is reported in startup logs and by the health endpoint.
const Version = "1.0.0"

type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Settings SettingsConfig
	Logger   LoggerConfig
	Security SecurityConfig
	Display  DisplayConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// BackendConfig points at the chain's REST API that owns sales and expenses.
type BackendConfig struct {
	BaseURL     string
	Timeout     time.Duration
	TokenCookie string
}

type SettingsConfig struct {
	Store         string
	Dir           string
	Cookie        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

type DisplayConfig struct {
	Currency string
}

// Load reads configuration from the environment. Values from the file named
// by ENV_FILE (default .env) are applied first when it exists; variables
// already set in the environment win.
func Load() (*Config, error) {
	envFile := getEnvString("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Backend: BackendConfig{
			BaseURL:     strings.TrimRight(getEnvString("BACKEND_BASE_URL", "http://localhost:5000/api"), "/"),
			Timeout:     getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),
			TokenCookie: getEnvString("BACKEND_TOKEN_COOKIE", "token"),
		},
		Settings: SettingsConfig{
			Store:         getEnvString("SETTINGS_STORE", "file"),
			Dir:           getEnvString("SETTINGS_DIR", ".settings"),
			Cookie:        getEnvString("SETTINGS_COOKIE", "settings_id"),
			RedisAddr:     getEnvString("SETTINGS_REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnvString("SETTINGS_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("SETTINGS_REDIS_DB", 0),
			TTL:           getEnvDuration("SETTINGS_TTL", 0),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
		Display: DisplayConfig{
			Currency: getEnvString("DISPLAY_CURRENCY", "NGN"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("backend base URL must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
	}

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}

	if c.Backend.TokenCookie == "" {
		return fmt.Errorf("backend token cookie name cannot be empty")
	}

	validStores := []string{"memory", "file", "redis"}
	if !slices.Contains(validStores, c.Settings.Store) {
		return fmt.Errorf("invalid settings store %q, must be one of: %s", c.Settings.Store, strings.Join(validStores, ", "))
	}

	if c.Settings.Store == "file" && c.Settings.Dir == "" {
		return fmt.Errorf("settings directory cannot be empty for the file store")
	}

	if c.Settings.Cookie == "" {
		return fmt.Errorf("settings cookie name cannot be empty")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	if c.Display.Currency == "" {
		return fmt.Errorf("display currency cannot be empty")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"spotbnb/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// IsProduction reports whether the app runs with production settings.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Environment, "production")
}

type DatabaseConfig struct {
	Driver       string         `yaml:"driver"`
	Path         string         `yaml:"path"`
	Postgres     PostgresConfig `yaml:"postgres"`
	MaxOpenConns int            `yaml:"max_open_conns"`
	ConnectRetry RetryConfig    `yaml:"connect_retry"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN renders a lib/pq keyword/value connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type AuthConfig struct {
	JWTSecret      string               `yaml:"jwt_secret"`
	TokenTTL       time.Duration        `yaml:"token_ttl"`
	CookieName     string               `yaml:"cookie_name"`
	SecureCookie   bool                 `yaml:"secure_cookie"`
	BcryptCost     int                  `yaml:"bcrypt_cost"`
	LoginRateLimit LoginRateLimitConfig `yaml:"login_rate_limit"`
}

type LoginRateLimitConfig struct {
	Attempts int           `yaml:"attempts"`
	Window   time.Duration `yaml:"window"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      APICORSConfig      `yaml:"cors"`
	Compat    APICompatConfig    `yaml:"compat"`
	// TrustedProxies lists the peers (IPs or CIDRs) whose X-Forwarded-For
	// header is believed. Empty means clients are keyed on the peer address.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare IP becomes a single-host prefix.
func (a APIConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(a.TrustedProxies))
	for _, entry := range a.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q", entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port"`
	Reflection bool `yaml:"reflection"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type APICORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// APICompatConfig toggles byte-for-byte compatibility with the legacy API.
type APICompatConfig struct {
	LegacyDuplicateReviewStatus bool `yaml:"legacy_duplicate_review_status"`
}

type BookingConfig struct {
	OverlapMode models.OverlapMode `yaml:"overlap_mode"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; a missing file is not an error
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case DriverPostgres:
		if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
			return errors.New("postgres host and dbname are required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "CHANGE_ME" {
		return errors.New("auth jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth jwt_secret must be at least 16 characters")
	}

	if _, err := c.API.TrustedProxyPrefixes(); err != nil {
		return fmt.Errorf("api trusted_proxies: %w", err)
	}

	if !c.Booking.OverlapMode.Valid() {
		return fmt.Errorf("booking overlap_mode must be %q or %q, got %q",
			models.OverlapPartial, models.OverlapFull, c.Booking.OverlapMode)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = 5432
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = "disable"
	}
	if c.Database.ConnectRetry.MaxRetries == 0 {
		c.Database.ConnectRetry.MaxRetries = 5
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8000
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 7 * 24 * time.Hour
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "token"
	}
	if c.Auth.LoginRateLimit.Attempts == 0 {
		c.Auth.LoginRateLimit.Attempts = 10
	}
	if c.Auth.LoginRateLimit.Window == 0 {
		c.Auth.LoginRateLimit.Window = 15 * time.Minute
	}
	if c.Booking.OverlapMode == "" {
		c.Booking.OverlapMode = models.OverlapPartial
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Geocoding GeocodingConfig
	Crawl     CrawlConfig
	Auth      AuthConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type GeocodingConfig struct {
	APIKey string
	// Host of the Nominatim-compatible provider, e.g. us1.locationiq.com.
	Host        string
	Timeout     time.Duration
	MinInterval time.Duration
	CountryBias string
}

type CrawlConfig struct {
	// Optional YAML file with per-portal slug-table overrides.
	PortalOverridesPath string
	MaxPagesPerPortal   int
	PageTimeout         time.Duration
	DetailTimeout       time.Duration
	// Empty disables the headless browser strategy.
	ChromeBin string
}

type AuthConfig struct {
	// HMAC secret for validating agent bearer tokens on import/admin routes.
	AgentTokenSecret string
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load()

	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, fallback string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return fallback
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     opt("APP_NAME", "propwatch"),
		Environment: opt("APP_ENV", "development"),
		HTTPPort:    opt("HTTP_PORT", "8080"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:                opt("DB_HOST", "localhost"),
		DBPort:                opt("DB_PORT", "5432"),
		DBName:                req("DB_NAME"),
		DBUser:                req("DB_USER"),
		DBPassword:            os.Getenv("DB_PASSWORD"),
		DBSSLMode:             opt("DB_SSL_MODE", "disable"),
		ConnectTimeout:        optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optDuration("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: optDuration("DB_POOL_HEALTH_CHECK_PERIOD", 0),
	}

	cfg.Geocoding = GeocodingConfig{
		APIKey:      os.Getenv("GEOCODING_API_KEY"),
		Host:        opt("GEOCODING_HOST", "us1.locationiq.com"),
		Timeout:     optDuration("GEOCODING_TIMEOUT", 10*time.Second),
		MinInterval: optDuration("GEOCODING_MIN_INTERVAL", time.Second),
		CountryBias: opt("GEOCODING_COUNTRY_BIAS", "ar"),
	}

	cfg.Crawl = CrawlConfig{
		PortalOverridesPath: os.Getenv("PORTAL_OVERRIDES_PATH"),
		MaxPagesPerPortal:   optInt("CRAWL_MAX_PAGES", 10),
		PageTimeout:         optDuration("CRAWL_PAGE_TIMEOUT", 30*time.Second),
		DetailTimeout:       optDuration("CRAWL_DETAIL_TIMEOUT", 45*time.Second),
		ChromeBin:           os.Getenv("CHROME_BIN"),
	}

	cfg.Auth = AuthConfig{
		AgentTokenSecret: os.Getenv("AGENT_TOKEN_SECRET"),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}

func optInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func optDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

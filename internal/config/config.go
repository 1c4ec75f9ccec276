package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// DefaultJWTSecret is the development secret; Validate rejects it in prod.
const DefaultJWTSecret = "supersecretkey"

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// StoreDriver is "postgres" (default) or "memory". The memory store keeps
	// nothing across restarts and is meant for local runs and demos.
	StoreDriver string

	JWTSecret string

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string

	// JWTExpireHours is the token lifetime in hours (default 24). Set via JWT_EXPIRE_HOURS.
	JWTExpireHours int

	// AccessPolicy selects who may mutate which asset: "owner" (default), "role" or "open".
	AccessPolicy string

	// BootstrapSuperintendent names an account promoted to superintendent at
	// startup. Registration never grants more than technician.
	BootstrapSuperintendent string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// CORSAllowedOrigins is a list of origins allowed for CORS (e.g. https://app.example.com, http://localhost:3000).
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string

	// AuthRatePerMinute caps login/register attempts per client IP.
	AuthRatePerMinute int

	// ReportSchedule is the cron expression for the tier sweep. Empty disables it.
	ReportSchedule string

	// ExportDir receives audit exports when no S3 bucket is configured.
	ExportDir string
	// ExportS3Bucket, when set, sends audit exports to S3 instead of ExportDir.
	ExportS3Bucket string
	ExportS3Prefix string
	ExportS3Region string
}

// fileConfig mirrors the optional TOML file named by CONFIG_FILE.
type fileConfig struct {
	Server struct {
		Port               string   `toml:"port"`
		Env                string   `toml:"env"`
		LogFormat          string   `toml:"log_format"`
		TLSCertFile        string   `toml:"tls_cert_file"`
		TLSKeyFile         string   `toml:"tls_key_file"`
		CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
		AuthRatePerMinute  int      `toml:"auth_rate_per_minute"`
	} `toml:"server"`
	Database struct {
		Driver       string `toml:"driver"`
		Host         string `toml:"host"`
		Port         string `toml:"port"`
		Name         string `toml:"name"`
		User         string `toml:"user"`
		Pass         string `toml:"pass"`
		MaxOpenConns int    `toml:"max_open_conns"`
		MaxIdleConns int    `toml:"max_idle_conns"`
	} `toml:"database"`
	Auth struct {
		JWTSecret      string `toml:"jwt_secret"`
		JWTExpireHours int    `toml:"jwt_expire_hours"`
		AccessPolicy   string `toml:"access_policy"`
		Superintendent string `toml:"bootstrap_superintendent"`
	} `toml:"auth"`
	Reports struct {
		Schedule string `toml:"schedule"`
	} `toml:"reports"`
	Export struct {
		Dir      string `toml:"dir"`
		S3Bucket string `toml:"s3_bucket"`
		S3Prefix string `toml:"s3_prefix"`
		S3Region string `toml:"s3_region"`
	} `toml:"export"`
}

// Load reads configuration. Sources, lowest precedence first: built-in
// defaults, the TOML file named by CONFIG_FILE, a .env file in the working
// directory, and the process environment.
func Load() (Config, error) {
	// A missing .env is normal; the process env still applies.
	_ = godotenv.Load()

	var fc fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return Config{
		Port: getEnv("PORT", or(fc.Server.Port, "8080")),

		DBHost: getEnv("DB_HOST", or(fc.Database.Host, "localhost")),
		DBPort: getEnv("DB_PORT", or(fc.Database.Port, "5432")),
		DBName: getEnv("DB_NAME", or(fc.Database.Name, "tradetracker")),
		DBUser: getEnv("DB_USER", or(fc.Database.User, "tracker")),
		DBPass: getEnv("DB_PASS", or(fc.Database.Pass, "trackerpass")),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", orInt(fc.Database.MaxOpenConns, 25)),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", orInt(fc.Database.MaxIdleConns, 5)),
		StoreDriver:    getEnv("STORE_DRIVER", or(fc.Database.Driver, DriverPostgres)),

		JWTSecret:      getEnv("JWT_SECRET", or(fc.Auth.JWTSecret, DefaultJWTSecret)),
		Env:            getEnv("ENV", or(fc.Server.Env, "dev")),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", orInt(fc.Auth.JWTExpireHours, 24)),
		AccessPolicy:   getEnv("ACCESS_POLICY", or(fc.Auth.AccessPolicy, "owner")),

		BootstrapSuperintendent: getEnv("BOOTSTRAP_SUPERINTENDENT", fc.Auth.Superintendent),

		// Optional TLS configuration for HTTPS.
		TLSCertFile: getEnv("TLS_CERT_FILE", fc.Server.TLSCertFile),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", fc.Server.TLSKeyFile),

		LogFormat: getEnv("LOG_FORMAT", or(fc.Server.LogFormat, "text")),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", strings.Join(fc.Server.CORSAllowedOrigins, ","))),
		AuthRatePerMinute:  getEnvInt("AUTH_RATE_PER_MINUTE", orInt(fc.Server.AuthRatePerMinute, 10)),

		ReportSchedule: getEnv("REPORT_SCHEDULE", or(fc.Reports.Schedule, "@every 1h")),

		ExportDir:      getEnv("EXPORT_DIR", or(fc.Export.Dir, "exports")),
		ExportS3Bucket: getEnv("EXPORT_S3_BUCKET", fc.Export.S3Bucket),
		ExportS3Prefix: getEnv("EXPORT_S3_PREFIX", or(fc.Export.S3Prefix, "audit/")),
		ExportS3Region: getEnv("EXPORT_S3_REGION", fc.Export.S3Region),
	}, nil
}

// Validate rejects settings the server must not start with.
func (c Config) Validate() error {
	var errs []error
	if c.Env == "prod" && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set to a non-default value when ENV=prod"))
	}
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	switch c.AccessPolicy {
	case "owner", "role", "open":
	default:
		errs = append(errs, fmt.Errorf("unknown ACCESS_POLICY %q", c.AccessPolicy))
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	if c.ReportSchedule != "" {
		if _, err := cron.ParseStandard(c.ReportSchedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid REPORT_SCHEDULE: %w", err))
		}
	}
	return errors.Join(errs...)
}

// DatabaseURL is the DSN in URL form, as golang-migrate expects it.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

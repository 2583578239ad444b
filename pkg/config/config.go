package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session repository drivers.
const (
	SessionDriverMemory   = "memory"
	SessionDriverFile     = "file"
	SessionDriverRedis    = "redis"
	SessionDriverPostgres = "postgres"
)

type Config struct {
	Env  string
	Port int

	API      APIConfig
	Session  SessionConfig
	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Locality LocalityConfig
	Uploads  UploadConfig
	Wizard   WizardConfig
}

// APIConfig points the client at the MatriFIC REST backend.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig governs persistence and lifetime of browser workspaces.
type SessionConfig struct {
	Driver       string
	Dir          string
	StorageKey   string
	CookieName   string
	CookieSecure bool
	IdleTTL      time.Duration
	RefreshSkew  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LocalityConfig tunes state/municipality lookups.
type LocalityConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	Debounce     time.Duration
}

// UploadConfig bounds enrollment document uploads.
type UploadConfig struct {
	MaxFiles    int
	MaxFileSize int64
}

// WizardConfig selects the enrollment flow.
type WizardConfig struct {
	Flow string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.API = APIConfig{
		BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("API_TIMEOUT"), 15*time.Second),
	}

	cfg.Session = SessionConfig{
		Driver:       strings.ToLower(v.GetString("SESSION_DRIVER")),
		Dir:          v.GetString("SESSION_DIR"),
		StorageKey:   v.GetString("SESSION_STORAGE_KEY"),
		CookieName:   v.GetString("SESSION_COOKIE_NAME"),
		CookieSecure: v.GetBool("SESSION_COOKIE_SECURE"),
		IdleTTL:      parseDuration(v.GetString("SESSION_IDLE_TTL"), 12*time.Hour),
		RefreshSkew:  parseDuration(v.GetString("TOKEN_REFRESH_SKEW"), 30*time.Second),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Locality = LocalityConfig{
		CacheEnabled: v.GetBool("ENABLE_LOCALITY_CACHE"),
		CacheTTL:     parseDuration(v.GetString("LOCALITY_CACHE_TTL"), 24*time.Hour),
		Debounce:     parseDuration(v.GetString("LOOKUP_DEBOUNCE"), 500*time.Millisecond),
	}

	maxFileSize := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024
	}
	maxFiles := v.GetInt("UPLOAD_MAX_FILES")
	if maxFiles <= 0 {
		maxFiles = 5
	}
	cfg.Uploads = UploadConfig{MaxFiles: maxFiles, MaxFileSize: maxFileSize}

	cfg.Wizard = WizardConfig{Flow: strings.ToLower(v.GetString("WIZARD_FLOW"))}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("API_BASE_URL", "http://localhost:8000/api")
	v.SetDefault("API_TIMEOUT", "15s")

	v.SetDefault("SESSION_DRIVER", SessionDriverFile)
	v.SetDefault("SESSION_DIR", "./sessions")
	v.SetDefault("SESSION_STORAGE_KEY", "auth-storage")
	v.SetDefault("SESSION_COOKIE_NAME", "matrific_sid")
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("SESSION_IDLE_TTL", "12h")
	v.SetDefault("TOKEN_REFRESH_SKEW", "30s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "matrific_web")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_LOCALITY_CACHE", false)
	v.SetDefault("LOCALITY_CACHE_TTL", "24h")
	v.SetDefault("LOOKUP_DEBOUNCE", "500ms")

	v.SetDefault("UPLOAD_MAX_FILES", 5)
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 10*1024*1024)

	v.SetDefault("WIZARD_FLOW", "primary")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

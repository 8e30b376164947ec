package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL connection settings. An empty Host selects
// the in-memory repositories instead of Postgres (prototype mode).
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AuthConfig holds token signing and password hashing settings.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// UploadConfig constrains what may be uploaded.
type UploadConfig struct {
	// MaxBytes is the upload size cap (default 10 MiB).
	MaxBytes int64
	// AllowedExts is the lowercase extension allow-list, dot included.
	AllowedExts []string
	// LocalDir is where the local storage backend writes files.
	LocalDir string
}

// SharingConfig controls how share grants are evaluated.
type SharingConfig struct {
	// ExpiryFilter, when set, excludes grants whose expiry has passed from
	// "currently shared with" views. Stored rows are never mutated; this is
	// purely a read-side filter.
	ExpiryFilter bool
}

// AppConfig is the centralized configuration struct for the application,
// populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Version  string
	Storage  string // "local" or "minio"
	Database DatabaseConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Sharing  SharingConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence over the .env file.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		Version: getEnv("APP_VERSION", "1.0.0"),
		Storage: getEnv("STORAGE_BACKEND", "local"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", "fallback_secret"),
			TokenTTL:   time.Duration(getEnvInt("TOKEN_TTL_HOURS", 168)) * time.Hour,
			BcryptCost: getEnvInt("BCRYPT_COST", 12),
		},
		Upload: UploadConfig{
			MaxBytes:    int64(getEnvInt("UPLOAD_MAX_BYTES", 10*1024*1024)),
			AllowedExts: getEnvList("UPLOAD_ALLOWED_EXTS", []string{".pdf", ".doc", ".docx", ".csv", ".txt"}),
			LocalDir:    getEnv("UPLOAD_DIR", "uploads"),
		},
		Sharing: SharingConfig{
			ExpiryFilter: getEnvBool("SHARE_EXPIRY_FILTER", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, strings.ToLower(p))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port         string
	DBHost       string
	DBPort       string
	DBName       string
	DBUser       string
	DBPass       string
	DBEngine     string // "postgresql", "mysql", "sqlite"
	DBPath       string // For SQLite
	DBSSLMode    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	RowSource       string // "rest" or "sql"
	CRMAPIBaseURL   string
	UpstreamTimeout time.Duration
	SessionTTL      time.Duration
	AllowedOrigins  []string

	LogLevel     string
	LogFile      string
	LogFileSize  int
	LogFileCount int
	LogCompress  bool
}

// Load reads the configuration from the environment, after loading a .env
// file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Port:         getEnv("PORT", "8080"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBName:       getEnv("DB_NAME", "crm"),
		DBUser:       getEnv("DB_USER", "crm"),
		DBPass:       getEnv("DB_PASS", "crm"),
		DBEngine:     strings.ToLower(getEnv("DB_ENGINE", "sqlite")),
		DBPath:       getEnv("DB_PATH", "crm.db"),
		DBSSLMode:    getEnv("DB_SSL_MODE", "prefer"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,

		RowSource:       strings.ToLower(getEnv("ROW_SOURCE", "rest")),
		CRMAPIBaseURL:   strings.TrimRight(getEnv("CRM_API_BASE_URL", ""), "/"),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		SessionTTL:      getEnvDuration("SESSION_TTL", 30*time.Minute),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "*")),

		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
		LogFileSize:  getEnvInt("LOG_FILE_SIZE", 10),
		LogFileCount: getEnvInt("LOG_FILE_COUNT", 5),
		LogCompress:  getEnvBool("LOG_COMPRESS", false),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.DBEngine {
	case "postgresql", "postgres", "mysql", "mariadb", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unsupported database engine: %s", c.DBEngine)
	}

	switch c.RowSource {
	case "rest":
		if c.CRMAPIBaseURL == "" {
			return fmt.Errorf("CRM_API_BASE_URL is required when ROW_SOURCE is rest")
		}
	case "sql":
	default:
		return fmt.Errorf("unsupported row source: %s", c.RowSource)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

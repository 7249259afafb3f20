package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App      AppConfig
	AI       AIConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Images   ImagesConfig
	Log      LogConfig
	MCP      MCPConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasePath           string
	BaseUrl            string
	BasicAuth          []string
	TrustedProxies     []string
	CorsAllowedOrigins []string
	ServerID           string
	StoragePath        string
}

type AIConfig struct {
	Provider     string // "gemini" or "openai"
	Model        string
	ChatModel    string
	GeminiAPIKey string
	OpenAIAPIKey string
}

type CacheConfig struct {
	Backend string // "memory", "valkey" or "sql"
	TTL     time.Duration
	Prefix  string

	ValkeyAddress  string
	ValkeyPassword string
	ValkeyDB       int
}

type DatabaseConfig struct {
	Driver   string // "sqlite" (default) or "postgres"
	Name     string // file path for SQLite, database name for Postgres
	Host     string
	Port     int
	User     string
	Password string
}

type ImagesConfig struct {
	BaseURL           string // external image host completing relative poster/backdrop paths
	PlaceholderWidth  int
	PlaceholderHeight int
	ProxyTimeout      time.Duration
}

type LogConfig struct {
	File       string // optional rotating log file, stdout only when empty
	MaxSizeMB  int
	MaxBackups int
}

type MCPConfig struct {
	Host string
	Port string
}

// Global provides access to the loaded configuration application-wide.
var Global *Config

// LoadConfig builds the configuration from environment variables and defaults.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	storagePath := getEnv("APP_STORAGE_PATH", "storages")

	var basicAuth []string
	if v := getEnv("APP_BASIC_AUTH", ""); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := getEnv("APP_CORS_ALLOWED_ORIGINS", ""); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.3.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              getEnvBool("APP_DEBUG", false),
		Environment:        getEnv("APP_ENV", "development"),
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		BasicAuth:          basicAuth,
		CorsAllowedOrigins: corsOrigins,
		ServerID:           getEnv("SERVER_ID", ""),
		StoragePath:        storagePath,
	}
	if v := getEnv("APP_TRUSTED_PROXIES", ""); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	// AI_MODEL stays empty here; the provider wiring picks the per-provider
	// default when it is not set.
	aiCfg := AIConfig{
		Provider:     getEnv("AI_PROVIDER", "gemini"),
		Model:        getEnv("AI_MODEL", ""),
		ChatModel:    getEnv("AI_CHAT_MODEL", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
	}

	cacheCfg := CacheConfig{
		Backend:        getEnv("CACHE_BACKEND", "memory"),
		TTL:            getEnvDuration("CACHE_TTL", time.Hour),
		Prefix:         getEnv("CACHE_KEY_PREFIX", "moviemind:"),
		ValkeyAddress:  getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword: getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:       getEnvInt("VALKEY_DB", 0),
	}

	dbCfg := DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "sqlite"),
		Name:     getEnv("DB_NAME", filepath.Join(storagePath, "moviemind.db")),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
	}

	imagesCfg := ImagesConfig{
		BaseURL:           getEnv("IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
		PlaceholderWidth:  getEnvInt("IMAGE_PLACEHOLDER_WIDTH", 500),
		PlaceholderHeight: getEnvInt("IMAGE_PLACEHOLDER_HEIGHT", 750),
		ProxyTimeout:      getEnvDuration("IMAGE_PROXY_TIMEOUT", 10*time.Second),
	}

	logCfg := LogConfig{
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
		MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
	}

	cfg := &Config{
		App:      appCfg,
		AI:       aiCfg,
		Cache:    cacheCfg,
		Database: dbCfg,
		Images:   imagesCfg,
		Log:      logCfg,
		MCP:      MCPConfig{Host: getEnv("MCP_HOST", "localhost"), Port: getEnv("MCP_PORT", "8080")},
	}

	Global = cfg
	return cfg, nil
}

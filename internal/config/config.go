package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	LogLevel               string
	DatabaseURL            string
	AutoMigrate            bool
	RedisURL               string
	NATSURL                string
	EventsChannel          string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	StatsCacheTTL          time.Duration
	SearchCacheTTL         time.Duration
	UploadMaxSizeBytes     int64
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("COACHHUB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CoachHub API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("events.channel", "coachhub")
	v.SetDefault("cloudinary.folder", "coachhub/submissions")
	v.SetDefault("stats.cache_ttl", "2m")
	v.SetDefault("search.cache_ttl", "10m")
	v.SetDefault("upload.max_size_mb", 10)

	statsTTL, err := parseTTL(v.GetString("stats.cache_ttl"), 2*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	searchTTL, err := parseTTL(v.GetString("search.cache_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid search cache ttl: %w", err)
	}

	maxSizeMB := v.GetInt64("upload.max_size_mb")
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		DatabaseURL:            v.GetString("database.url"),
		AutoMigrate:            v.GetBool("database.auto_migrate"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventsChannel:          v.GetString("events.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		StatsCacheTTL:          statsTTL,
		SearchCacheTTL:         searchTTL,
		UploadMaxSizeBytes:     maxSizeMB << 20,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	return cfg, nil
}

func parseTTL(raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

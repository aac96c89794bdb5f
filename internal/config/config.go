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
	AppName         string
	AppEnv          string
	AppPort         string
	DatabaseURL     string
	RedisURL        string
	NATSURL         string
	ActivityChannel string
	JWTSecret       string
	JWTTTL          time.Duration
	CookieName      string
	CookieSecure    bool
	CookieSecret    string
	CORSOrigins     string
	BcryptCost      int
	UploadMaxBytes  int64
	LogLevel        string
	AdminName       string
	AdminEmail      string
	AdminPassword   string
	AdminReset      bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs outside local development.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.AppEnv) {
	case "development", "dev", "local", "test":
		return false
	default:
		return true
	}
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EXAM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Exam Portal API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("activity.channel", "exam-portal.activities")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("cookie.name", "token")
	v.SetDefault("cors.origins", "http://localhost:3000")
	v.SetDefault("bcrypt.cost", 10)
	v.SetDefault("upload.max_mb", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("admin.name", "Administrator")
}

func fromViper(v *viper.Viper) (Config, error) {
	ttlString := v.GetString("jwt.ttl")
	if ttlString == "" {
		ttlString = "24h"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}
	if ttl <= 0 {
		return Config{}, fmt.Errorf("jwt ttl must be positive")
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DatabaseURL:     v.GetString("database.url"),
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		ActivityChannel: v.GetString("activity.channel"),
		JWTSecret:       v.GetString("jwt.secret"),
		JWTTTL:          ttl,
		CookieName:      v.GetString("cookie.name"),
		CookieSecret:    v.GetString("cookie.secret"),
		CORSOrigins:     v.GetString("cors.origins"),
		BcryptCost:      v.GetInt("bcrypt.cost"),
		UploadMaxBytes:  int64(v.GetInt("upload.max_mb")) * 1024 * 1024,
		LogLevel:        strings.ToLower(v.GetString("log.level")),
		AdminName:       v.GetString("admin.name"),
		AdminEmail:      strings.ToLower(strings.TrimSpace(v.GetString("admin.email"))),
		AdminPassword:   v.GetString("admin.password"),
		AdminReset:      v.GetBool("admin.reset"),
	}

	if v.IsSet("cookie.secure") {
		cfg.CookieSecure = v.GetBool("cookie.secure")
	} else {
		cfg.CookieSecure = cfg.IsProduction()
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "token"
	}

	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = 10
	}

	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 5 * 1024 * 1024
	}

	return cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port    int
	BaseURL string

	DBDriver         string
	DBDSN            string
	DBConnectRetries int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	LinkLifetime     time.Duration
	RenewalWindow    time.Duration
	GenerateAttempts int

	LogLevel slog.Level
}

// Load reads .env (if any), ./configs/config.yaml (if any) and the process
// environment, in increasing priority.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "shortener")
	v.SetDefault("DB_PASSWORD", "shortener")
	v.SetDefault("DB_NAME", "shortener")
	v.SetDefault("DB_CONNECT_RETRIES", 5)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "60s")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("LINK_LIFETIME", "24h")
	v.SetDefault("RENEWAL_WINDOW", "24h")
	v.SetDefault("GENERATE_ATTEMPTS", 10)
	v.SetDefault("LOG_LEVEL", "info")
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:             v.GetInt("PORT"),
		BaseURL:          strings.TrimRight(strings.TrimSpace(v.GetString("BASE_URL")), "/"),
		DBDriver:         strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:            v.GetString("DB_DSN"),
		DBConnectRetries: v.GetInt("DB_CONNECT_RETRIES"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		CacheTTL:         v.GetDuration("CACHE_TTL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		LinkLifetime:     v.GetDuration("LINK_LIFETIME"),
		RenewalWindow:    v.GetDuration("RENEWAL_WINDOW"),
		GenerateAttempts: v.GetInt("GENERATE_ATTEMPTS"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if cfg.DBDSN == "" {
		switch cfg.DBDriver {
		case "postgres":
			cfg.DBDSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				v.GetString("DB_HOST"), v.GetString("DB_USER"), v.GetString("DB_PASSWORD"),
				v.GetString("DB_NAME"), v.GetString("DB_PORT"))
		case "sqlite":
			cfg.DBDSN = "shortener.db"
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.BaseURL == "" {
		return errors.New("BASE_URL must not be empty")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.LinkLifetime <= 0 || c.RenewalWindow <= 0 {
		return errors.New("LINK_LIFETIME and RENEWAL_WINDOW must be positive")
	}
	if c.GenerateAttempts <= 0 {
		return errors.New("GENERATE_ATTEMPTS must be positive")
	}
	if c.CacheTTL < 0 {
		return errors.New("CACHE_TTL must not be negative")
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

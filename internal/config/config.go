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
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseURL         string
	RedisURL            string
	JWTSecret           string
	LeaderboardCacheTTL time.Duration
	MonthlyCacheTTL     time.Duration
	CalculateRateLimit  int
	CalculateRateWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EDUTRACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "EduTrack API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("leaderboard.cache_ttl", "5m")
	v.SetDefault("leaderboard.monthly_cache_ttl", "10m")
	v.SetDefault("calculate.rate_limit", 5)
	v.SetDefault("calculate.rate_window", "1m")

	dailyTTL, err := parseDuration(v.GetString("leaderboard.cache_ttl"), "5m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid leaderboard cache ttl: %w", err)
	}

	monthlyTTL, err := parseDuration(v.GetString("leaderboard.monthly_cache_ttl"), "10m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid monthly cache ttl: %w", err)
	}

	rateWindow, err := parseDuration(v.GetString("calculate.rate_window"), "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid calculate rate window: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		LeaderboardCacheTTL: dailyTTL,
		MonthlyCacheTTL:     monthlyTTL,
		CalculateRateLimit:  v.GetInt("calculate.rate_limit"),
		CalculateRateWindow: rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.CalculateRateLimit <= 0 {
		cfg.CalculateRateLimit = 5
	}

	return cfg, nil
}

func parseDuration(value, fallback string) (time.Duration, error) {
	if value == "" {
		value = fallback
	}
	return time.ParseDuration(value)
}

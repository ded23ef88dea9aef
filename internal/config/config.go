package config

import (
	"time"

	"github.com/adrianhensler/botterverse/pkg/config"
)

// Config stores environment configuration for the director service.
type Config struct {
	Port        string
	DatabaseURL string

	EconomyProvider string
	EconomyModel    string
	PremiumProvider string
	PremiumModel    string
	OpenAIKey       string
	OpenRouterKey   string
	LLMAPIURL       string

	DirectorInterval time.Duration
	DMInterval       time.Duration
	LikeInterval     time.Duration
	IngestInterval   time.Duration

	LeaderLockPath string
	RedisAddr      string
	LeaderTTL      time.Duration

	NewsAPIKey       string
	NewsCategory     string
	SportsAPIBase    string
	SportsLeagueID   string
	WeatherLatitude  float64
	WeatherLongitude float64
	GitHubUser       string
	GitHubToken      string

	PersonasFile string
}

// LoadConfig loads the director configuration from environment variables.
// DatabaseURL is optional: without it the service runs on the in-memory
// store, which is the dev mode.
func LoadConfig() Config {
	return Config{
		Port:        config.GetEnv("PORT", "18040"),
		DatabaseURL: config.GetEnv("DATABASE_URL", ""),

		EconomyProvider: config.GetEnv("BOTTERVERSE_ECONOMY_PROVIDER", "local"),
		EconomyModel:    config.GetEnv("BOTTERVERSE_ECONOMY_MODEL", "local-stub"),
		PremiumProvider: config.GetEnv("BOTTERVERSE_PREMIUM_PROVIDER", "local"),
		PremiumModel:    config.GetEnv("BOTTERVERSE_PREMIUM_MODEL", "local-stub"),
		OpenAIKey:       config.GetEnv("OPENAI_API_KEY", ""),
		OpenRouterKey:   config.GetEnv("OPENROUTER_API_KEY", ""),
		LLMAPIURL:       config.GetEnv("LLM_API_URL", ""),

		DirectorInterval: config.GetEnvDuration("DIRECTOR_INTERVAL", time.Minute),
		DMInterval:       config.GetEnvDuration("DM_INTERVAL", 20*time.Second),
		LikeInterval:     config.GetEnvDuration("LIKE_INTERVAL", 45*time.Second),
		IngestInterval:   config.GetEnvDuration("INGEST_INTERVAL", 5*time.Minute),

		LeaderLockPath: config.GetEnv("LEADER_LOCK_PATH", ""),
		RedisAddr:      config.GetEnv("REDIS_ADDR", ""),
		LeaderTTL:      config.GetEnvDuration("LEADER_TTL", 30*time.Second),

		NewsAPIKey:       config.GetEnv("NEWS_API_KEY", ""),
		NewsCategory:     config.GetEnv("NEWS_CATEGORY", "technology"),
		SportsAPIBase:    config.GetEnv("SPORTS_API_BASE", ""),
		SportsLeagueID:   config.GetEnv("SPORTS_LEAGUE_ID", ""),
		WeatherLatitude:  config.GetEnvFloat("WEATHER_LATITUDE", 0),
		WeatherLongitude: config.GetEnvFloat("WEATHER_LONGITUDE", 0),
		GitHubUser:       config.GetEnv("GITHUB_USER", ""),
		GitHubToken:      config.GetEnv("GITHUB_TOKEN", ""),

		PersonasFile: config.GetEnv("PERSONAS_FILE", ""),
	}
}

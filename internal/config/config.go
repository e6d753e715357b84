// Package config resolves service settings from defaults, an optional
// itinerary.yaml file and the environment (highest precedence).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is looked up (without extension) in the working directory and ./config.
const FileName = "itinerary"

type Config struct {
	Port string

	StoreBackend  string
	DBPath        string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	StrictState   bool

	NominatimURL       string
	NominatimUserAgent string
	NominatimEmail     string
	GeocodeTimeout     time.Duration
	GeocodeMinInterval time.Duration
	GeocodeCache       bool

	TileUpstream     string
	TileSubdomains   []string
	TileCacheEntries int
	TileTimeout      time.Duration

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")

	v.SetDefault("STORE_BACKEND", "sqlite")
	v.SetDefault("DB_PATH", "data/itinerary.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "itinerary:")
	v.SetDefault("STRICT_STATE", false)

	v.SetDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("NOMINATIM_USER_AGENT", "itinerary-planner-service/1.0")
	v.SetDefault("NOMINATIM_EMAIL", "")
	v.SetDefault("GEOCODE_TIMEOUT", "10s")
	v.SetDefault("GEOCODE_MIN_INTERVAL", "1s")
	v.SetDefault("GEOCODE_CACHE", true)

	v.SetDefault("TILE_UPSTREAM", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("TILE_SUBDOMAINS", "a,b,c")
	v.SetDefault("TILE_CACHE_ENTRIES", 2048)
	v.SetDefault("TILE_TIMEOUT", "15s")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads the configuration. dirs are searched for itinerary.yaml in order;
// a missing file is not an error, a malformed one is.
func Load(dirs ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	if len(dirs) == 0 {
		dirs = []string{".", "./config"}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("load config: read %s.yaml: %w", FileName, err)
		}
	}

	v.AutomaticEnv()

	cfg := Config{
		Port: v.GetString("PORT"),

		StoreBackend:  strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		DBPath:        v.GetString("DB_PATH"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		RedisPrefix:   v.GetString("REDIS_PREFIX"),
		StrictState:   v.GetBool("STRICT_STATE"),

		NominatimURL:       v.GetString("NOMINATIM_URL"),
		NominatimUserAgent: v.GetString("NOMINATIM_USER_AGENT"),
		NominatimEmail:     v.GetString("NOMINATIM_EMAIL"),
		GeocodeTimeout:     v.GetDuration("GEOCODE_TIMEOUT"),
		GeocodeMinInterval: v.GetDuration("GEOCODE_MIN_INTERVAL"),
		GeocodeCache:       v.GetBool("GEOCODE_CACHE"),

		TileUpstream:     v.GetString("TILE_UPSTREAM"),
		TileSubdomains:   splitList(v.GetString("TILE_SUBDOMAINS")),
		TileCacheEntries: v.GetInt("TILE_CACHE_ENTRIES"),
		TileTimeout:      v.GetDuration("TILE_TIMEOUT"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			return errors.New("DB_PATH is required for the sqlite backend")
		}
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case "redis":
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("REDIS_ADDR is required for the redis backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.GeocodeTimeout < 0 || c.GeocodeMinInterval < 0 || c.TileTimeout < 0 {
		return errors.New("durations must not be negative")
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

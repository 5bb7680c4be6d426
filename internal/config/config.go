package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Port                    string `koanf:"port"`
	AllowedOrigin           string `koanf:"allowed_origin"`
	DatabaseURL             string `koanf:"database_url"`
	RedisAddr               string `koanf:"redis_addr"`
	RedisPassword           string `koanf:"redis_password"`
	RedisDB                 int    `koanf:"redis_db"`
	ShoppingCacheTTLSeconds int    `koanf:"shopping_cache_ttl_seconds"`
	AuthSecret              string `koanf:"auth_secret"`
	AccessTokenTTLMinutes   int    `koanf:"access_token_ttl_minutes"`
	AdminPassword           string `koanf:"admin_password"`
	LogLevel                string `koanf:"log_level"`
	LogFormat               string `koanf:"log_format"`
	Timezone                string `koanf:"timezone"`
	DataDir                 string `koanf:"data_dir"`
}

func defaults() Config {
	return Config{
		Port:                    "8080",
		AllowedOrigin:           "http://127.0.0.1:4321",
		ShoppingCacheTTLSeconds: 300,
		AccessTokenTTLMinutes:   480,
		LogLevel:                "info",
		LogFormat:               "json",
		Timezone:                "Europe/Brussels",
		DataDir:                 "data",
	}
}

// Load layers environment variables over the defaults. PORT maps to port,
// SHOPPING_CACHE_TTL_SECONDS to shopping_cache_ttl_seconds and so on.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	base := defaults()
	if cfg.ShoppingCacheTTLSeconds < 1 {
		cfg.ShoppingCacheTTLSeconds = base.ShoppingCacheTTLSeconds
	}
	if cfg.AccessTokenTTLMinutes < 1 {
		cfg.AccessTokenTTLMinutes = base.AccessTokenTTLMinutes
	}
	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	cfg.AdminPassword = strings.TrimSpace(cfg.AdminPassword)

	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) ShoppingCacheTTL() time.Duration {
	return time.Duration(c.ShoppingCacheTTLSeconds) * time.Second
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

// Location is the household's time zone, used to decide which Monday starts the week.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

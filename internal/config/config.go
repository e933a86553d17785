package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "INBOXRANK_"

// Config represents the server configuration
type Config struct {
	Server struct {
		Port         string `koanf:"port"`
		AllowOrigins string `koanf:"allow_origins"`
	} `koanf:"server"`

	Database struct {
		URL     string `koanf:"url"`
		Migrate bool   `koanf:"migrate"`
	} `koanf:"database"`

	Auth struct {
		JWTSecret string `koanf:"jwt_secret"`
	} `koanf:"auth"`

	Log struct {
		Level  string `koanf:"level"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"log"`
}

// Load builds the configuration from defaults, an optional TOML file and the
// environment. Later sources win.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"server.port":          "8080",
		"server.allow_origins": "http://localhost:3000",
		"database.migrate":     false,
		"log.level":            "info",
		"log.pretty":           false,
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	// Unprefixed variables kept for existing deployments
	legacy := map[string]interface{}{}
	for name, key := range map[string]string{
		"PORT":         "server.port",
		"DATABASE_URL": "database.url",
		"JWT_SECRET":   "auth.jwt_secret",
	} {
		if v := os.Getenv(name); v != "" {
			legacy[key] = v
		}
	}
	k.Load(confmap.Provider(legacy, "."), nil)

	// INBOXRANK_SERVER_PORT -> server.port, INBOXRANK_AUTH_JWT_SECRET -> auth.jwt_secret
	k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func Validate(cfg *Config) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database url is required (DATABASE_URL)")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required (JWT_SECRET)")
	}
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	return nil
}

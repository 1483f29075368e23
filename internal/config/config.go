// Package config loads process settings from the environment. A .env file in
// the working directory, when present, fills in variables that are not
// already set.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

var ErrInvalidConfig = errors.New("invalid config")

type AppEnv string

const (
	ProductionEnv AppEnv = "production"
	DevelopEnv    AppEnv = "develop"
	TestEnv       AppEnv = "test"
)

// Transport names accepted by RISEHAND_TRANSPORT.
const (
	TransportWebsocket = "websocket"
	TransportRedis     = "redis"
	TransportMemory    = "memory"
)

type (
	Config struct {
		AppEnv     AppEnv
		LogLevel   zapcore.Level
		HTTP       HTTP
		Relay      Relay
		Redis      Redis
		Database   Database
		Transport  string
		Identity   Identity
		Language   string
		SendBuffer int
	}

	HTTP struct {
		Addr string
	}

	// Relay is where clients find the websocket relay and which room they
	// share.
	Relay struct {
		URL  string
		Room string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Database struct {
		// DSN for the chat log; empty keeps the log in memory.
		DSN string
	}

	Identity struct {
		UserID    string
		UserName  string
		Moderator bool
	}
)

// Load reads .env (if any) and the environment. Files are passed through to
// godotenv; with none, ./.env is tried and its absence is not an error.
func Load(files ...string) (*Config, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, errors.Wrap(err, "load env files")
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, so tests need not touch
// the process environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		AppEnv: AppEnv(get("APP_ENV", string(DevelopEnv))),
		HTTP:   HTTP{Addr: get("HTTP_ADDR", ":8080")},
		Relay: Relay{
			URL:  get("RISEHAND_RELAY_URL", "http://localhost:8080"),
			Room: get("RISEHAND_ROOM", "TABLE"),
		},
		Redis: Redis{
			Addr:     get("REDIS_ADDR", "localhost:6379"),
			Password: getenv("REDIS_PASSWORD"),
		},
		Database:  Database{DSN: getenv("DATABASE_DSN")},
		Transport: strings.ToLower(get("RISEHAND_TRANSPORT", TransportWebsocket)),
		Identity: Identity{
			UserID:   getenv("RISEHAND_USER_ID"),
			UserName: getenv("RISEHAND_USER_NAME"),
		},
		Language: get("RISEHAND_LANG", "en"),
	}

	level, err := zapcore.ParseLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "LOG_LEVEL: %v", err)
	}
	cfg.LogLevel = level

	if cfg.Redis.DB, err = intVar(get, "REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SendBuffer, err = intVar(get, "RISEHAND_SEND_BUFFER", 64); err != nil {
		return nil, err
	}
	if cfg.SendBuffer <= 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "RISEHAND_SEND_BUFFER must be positive")
	}
	if cfg.Identity.Moderator, err = boolVar(get, "RISEHAND_MODERATOR", false); err != nil {
		return nil, err
	}

	switch cfg.Transport {
	case TransportWebsocket, TransportRedis, TransportMemory:
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown transport %q", cfg.Transport)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == ProductionEnv }

func intVar(get func(string, string) string, key string, def int) (int, error) {
	raw := get(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidConfig, "%s: %q is not a number", key, raw)
	}
	return n, nil
}

func boolVar(get func(string, string) string, key string, def bool) (bool, error) {
	raw := get(key, "")
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Wrapf(ErrInvalidConfig, "%s: %q is not a boolean", key, raw)
	}
	return b, nil
}

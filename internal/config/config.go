// Package config loads process configuration with Viper, the way the
// teacher repo's internal/config package is structured into sub-structs
// per concern, but actually routed through viper.AutomaticEnv instead of
// a hand-rolled os.LookupEnv helper.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds configuration for every process in this module.
type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Cron     CronConfig
	WS       WebSocketConfig
}

type ServerConfig struct {
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
	JWTSecret   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	DSN string
}

type CronConfig struct {
	Timezone string
}

type WebSocketConfig struct {
	Path string
}

// Load reads configuration from the environment (and an optional config
// file named "workscript" on the current path), applying defaults that
// match the teacher's getEnv fallbacks.
func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.loglevel", "info")
	v.SetDefault("server.logformat", "json")
	v.SetDefault("server.jwtsecret", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("database.dsn", "file:workscript.db?mode=memory&cache=shared")
	v.SetDefault("cron.timezone", "UTC")
	v.SetDefault("ws.path", "/ws")

	v.SetConfigName("workscript")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // absent config file is not an error

	bind := func(envKey string) { _ = v.BindEnv(envKey) }
	bind("SERVER_PORT")
	bind("DATABASE_URL")
	bind("REDIS_ADDR")
	bind("CRON_TIMEZONE")
	bind("WS_PATH")
	bind("JWT_SECRET")
	if secret := v.GetString("JWT_SECRET"); secret != "" {
		v.Set("server.jwtsecret", secret)
	}
	if dsn := v.GetString("DATABASE_URL"); dsn != "" {
		v.Set("database.dsn", dsn)
	}
	if addr := v.GetString("REDIS_ADDR"); addr != "" {
		v.Set("redis.addr", addr)
	}
	if tz := v.GetString("CRON_TIMEZONE"); tz != "" {
		v.Set("cron.timezone", tz)
	}
	if path := v.GetString("WS_PATH"); path != "" {
		v.Set("ws.path", path)
	}
	if port := v.GetInt("SERVER_PORT"); port != 0 {
		v.Set("server.port", port)
	}

	return Config{
		Server: ServerConfig{
			Port:        v.GetInt("server.port"),
			Environment: v.GetString("server.environment"),
			LogLevel:    v.GetString("server.loglevel"),
			LogFormat:   v.GetString("server.logformat"),
			JWTSecret:   v.GetString("server.jwtsecret"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			DSN: v.GetString("database.dsn"),
		},
		Cron: CronConfig{
			Timezone: v.GetString("cron.timezone"),
		},
		WS: WebSocketConfig{
			Path: v.GetString("ws.path"),
		},
	}
}

// Location loads the *time.Location named by CronConfig.Timezone,
// falling back to UTC on a bad name.
func (c CronConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

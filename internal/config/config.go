// Package config loads application settings with viper: defaults, then an
// optional config.yaml, then environment variables. A .env file, if present,
// is loaded into the environment first.
//
// Environment keys are the dotted config keys upper-cased with "." replaced
// by "_", e.g. AUTH_JWT_SECRET, SEASON_PURGE_POLICY, DATABASE_PATH.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sakif/club-league/internal/model"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Season    SeasonConfig    `mapstructure:"season"`
	Media     MediaConfig     `mapstructure:"media"`
	Community CommunityConfig `mapstructure:"community"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
	// SecureCookie sets the Secure flag on the login cookie.
	SecureCookie bool `mapstructure:"secure_cookie"`
}

// SeasonConfig controls the monthly archive.
type SeasonConfig struct {
	Timezone         string        `mapstructure:"timezone"`
	PurgePolicy      string        `mapstructure:"purge_policy"`
	SchedulerEnabled bool          `mapstructure:"scheduler_enabled"`
	MaxRetries       uint64        `mapstructure:"max_retries"`
	RetryBase        time.Duration `mapstructure:"retry_base"`
}

type MediaConfig struct {
	Dir         string `mapstructure:"dir"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

type CommunityConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from configPath (a directory holding
// config.yaml; it may be empty) and the environment. The returned Config
// has passed Validate.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.path", "data/club.db")
	v.SetDefault("database.busy_timeout", "5s")

	// AutomaticEnv only resolves keys viper already knows about, so every
	// key that may come from the environment needs a default.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.secure_cookie", false)

	v.SetDefault("season.timezone", "Asia/Seoul")
	v.SetDefault("season.purge_policy", "delete")
	v.SetDefault("season.scheduler_enabled", true)
	v.SetDefault("season.max_retries", 3)
	v.SetDefault("season.retry_base", "200ms")

	v.SetDefault("media.dir", "data/media")
	v.SetDefault("media.max_upload_mb", 50)

	v.SetDefault("community.retention_days", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if _, err := c.Season.Location(); err != nil {
		errs = append(errs, fmt.Errorf("season.timezone: %w", err))
	}
	if _, err := c.Season.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("season.purge_policy: %w", err))
	}
	if c.Media.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("media.max_upload_mb must be positive"))
	}
	if c.Community.RetentionDays <= 0 {
		errs = append(errs, errors.New("community.retention_days must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text, json or logfmt", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Location is the timezone that decides which month a season belongs to.
func (s SeasonConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

func (s SeasonConfig) Policy() (model.PurgePolicy, error) {
	return model.ParsePurgePolicy(s.PurgePolicy)
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

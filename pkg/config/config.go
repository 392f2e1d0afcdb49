package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "ADAPTA"
	ConfigName     = "adapta"
	DefaultBind    = "localhost:8989"
	DefaultDBPath  = "build/adapta.db"
	DefaultBaseURL = "http://localhost:8989"
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	API      APIConfig      `mapstructure:"api"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	History  HistoryConfig  `mapstructure:"history"`
}

type ServerConfig struct {
	Bind string `mapstructure:"bind"`
}

type DatabaseConfig struct {
	Path  string `mapstructure:"path"`
	Debug bool   `mapstructure:"debug"`
}

// APIConfig points the client side at the backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	// JWTSecret verifies access tokens. Empty disables token checks on the server.
	JWTSecret string `mapstructure:"jwt_secret"`
	// Token is the access token the CLI signs in with.
	Token string `mapstructure:"token"`
	// UserID signs the CLI in without a token.
	UserID string `mapstructure:"user_id"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

type HistoryConfig struct {
	Limit int  `mapstructure:"limit"`
	IsPro bool `mapstructure:"pro"`
}

// New returns a viper instance with defaults and ADAPTA_ environment
// overrides (server.bind becomes ADAPTA_SERVER_BIND).
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("server.bind", DefaultBind)
	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.debug", false)
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", DefaultTimeout)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.user_id", "")
	v.SetDefault("log.debug", false)
	v.SetDefault("history.limit", 10)
	v.SetDefault("history.pro", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, or adapta.yaml from the working directory when path is
// empty. Only the implicit file may be missing.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = DefaultTimeout
	}
	return &cfg, nil
}

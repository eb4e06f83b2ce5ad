package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "INKWELL"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDatabasePath = "inkwell.db"
	defaultLogLevel     = "info"
	defaultAIModel      = "gemini-3-flash-preview"
	defaultTokenTTLMin  = 24 * 60
	defaultAPIBaseURL   = "http://localhost:8080"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress   string
	DatabasePath  string
	SigningSecret string
	TokenTTL      time.Duration
	AIAPIKey      string
	AIModel       string
	LogLevel      string
}

// StudioConfig captures runtime configuration for the CLI client.
type StudioConfig struct {
	APIBaseURL string
	StudioDir  string
	LogLevel   string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMin)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("ai.model", defaultAIModel)
	configViper.SetDefault("api.base_url", defaultAPIBaseURL)
	configViper.SetDefault("studio.dir", defaultStudioDir())
}

// Load parses server configuration from viper. The AI key is optional: a
// missing key never blocks startup, AI calls degrade at call time instead.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		DatabasePath:  configViper.GetString("database.path"),
		SigningSecret: configViper.GetString("auth.signing_secret"),
		TokenTTL:      time.Duration(configViper.GetInt("token.ttl_minutes")) * time.Minute,
		AIAPIKey:      configViper.GetString("ai.api_key"),
		AIModel:       configViper.GetString("ai.model"),
		LogLevel:      configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

// LoadStudio parses CLI client configuration from viper.
func LoadStudio(configViper *viper.Viper) (StudioConfig, error) {
	cfg := StudioConfig{
		APIBaseURL: configViper.GetString("api.base_url"),
		StudioDir:  configViper.GetString("studio.dir"),
		LogLevel:   configViper.GetString("log.level"),
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return StudioConfig{}, fmt.Errorf("api.base_url is required")
	}
	if strings.TrimSpace(cfg.StudioDir) == "" {
		return StudioConfig{}, fmt.Errorf("studio.dir is required")
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token.ttl_minutes must be positive")
	}
	return nil
}

func defaultStudioDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".inkwell"
	}
	return filepath.Join(home, ".inkwell")
}

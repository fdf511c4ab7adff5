package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	SessionSecret   string `mapstructure:"SESSION_SECRET"`
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"`

	// Role determination inputs (see auth.DetermineRole).
	OrgDomain        string `mapstructure:"ORG_DOMAIN"`
	SuperAdminMarker string `mapstructure:"SUPER_ADMIN_MARKER"`

	CompletionEndpoint    string  `mapstructure:"COMPLETION_ENDPOINT"`
	CompletionAPIKey      string  `mapstructure:"COMPLETION_API_KEY"`
	CompletionDeployment  string  `mapstructure:"COMPLETION_DEPLOYMENT"`
	CompletionAPIVersion  string  `mapstructure:"COMPLETION_API_VERSION"`
	CompletionMaxTokens   int     `mapstructure:"COMPLETION_MAX_TOKENS"`
	CompletionTemperature float64 `mapstructure:"COMPLETION_TEMPERATURE"`

	SpeechKey    string `mapstructure:"SPEECH_KEY"`
	SpeechRegion string `mapstructure:"SPEECH_REGION"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("SESSION_TTL_HOURS", 12)
	v.SetDefault("COMPLETION_API_VERSION", "2024-02-15-preview")
	v.SetDefault("COMPLETION_MAX_TOKENS", 1500)
	v.SetDefault("COMPLETION_TEMPERATURE", 0.1)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("SESSION_SECRET")
	v.BindEnv("SESSION_TTL_HOURS")
	v.BindEnv("ORG_DOMAIN")
	v.BindEnv("SUPER_ADMIN_MARKER")
	v.BindEnv("COMPLETION_ENDPOINT")
	v.BindEnv("COMPLETION_API_KEY")
	v.BindEnv("COMPLETION_DEPLOYMENT")
	v.BindEnv("COMPLETION_API_VERSION")
	v.BindEnv("COMPLETION_MAX_TOKENS")
	v.BindEnv("COMPLETION_TEMPERATURE")
	v.BindEnv("SPEECH_KEY")
	v.BindEnv("SPEECH_REGION")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.SessionSecret == "" {
		log.Println("WARNING: SESSION_SECRET not set; a random signing key will be generated.")
		log.Println("WARNING: Sessions will not survive a server restart.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// CompletionConfigured reports whether the note-generation upstream has the
// credentials and endpoint it needs. Generation requests are rejected before
// any network call when this is false.
func (c *Config) CompletionConfigured() bool {
	return c.CompletionEndpoint != "" && c.CompletionAPIKey != "" && c.CompletionDeployment != ""
}

// SpeechConfigured reports whether the speech token upstream is configured.
func (c *Config) SpeechConfigured() bool {
	return c.SpeechKey != "" && c.SpeechRegion != ""
}

// Validate checks that the configuration is safe to run. In production a
// session signing secret is mandatory, and the TTL must be positive.
func (c *Config) Validate() error {
	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.SessionTTLHours)
	}
	if c.CompletionTemperature < 0 || c.CompletionTemperature > 2 {
		return fmt.Errorf("COMPLETION_TEMPERATURE must be in [0, 2], got %v", c.CompletionTemperature)
	}
	if c.CompletionMaxTokens <= 0 {
		return fmt.Errorf("COMPLETION_MAX_TOKENS must be positive, got %d", c.CompletionMaxTokens)
	}
	return nil
}

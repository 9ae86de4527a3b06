package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/GyroTools/ehr-connector-go/internals/utils"
)

type Config struct {
	APIURL      string `mapstructure:"EHR_API_URL"`
	Host        string `mapstructure:"EHR_HOST"`
	Env         string `mapstructure:"EHR_ENV"`
	LogLevel    string `mapstructure:"EHR_LOG_LEVEL"`
	VerifyCert  bool   `mapstructure:"EHR_VERIFY_CERT"`
	MetricsFile string `mapstructure:"EHR_METRICS_FILE"`
}

// Load reads the configuration from the environment and an optional .env
// file in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("EHR_API_URL", "")
	v.SetDefault("EHR_HOST", "localhost")
	v.SetDefault("EHR_ENV", "development")
	v.SetDefault("EHR_LOG_LEVEL", "info")
	v.SetDefault("EHR_VERIFY_CERT", true)
	v.SetDefault("EHR_METRICS_FILE", "")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("EHR_API_URL")
	v.BindEnv("EHR_HOST")
	v.BindEnv("EHR_ENV")
	v.BindEnv("EHR_LOG_LEVEL")
	v.BindEnv("EHR_VERIFY_CERT")
	v.BindEnv("EHR_METRICS_FILE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// BaseURL resolves the backend base URL from the override or the host rule.
func (c *Config) BaseURL() (string, error) {
	baseURL, err := utils.ResolveBaseURL(c.APIURL, c.Host)
	if err != nil {
		return "", fmt.Errorf("resolve backend url: %w", err)
	}
	return baseURL, nil
}

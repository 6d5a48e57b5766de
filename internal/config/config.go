// Package config loads service configuration from an optional config file
// and DOCTRAN_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`

	ProjectID   string `mapstructure:"project_id"`
	Location    string `mapstructure:"location"`
	Credentials string `mapstructure:"credentials"`

	StagingBucket string `mapstructure:"staging_bucket"`
	InputBucket   string `mapstructure:"input_bucket"`
	OutputBucket  string `mapstructure:"output_bucket"`
	ErrorBucket   string `mapstructure:"error_bucket"`

	JournalPath string `mapstructure:"journal_path"`

	HTTPHost string `mapstructure:"http_host"`
	HTTPPort int    `mapstructure:"http_port"`
}

// Load reads doctran.yaml from the working directory (or the explicit file
// when path is non-empty), overlays DOCTRAN_ environment variables and
// applies defaults. A missing default config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("environment", "local")
	v.SetDefault("log_level", "info")
	v.SetDefault("location", "us-central1")
	v.SetDefault("staging_bucket", "translation_hub_tmp")
	v.SetDefault("input_bucket", "docs_input")
	v.SetDefault("output_bucket", "docs_output")
	v.SetDefault("error_bucket", "docs_error")
	v.SetDefault("journal_path", "./data/doctran.db")
	v.SetDefault("http_host", "0.0.0.0")
	v.SetDefault("http_port", 8080)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("doctran")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("doctran")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProjectID) == "" {
		return fmt.Errorf("project_id is required (set DOCTRAN_PROJECT_ID)")
	}
	if strings.TrimSpace(c.StagingBucket) == "" {
		return fmt.Errorf("staging_bucket is required")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port %d out of range", c.HTTPPort)
	}
	return nil
}

package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application settings for the API server and the
// CLI runner. Values come from an optional .env file, an optional
// config.yaml, and SUPPLYLINE_-prefixed environment variables, in
// ascending precedence.
type Config struct {
	ListenAddr    string `mapstructure:"listen_addr"`
	DBPath        string `mapstructure:"db_path"`
	OpenAIKey     string `mapstructure:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	SkillFile     string `mapstructure:"skill_file"`
	LogLevel      string `mapstructure:"log_level"`
	RunTimeout    string `mapstructure:"run_timeout"` // upper bound for a full pipeline run
}

func Load() (*Config, error) {
	// Missing .env is fine; env vars may come from the environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("db_path", "supplyline.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("run_timeout", "5m")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix("SUPPLYLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so bind the ones
	// without defaults explicitly.
	for _, key := range []string{"openai_api_key", "openai_base_url", "skill_file"} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Plain OPENAI_API_KEY works as a fallback credential source.
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	return &cfg, nil
}

// SkillDoc reads the configured skill document, the instruction text
// appended to every agent step's system prompt. Empty when no skill
// file is configured.
func (c *Config) SkillDoc() (string, error) {
	if c.SkillFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.SkillFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

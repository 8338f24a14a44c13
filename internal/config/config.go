// Package config loads YAML configuration with .env and environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Generator GeneratorConfig `yaml:"generator"`
	Planner   PlannerConfig   `yaml:"planner"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds Redis settings for the draft lock. Leaving Addr
// empty disables distributed locking.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GeneratorConfig holds LLM plan generation settings.
type GeneratorConfig struct {
	Provider       string `yaml:"provider"` // "openai" or "bedrock"
	OpenAIAPIKey   string `yaml:"openai_api_key"`
	OpenAIModel    string `yaml:"openai_model"`
	BedrockModel   string `yaml:"bedrock_model"`
	AWSRegion      string `yaml:"aws_region"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxAttempts    int    `yaml:"max_attempts"`
}

// PlannerConfig holds revenue allocation settings. ShareTables extends
// the built-in tables for segment counts above three; keys are segment
// counts, values the per-segment shares in position order.
type PlannerConfig struct {
	ShareTables map[int][]float64 `yaml:"share_tables"`
}

// LoggingConfig holds log level settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file is loaded first if present, so secrets can live in .env
// locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Generator.OpenAIAPIKey = v
	}
	if v := os.Getenv("GENERATOR_PROVIDER"); v != "" {
		cfg.Generator.Provider = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Generator.AWSRegion = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Generator.Provider == "" {
		cfg.Generator.Provider = "openai"
	}
	if cfg.Generator.OpenAIModel == "" {
		cfg.Generator.OpenAIModel = "gpt-4o"
	}
	if cfg.Generator.BedrockModel == "" {
		cfg.Generator.BedrockModel = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.Generator.TimeoutSeconds == 0 {
		cfg.Generator.TimeoutSeconds = 120
	}
	if cfg.Generator.MaxAttempts == 0 {
		cfg.Generator.MaxAttempts = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config carries everything the process needs at startup. Values load
// from YAML, then environment variables override the sensitive or
// deployment-specific fields.
type Config struct {
	Gateway struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
	} `yaml:"gateway"`

	Feed struct {
		Address string `yaml:"address"`
		Depth   int    `yaml:"depth"`
	} `yaml:"feed"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.Gateway.Address = "0.0.0.0"
	cfg.Gateway.Port = 9001
	cfg.Feed.Address = ":8080"
	cfg.Feed.Depth = 5
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads and parses the configuration file. An empty path yields
// the defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway port out of range: %d", c.Gateway.Port)
	}
	if c.Feed.Address == "" {
		return fmt.Errorf("feed address is required")
	}
	if c.Feed.Depth <= 0 {
		return fmt.Errorf("feed depth must be positive")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}
	return nil
}

// overrideWithEnv applies environment variables over the file values.
func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("SKOLL_GATEWAY_ADDRESS"); addr != "" {
		cfg.Gateway.Address = addr
	}
	if feed := os.Getenv("SKOLL_FEED_ADDRESS"); feed != "" {
		cfg.Feed.Address = feed
	}
	if brokers := os.Getenv("SKOLL_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if topic := os.Getenv("SKOLL_KAFKA_TOPIC"); topic != "" {
		cfg.Kafka.Topic = topic
	}
	if level := os.Getenv("SKOLL_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

package core

import (
	"fmt"
	"strings"
	"time"
)

type ServerConfig struct {
	Address string `koanf:"address" mapstructure:"address"`
}

type WebhookConfig struct {
	TargetURL             string `koanf:"target_url" mapstructure:"target_url"`
	MaxAttempts           int    `koanf:"max_attempts" mapstructure:"max_attempts"`
	TimeoutSeconds        int    `koanf:"timeout_seconds" mapstructure:"timeout_seconds"`
	InitialBackoffSeconds int    `koanf:"initial_backoff_seconds" mapstructure:"initial_backoff_seconds"`
}

func (c WebhookConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c WebhookConfig) InitialBackoff() time.Duration {
	return time.Duration(c.InitialBackoffSeconds) * time.Second
}

type InboundConfig struct {
	Secret string `koanf:"secret" mapstructure:"secret"`
}

type StorageConfig struct {
	Backend string `koanf:"backend" mapstructure:"backend"`
	DataDir string `koanf:"data_dir" mapstructure:"data_dir"`
	Driver  string `koanf:"driver" mapstructure:"driver"`
	DSN     string `koanf:"dsn" mapstructure:"dsn"`
}

const (
	StorageBackendMemory   = "memory"
	StorageBackendJSONFile = "jsonfile"
	StorageBackendSQL      = "sql"
)

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Server      ServerConfig  `koanf:"server" mapstructure:"server"`
	Webhook     WebhookConfig `koanf:"webhook" mapstructure:"webhook"`
	Inbound     InboundConfig `koanf:"inbound" mapstructure:"inbound"`
	Storage     StorageConfig `koanf:"storage" mapstructure:"storage"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "studio",
		Server: ServerConfig{
			Address: ":8080",
		},
		Webhook: WebhookConfig{
			MaxAttempts:           3,
			TimeoutSeconds:        10,
			InitialBackoffSeconds: 1,
		},
		Storage: StorageConfig{
			Backend: StorageBackendJSONFile,
			DataDir: "data",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	switch strings.TrimSpace(strings.ToLower(c.Storage.Backend)) {
	case StorageBackendMemory, StorageBackendJSONFile, StorageBackendSQL:
	default:
		return fmt.Errorf("core: unsupported storage backend %q", c.Storage.Backend)
	}
	if c.Webhook.MaxAttempts < 0 {
		return fmt.Errorf("core: webhook max_attempts cannot be negative")
	}
	if c.Webhook.TimeoutSeconds < 0 {
		return fmt.Errorf("core: webhook timeout_seconds cannot be negative")
	}
	return nil
}

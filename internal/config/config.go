// Package config provides configuration parsing and validation for alertd.
package config

import (
	"fmt"
)

// Config holds all configuration parameters for the alerting daemon.
type Config struct {
	HTTPPort        string
	KafkaBrokers    string
	DetectionsTopic string
	ConsumerGroupID string
	PostgresDSN     string
	RedisAddr       string
	DefaultFrom     string
	DispatchWorkers int
}

// Validate checks that all required configuration fields are set and have
// valid values. Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http-port cannot be empty")
	}
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.DetectionsTopic == "" {
		return fmt.Errorf("detections-topic cannot be empty")
	}
	if c.ConsumerGroupID == "" {
		return fmt.Errorf("consumer-group-id cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if c.DispatchWorkers <= 0 {
		return fmt.Errorf("dispatch-workers must be positive")
	}
	return nil
}

// Package config provides the runtime's operational configuration —
// timeouts, limits, execution toggles, the runtime's own endpoint identity,
// and the listen/dial addresses of its gRPC transport and observability
// endpoints. It is loaded from a YAML file with a fully-populated set of
// defaults as the fallback.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RuntimeConfig is the flat set of knobs a Runtime (package runtime) and
// its transport/gRPC ComInterface need at startup.
type RuntimeConfig struct {
	// Timeouts
	ResponseTimeoutMs        int `yaml:"response_timeout_ms" json:"response_timeout_ms"`
	RemoteExecutionTimeoutMs int `yaml:"remote_execution_timeout_ms" json:"remote_execution_timeout_ms"`

	// Limits
	MaxBlockBodyBytes int `yaml:"max_block_body_bytes" json:"max_block_body_bytes"`
	MaxStackDepth     int `yaml:"max_stack_depth" json:"max_stack_depth"`

	// Execution toggles
	AllowRemoteExecution bool `yaml:"allow_remote_execution" json:"allow_remote_execution"`
	Deterministic        bool `yaml:"deterministic" json:"deterministic"`
	Verbose              bool `yaml:"verbose" json:"verbose"`

	// Endpoint identity
	SelfEndpoint string `yaml:"self_endpoint" json:"self_endpoint"`

	// gRPC transport
	GRPCListenAddress string `yaml:"grpc_listen_address" json:"grpc_listen_address"`
	GRPCDialTargets   []string `yaml:"grpc_dial_targets" json:"grpc_dial_targets"`

	// Observability
	MetricsListenAddress string `yaml:"metrics_listen_address" json:"metrics_listen_address"`
	JaegerEndpoint       string `yaml:"jaeger_endpoint" json:"jaeger_endpoint"`

	// Logging
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultRuntimeConfig returns the baseline RuntimeConfig a datexd process
// starts from absent a config file.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		ResponseTimeoutMs:        5000,
		RemoteExecutionTimeoutMs: 10000,

		MaxBlockBodyBytes: 1 << 20,
		MaxStackDepth:     1024,

		AllowRemoteExecution: true,
		Deterministic:        false,
		Verbose:              false,

		SelfEndpoint: "@local",

		GRPCListenAddress: ":18080",

		MetricsListenAddress: ":9090",

		LogLevel: "info",
	}
}

// LoadRuntimeConfig reads a YAML file at path, starting from
// DefaultRuntimeConfig and overriding whichever fields the file sets.
func LoadRuntimeConfig(path string) (*RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ResponseTimeout is ResponseTimeoutMs as a time.Duration.
func (c *RuntimeConfig) ResponseTimeout() time.Duration {
	return time.Duration(c.ResponseTimeoutMs) * time.Millisecond
}

// RemoteExecutionTimeout is RemoteExecutionTimeoutMs as a time.Duration.
func (c *RuntimeConfig) RemoteExecutionTimeout() time.Duration {
	return time.Duration(c.RemoteExecutionTimeoutMs) * time.Millisecond
}

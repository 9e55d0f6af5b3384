// Package config loads playground configuration from environment variables,
// with an optional YAML file overlay for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all playground configuration.
type Config struct {
	Execution  ExecutionConfig  `yaml:"execution"`
	Transform  TransformConfig  `yaml:"transform"`
	Serializer SerializerConfig `yaml:"serializer"`
	Sandbox    SandboxConfig    `yaml:"sandbox"`
	Logging    LogConfig        `yaml:"logging"`
}

// ExecutionConfig bounds a single sandboxed execution.
type ExecutionConfig struct {
	// Timeout is the hard ceiling for synchronous execution plus async drain.
	Timeout time.Duration `envconfig:"EXEC_TIMEOUT" default:"10s" yaml:"timeout"`
	// DrainInterval is the polling interval of the async stabilization loop.
	DrainInterval time.Duration `envconfig:"DRAIN_INTERVAL" default:"300ms" yaml:"drain_interval"`
	// StablePolls is how many consecutive polls of an unchanged capture count
	// are required before output is considered settled.
	StablePolls int `envconfig:"STABLE_POLLS" default:"2" yaml:"stable_polls"`
	// MaxWaitSync bounds the drain for code with no async markers.
	MaxWaitSync time.Duration `envconfig:"MAX_WAIT_SYNC" default:"1500ms" yaml:"max_wait_sync"`
	// MaxWaitAsync bounds the drain for code containing async markers.
	MaxWaitAsync time.Duration `envconfig:"MAX_WAIT_ASYNC" default:"6s" yaml:"max_wait_async"`
	// MaxCallStackSize limits goja call stack depth before a RangeError.
	MaxCallStackSize int `envconfig:"MAX_CALL_STACK" default:"2048" yaml:"max_call_stack"`
}

// TransformConfig tunes the source instrumentation passes.
type TransformConfig struct {
	// LoopIterationCeiling is the per-loop iteration budget injected by the
	// loop guard pass.
	LoopIterationCeiling int `envconfig:"LOOP_CEILING" default:"100000" yaml:"loop_iteration_ceiling"`
}

// SerializerConfig bounds value inspection.
type SerializerConfig struct {
	MaxDepth      int           `envconfig:"INSPECT_MAX_DEPTH" default:"10" yaml:"max_depth"`
	MaxProperties int           `envconfig:"INSPECT_MAX_PROPS" default:"1000" yaml:"max_properties"`
	MaxEntries    int           `envconfig:"INSPECT_MAX_ENTRIES" default:"10" yaml:"max_entries"`
	MaxStringLen  int           `envconfig:"INSPECT_MAX_STRING" default:"10000" yaml:"max_string_len"`
	OpTimeout     time.Duration `envconfig:"INSPECT_OP_TIMEOUT" default:"100ms" yaml:"op_timeout"`
}

// SandboxConfig gates the capability surface exposed to executed code.
type SandboxConfig struct {
	Level        string `envconfig:"SANDBOX_LEVEL" default:"medium" yaml:"level"` // low, medium, high
	EnableWebAPI bool   `envconfig:"ENABLE_WEB_API" default:"true" yaml:"enable_web_api"`
	EnableNode   bool   `envconfig:"ENABLE_NODE_API" default:"true" yaml:"enable_node_api"`
	EnableReact  bool   `envconfig:"ENABLE_REACT_API" default:"true" yaml:"enable_react_api"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// Load loads configuration from PLAYGROUND_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("playground", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads configuration from the environment then overlays values
// from a YAML file. File values win over environment values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from the environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Execution: ExecutionConfig{
			Timeout:          10 * time.Second,
			DrainInterval:    300 * time.Millisecond,
			StablePolls:      2,
			MaxWaitSync:      1500 * time.Millisecond,
			MaxWaitAsync:     6 * time.Second,
			MaxCallStackSize: 2048,
		},
		Transform: TransformConfig{
			LoopIterationCeiling: 100000,
		},
		Serializer: SerializerConfig{
			MaxDepth:      10,
			MaxProperties: 1000,
			MaxEntries:    10,
			MaxStringLen:  10000,
			OpTimeout:     100 * time.Millisecond,
		},
		Sandbox: SandboxConfig{
			Level:        "medium",
			EnableWebAPI: true,
			EnableNode:   true,
			EnableReact:  true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

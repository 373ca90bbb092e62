// Package config reads the server configuration from the environment.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-features-mcp/internal/compute"
)

// Config holds the process-wide settings.
type Config struct {
	LogLevel  zerolog.Level
	LogFormat string
	Backend   compute.DeviceClass

	// Detector defaults used when a tool call leaves them out.
	PatchSize   int
	Threshold   float32
	TensorSigma float32
}

// Log formats accepted in IMAGE_MCP_LOG_FORMAT.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Default returns the configuration used when no variables are set.
func Default() *Config {
	return &Config{
		LogLevel:    zerolog.InfoLevel,
		LogFormat:   FormatConsole,
		Backend:     compute.ClassDefault,
		PatchSize:   11,
		Threshold:   0.1,
		TensorSigma: 1,
	}
}

// LoadFromEnv reads the IMAGE_MCP_* variables over the defaults. Unlike
// unset variables, values that are set but malformed are reported as errors.
func LoadFromEnv() (*Config, error) {
	cfg := Default()

	if v := getEnv("IMAGE_MCP_LOG_LEVEL"); v != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil || level == zerolog.NoLevel {
			return nil, fmt.Errorf("invalid IMAGE_MCP_LOG_LEVEL: %q", v)
		}
		cfg.LogLevel = level
	}
	if v := getEnv("IMAGE_MCP_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := getEnv("IMAGE_MCP_BACKEND"); v != "" {
		class, err := compute.ParseClass(strings.ToLower(v))
		if err != nil {
			return nil, fmt.Errorf("invalid IMAGE_MCP_BACKEND: %w", err)
		}
		cfg.Backend = class
	}

	var err error
	if cfg.PatchSize, err = parseInt("IMAGE_MCP_PATCH_SIZE", cfg.PatchSize); err != nil {
		return nil, err
	}
	if cfg.Threshold, err = parseFloat("IMAGE_MCP_THRESHOLD", cfg.Threshold); err != nil {
		return nil, err
	}
	if cfg.TensorSigma, err = parseFloat("IMAGE_MCP_TENSOR_SIGMA", cfg.TensorSigma); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.LogFormat != FormatConsole && c.LogFormat != FormatJSON {
		return fmt.Errorf("IMAGE_MCP_LOG_FORMAT must be console or json (got %q)", c.LogFormat)
	}
	if c.PatchSize <= 0 || c.PatchSize%2 == 0 {
		return fmt.Errorf("IMAGE_MCP_PATCH_SIZE must be a positive odd number (got %d)", c.PatchSize)
	}
	if math.IsNaN(float64(c.Threshold)) {
		return fmt.Errorf("IMAGE_MCP_THRESHOLD must be a number")
	}
	if !(c.TensorSigma > 0) {
		return fmt.Errorf("IMAGE_MCP_TENSOR_SIGMA must be > 0 (got %v)", c.TensorSigma)
	}
	return nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseInt(key string, defaultValue int) (int, error) {
	value := getEnv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return n, nil
}

func parseFloat(key string, defaultValue float32) (float32, error) {
	value := getEnv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return float32(f), nil
}

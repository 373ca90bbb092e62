package config

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-features-mcp/internal/compute"
)

var envKeys = []string{
	"IMAGE_MCP_LOG_LEVEL",
	"IMAGE_MCP_LOG_FORMAT",
	"IMAGE_MCP_BACKEND",
	"IMAGE_MCP_PATCH_SIZE",
	"IMAGE_MCP_THRESHOLD",
	"IMAGE_MCP_TENSOR_SIGMA",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.LogLevel != zerolog.InfoLevel {
		t.Errorf("LogLevel: got %v, want info", cfg.LogLevel)
	}
	if cfg.LogFormat != FormatConsole {
		t.Errorf("LogFormat: got %q", cfg.LogFormat)
	}
	if cfg.Backend != compute.ClassDefault {
		t.Errorf("Backend: got %q", cfg.Backend)
	}
	if cfg.PatchSize != 11 || cfg.Threshold != 0.1 || cfg.TensorSigma != 1 {
		t.Errorf("detector defaults: got %d %v %v", cfg.PatchSize, cfg.Threshold, cfg.TensorSigma)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("IMAGE_MCP_LOG_LEVEL", "DEBUG")
	t.Setenv("IMAGE_MCP_LOG_FORMAT", "json")
	t.Setenv("IMAGE_MCP_BACKEND", "cpu")
	t.Setenv("IMAGE_MCP_PATCH_SIZE", " 7 ")
	t.Setenv("IMAGE_MCP_THRESHOLD", "0.25")
	t.Setenv("IMAGE_MCP_TENSOR_SIGMA", "1.5")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.LogLevel != zerolog.DebugLevel || cfg.LogFormat != FormatJSON || cfg.Backend != compute.ClassCPU {
		t.Errorf("got %+v", cfg)
	}
	if cfg.PatchSize != 7 || cfg.Threshold != 0.25 || cfg.TensorSigma != 1.5 {
		t.Errorf("got %+v", cfg)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"IMAGE_MCP_LOG_LEVEL", "verbose"},
		{"IMAGE_MCP_LOG_FORMAT", "xml"},
		{"IMAGE_MCP_BACKEND", "tpu"},
		{"IMAGE_MCP_PATCH_SIZE", "abc"},
		{"IMAGE_MCP_PATCH_SIZE", "0"},
		{"IMAGE_MCP_PATCH_SIZE", "10"},
		{"IMAGE_MCP_THRESHOLD", "NaN"},
		{"IMAGE_MCP_THRESHOLD", "high"},
		{"IMAGE_MCP_TENSOR_SIGMA", "-1"},
		{"IMAGE_MCP_TENSOR_SIGMA", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}

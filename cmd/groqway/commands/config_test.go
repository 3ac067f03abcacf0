package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeFlags reports only the given flags as explicitly set.
type fakeFlags map[string]any

func (f fakeFlags) IsSet(name string) bool {
	_, ok := f[name]
	return ok
}

func (f fakeFlags) Value(name string) any {
	return f[name]
}

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "groqway.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("", nil, environ())
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Server.Address != "127.0.0.1:4000" {
		t.Errorf("Server.Address = %q", cfg.Server.Address)
	}
	if cfg.Server.MaxRequestBytes != 10<<20 {
		t.Errorf("Server.MaxRequestBytes = %d", cfg.Server.MaxRequestBytes)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Downstream.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("Downstream.BaseURL = %q", cfg.Downstream.BaseURL)
	}
	if cfg.Downstream.Model != "moonshotai/kimi-k2-instruct" || cfg.Downstream.ModelPrefix != "groq/" {
		t.Errorf("Downstream model = %q prefix %q", cfg.Downstream.Model, cfg.Downstream.ModelPrefix)
	}
	if cfg.Downstream.MaxOutputTokens != 16384 {
		t.Errorf("Downstream.MaxOutputTokens = %d", cfg.Downstream.MaxOutputTokens)
	}
	if cfg.Downstream.DefaultTemperature != 0.7 {
		t.Errorf("Downstream.DefaultTemperature = %v", cfg.Downstream.DefaultTemperature)
	}
	if cfg.Diagnostics.Enabled {
		t.Error("Diagnostics.Enabled = true, want hardened default")
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" || cfg.Log.Exporter != "none" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfigFile(t, `
[server]
address = "0.0.0.0:8080"
shutdown_timeout = "10s"

[downstream]
model = "llama-3.3-70b-versatile"
max_output_tokens = 8192

[log]
level = "debug"
`)

	env := environ(
		"GROQWAY_DOWNSTREAM__MODEL=openai/gpt-oss-120b",
		"GROQWAY_METRICS__ENABLED=false",
		"GROQWAY_CONFIG=/ignored.toml",
		"UNRELATED=1",
	)
	flags := fakeFlags{"address": "127.0.0.1:9000", "diagnostics": true}

	cfg, err := loadConfig(path, flags, env)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	// flag beats file
	if cfg.Server.Address != "127.0.0.1:9000" {
		t.Errorf("Server.Address = %q, want flag value", cfg.Server.Address)
	}
	// file beats defaults
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Downstream.MaxOutputTokens != 8192 {
		t.Errorf("Downstream.MaxOutputTokens = %d, want 8192", cfg.Downstream.MaxOutputTokens)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	// env beats file
	if cfg.Downstream.Model != "openai/gpt-oss-120b" {
		t.Errorf("Downstream.Model = %q, want env value", cfg.Downstream.Model)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want env override false")
	}
	if !cfg.Diagnostics.Enabled {
		t.Error("Diagnostics.Enabled = false, want flag override")
	}
	// untouched keys keep defaults
	if cfg.Downstream.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("Downstream.BaseURL = %q", cfg.Downstream.BaseURL)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		environ func() []string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.toml") },
			environ: environ(),
		},
		{
			name:    "malformed file",
			path:    func(t *testing.T) string { return writeConfigFile(t, "[server\naddress =") },
			environ: environ(),
		},
		{
			name:    "invalid value",
			path:    func(t *testing.T) string { return "" },
			environ: environ("GROQWAY_DOWNSTREAM__MAX_OUTPUT_TOKENS=0"),
		},
		{
			name:    "unknown log format",
			path:    func(t *testing.T) string { return "" },
			environ: environ("GROQWAY_LOG__FORMAT=xml"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(tt.path(t), nil, tt.environ); err == nil {
				t.Error("loadConfig() error = nil, want error")
			}
		})
	}
}

func TestEnvToKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GROQWAY_DOWNSTREAM__BASE_URL", "downstream.base_url"},
		{"GROQWAY_SERVER__ADDRESS", "server.address"},
		{"GROQWAY_CONFIG", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, _ := envToKey(tt.in, "v")
			if got != tt.want {
				t.Errorf("envToKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	yamlContent := `
server:
  addr: ":8080"
  workers: 8
  queue_size: 32
routes:
  "/":
    status: "200 OK"
    file: "static/hello.html"
`
	path := createTempFile(t, "test.yaml", yamlContent)

	var cfg Config
	if err := LoadYAML(path, &cfg); err != nil {
		t.Fatalf("LoadYAML failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %v, want :8080", cfg.Server.Addr)
	}
	if cfg.Server.Workers != 8 {
		t.Errorf("Server.Workers = %v, want 8", cfg.Server.Workers)
	}
	if got := cfg.Routes["/"].File; got != "static/hello.html" {
		t.Errorf(`Routes["/"].File = %v, want static/hello.html`, got)
	}
}

func TestLoadYAML_MissingFile(t *testing.T) {
	var cfg Config
	if err := LoadYAML(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Error("LoadYAML should fail for a missing file")
	}
}

func TestLoadYAML_Malformed(t *testing.T) {
	path := createTempFile(t, "bad.yaml", "server: [not a mapping")
	var cfg Config
	if err := LoadYAML(path, &cfg); err == nil {
		t.Error("LoadYAML should fail for malformed YAML")
	}
}

func TestLoad_AppliesDefaultsAndOverrides(t *testing.T) {
	yamlContent := `
server:
  workers: 2
`
	path := createTempFile(t, "partial.yaml", yamlContent)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Workers != 2 {
		t.Errorf("Server.Workers = %d, want override 2", cfg.Server.Workers)
	}
	// Untouched fields keep their defaults.
	if cfg.Server.Addr != ":7878" {
		t.Errorf("Server.Addr = %v, want default :7878", cfg.Server.Addr)
	}
	if cfg.NotFound.Status != "404 NOT FOUND" {
		t.Errorf("NotFound.Status = %v, want default 404 NOT FOUND", cfg.NotFound.Status)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default() should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Server.Workers = 0 },
			wantErr: "workers",
		},
		{
			name:    "empty addr",
			mutate:  func(c *Config) { c.Server.Addr = "" },
			wantErr: "addr",
		},
		{
			name:    "zero queue size",
			mutate:  func(c *Config) { c.Server.QueueSize = 0 },
			wantErr: "queue_size",
		},
		{
			name:    "route without file",
			mutate:  func(c *Config) { c.Routes["/"] = RouteConfig{Status: "200 OK"} },
			wantErr: "file",
		},
		{
			name:    "route without status",
			mutate:  func(c *Config) { c.Routes["/"] = RouteConfig{File: "x.html"} },
			wantErr: "status",
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Routes["/"] = RouteConfig{Status: "200 OK", File: "x.html", DelayMS: -1} },
			wantErr: "delay_ms",
		},
		{
			name:    "metrics enabled without addr",
			mutate:  func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" },
			wantErr: "metrics.addr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

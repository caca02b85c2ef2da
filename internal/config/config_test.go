package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8075" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.StoreBackend != "file" {
		t.Errorf("StoreBackend = %q", cfg.StoreBackend)
	}
	if cfg.ContextLength != 40 {
		t.Errorf("ContextLength = %d, want 40", cfg.ContextLength)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("JobTTL = %v", cfg.JobTTL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marginalia.yaml")
	yaml := "port: \"9000\"\ncontext_length: 60\nstore_backend: redis\nredis_addr: redis:6379\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MARGINALIA_CONFIG", path)
	t.Setenv("MARGINALIA_PORT", "9001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9001" {
		t.Errorf("Port = %q, env should beat file", cfg.Port)
	}
	if cfg.ContextLength != 60 {
		t.Errorf("ContextLength = %d, file should beat default", cfg.ContextLength)
	}
	if cfg.StoreBackend != "redis" || cfg.RedisAddr != "redis:6379" {
		t.Errorf("redis settings not applied: %q %q", cfg.StoreBackend, cfg.RedisAddr)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.StoreBackend = "s3" }},
		{"file backend without path", func(c *Config) { c.StorePath = "" }},
		{"zero context length", func(c *Config) { c.ContextLength = 0 }},
		{"zero workers", func(c *Config) { c.WorkerCount = 0 }},
		{"zero job ttl", func(c *Config) { c.JobTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}

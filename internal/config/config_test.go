/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
	if cfg.BindAddr != ":9611" {
		t.Errorf("Expected default bind addr :9611, got %q", cfg.BindAddr)
	}
	if !cfg.LogJSON {
		t.Error("Expected JSON log output by default")
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty bind addr", func(c *Config) { c.BindAddr = "" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"zero max buffer", func(c *Config) { c.MaxBufferBytes = 0 }},
		{"negative capacity", func(c *Config) { c.RegistryCapacity = -1 }},
		{"zero deadline", func(c *Config) { c.ReadDeadlineSeconds = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestReadDeadline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReadDeadlineSeconds = 45
	if cfg.ReadDeadline() != 45*time.Second {
		t.Errorf("Expected 45s, got %v", cfg.ReadDeadline())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flyio.json")
	content := `{"bind_addr": ":7700", "registry_capacity": 16}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	m := &Manager{cfg: DefaultConfig()}
	if err := m.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	cfg := m.Get()
	if cfg.BindAddr != ":7700" {
		t.Errorf("Expected bind addr :7700, got %q", cfg.BindAddr)
	}
	if cfg.RegistryCapacity != 16 {
		t.Errorf("Expected capacity 16, got %d", cfg.RegistryCapacity)
	}
	// Settings absent from the file keep their defaults.
	if cfg.MaxBufferBytes != DefaultConfig().MaxBufferBytes {
		t.Errorf("Expected default max buffer, got %d", cfg.MaxBufferBytes)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	m := &Manager{cfg: DefaultConfig()}
	if err := m.LoadFromFile("/nonexistent/flyio.json"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadFromFileInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	m := &Manager{cfg: DefaultConfig()}
	if err := m.LoadFromFile(path); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvBindAddr, ":7711")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvMaxBufferBytes, "4096")

	m := &Manager{cfg: DefaultConfig()}
	m.LoadFromEnv()

	cfg := m.Get()
	if cfg.BindAddr != ":7711" {
		t.Errorf("Expected bind addr :7711, got %q", cfg.BindAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.LogLevel)
	}
	if cfg.MaxBufferBytes != 4096 {
		t.Errorf("Expected max buffer 4096, got %d", cfg.MaxBufferBytes)
	}
}

func TestManagerSetGet(t *testing.T) {
	m := &Manager{cfg: DefaultConfig()}
	cfg := DefaultConfig()
	cfg.BindAddr = ":1234"
	m.Set(cfg)
	if m.Get().BindAddr != ":1234" {
		t.Errorf("Expected :1234, got %q", m.Get().BindAddr)
	}
}

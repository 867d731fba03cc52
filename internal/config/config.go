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

/*
Package config provides configuration management for FlyIO.

CONFIGURATION SOURCES (in order of precedence):
===============================================
1. Environment variables (FLYIO_* prefix)
2. Configuration file (JSON format)
3. Default values (lowest priority)

CONFIGURATION CATEGORIES:
=========================
- Network: bind_addr, read_deadline
- Files: data_dir (all opened and mapped files live under it)
- Buffers: registry_capacity, max buffer size
- Logging: log_level, log_json

EXAMPLE CONFIGURATION FILE:
===========================

	{
	  "bind_addr": ":9611",
	  "data_dir": "/var/lib/flyio",
	  "registry_capacity": 1024,
	  "log_level": "info",
	  "log_json": true
	}

ENVIRONMENT VARIABLES:
======================
All settings can be configured via environment variables with FLYIO_ prefix.
Example: FLYIO_BIND_ADDR=":9611" FLYIO_LOG_LEVEL="debug"
*/
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Environment variable names
const (
	EnvBindAddr         = "FLYIO_BIND_ADDR"
	EnvDataDir          = "FLYIO_DATA_DIR"
	EnvLogLevel         = "FLYIO_LOG_LEVEL"
	EnvLogJSON          = "FLYIO_LOG_JSON"
	EnvRegistryCapacity = "FLYIO_REGISTRY_CAPACITY"
	EnvMaxBufferBytes   = "FLYIO_MAX_BUFFER_BYTES"
	EnvReadDeadline     = "FLYIO_READ_DEADLINE_SECONDS"
)

// Config holds all FlyIO daemon settings.
type Config struct {
	// BindAddr is the TCP address the server listens on.
	BindAddr string `json:"bind_addr"`

	// DataDir is the directory all client-visible files live under.
	// Open and map requests may not escape it.
	DataDir string `json:"data_dir"`

	// RegistryCapacity caps the number of live buffer handles per
	// session. 0 means unbounded.
	RegistryCapacity int `json:"registry_capacity"`

	// MaxBufferBytes caps the size of a single allocated buffer.
	MaxBufferBytes int32 `json:"max_buffer_bytes"`

	// ReadDeadlineSeconds is the per-message idle timeout on client
	// connections.
	ReadDeadlineSeconds int `json:"read_deadline_seconds"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`

	// LogJSON selects JSON log output.
	LogJSON bool `json:"log_json"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		BindAddr:            ":9611",
		DataDir:             defaultDataDir(),
		RegistryCapacity:    1024,
		MaxBufferBytes:      16 * 1024 * 1024, // 16MB
		ReadDeadlineSeconds: 300,
		LogLevel:            "info",
		LogJSON:             true,
	}
}

func defaultDataDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".flyio", "data")
	}
	return filepath.Join(os.TempDir(), "flyio-data")
}

// ReadDeadline returns the idle timeout as a Duration.
func (c *Config) ReadDeadline() time.Duration {
	return time.Duration(c.ReadDeadlineSeconds) * time.Second
}

// Validate checks the configuration for inconsistent settings.
func (c *Config) Validate() error {
	if c.BindAddr == "" {
		return fmt.Errorf("bind_addr must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.MaxBufferBytes <= 0 {
		return fmt.Errorf("max_buffer_bytes must be positive, got %d", c.MaxBufferBytes)
	}
	if c.RegistryCapacity < 0 {
		return fmt.Errorf("registry_capacity must not be negative, got %d", c.RegistryCapacity)
	}
	if c.ReadDeadlineSeconds <= 0 {
		return fmt.Errorf("read_deadline_seconds must be positive, got %d", c.ReadDeadlineSeconds)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Manager owns the process-wide configuration.
type Manager struct {
	mu  sync.RWMutex
	cfg *Config
}

var global = &Manager{cfg: DefaultConfig()}

// Global returns the process-wide configuration manager.
func Global() *Manager {
	return global
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Set replaces the current configuration.
func (m *Manager) Set(cfg *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// LoadFromFile merges settings from a JSON file over the current config.
func (m *Manager) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := *m.cfg
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	m.cfg = &cfg
	return nil
}

// LoadFromEnv applies FLYIO_* environment overrides over the current
// config. Unset variables leave their settings untouched.
func (m *Manager) LoadFromEnv() {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := *m.cfg

	if v := os.Getenv(EnvBindAddr); v != "" {
		cfg.BindAddr = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		cfg.LogJSON = v == "true" || v == "1"
	}
	if v := os.Getenv(EnvRegistryCapacity); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RegistryCapacity = n
		}
	}
	if v := os.Getenv(EnvMaxBufferBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.MaxBufferBytes = int32(n)
		}
	}
	if v := os.Getenv(EnvReadDeadline); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReadDeadlineSeconds = n
		}
	}

	m.cfg = &cfg
}

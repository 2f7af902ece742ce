// Package config loads the stakeledger HCL configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/stakeledger/internal/store"
)

// Config is the complete configuration.
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Store  *StoreSettings  `hcl:"store,block"`
	Save   *SaveSettings   `hcl:"save,block"`
}

// ServerSettings configures the HTTP listener and logging.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// StoreSettings selects the persistence backend.
type StoreSettings struct {
	Backend     string `hcl:"backend,optional"`
	DSN         string `hcl:"dsn,optional"`
	Dir         string `hcl:"dir,optional"`
	Fallback    string `hcl:"fallback,optional"`
	FallbackDSN string `hcl:"fallback_dsn,optional"`
}

// SaveSettings tunes debounced saving. A zero or omitted value means the
// default (2000ms debounce, 10000ms timeout); saves are always debounced.
type SaveSettings struct {
	DebounceMs int `hcl:"debounce_ms,optional"`
	TimeoutMs  int `hcl:"timeout_ms,optional"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads filename. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var c Config
	diags = gohcl.DecodeBody(file.Body, nil, &c)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Store == nil {
		c.Store = &StoreSettings{}
	}
	if c.Save == nil {
		c.Save = &SaveSettings{}
	}

	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Store.Backend == "" {
		c.Store.Backend = string(store.BackendFile)
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "sessions"
	}
	if c.Store.DSN == "" && store.Backend(c.Store.Backend) == store.BackendSQLite {
		c.Store.DSN = "stakeledger.db"
	}

	if c.Save.DebounceMs == 0 {
		c.Save.DebounceMs = 2000
	}
	if c.Save.TimeoutMs == 0 {
		c.Save.TimeoutMs = 10000
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if !validBackend(c.Store.Backend) {
		return fmt.Errorf("store: unknown backend %q", c.Store.Backend)
	}
	if c.Store.Fallback != "" {
		if !validBackend(c.Store.Fallback) {
			return fmt.Errorf("store: unknown fallback backend %q", c.Store.Fallback)
		}
		if c.Store.Fallback == c.Store.Backend {
			return fmt.Errorf("store: fallback must differ from backend %q", c.Store.Backend)
		}
	}
	if store.Backend(c.Store.Backend) == store.BackendPostgres && c.Store.DSN == "" {
		return fmt.Errorf("store: postgres backend requires a dsn")
	}
	if store.Backend(c.Store.Fallback) == store.BackendPostgres && c.Store.FallbackDSN == "" {
		return fmt.Errorf("store: postgres fallback requires a fallback_dsn")
	}
	if store.Backend(c.Store.Fallback) == store.BackendSQLite && c.Store.FallbackDSN == "" {
		return fmt.Errorf("store: sqlite fallback requires a fallback_dsn")
	}

	if c.Save.DebounceMs < 0 {
		return fmt.Errorf("save: debounce_ms must not be negative")
	}
	if c.Save.TimeoutMs <= 0 {
		return fmt.Errorf("save: timeout_ms must be positive")
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// StoreOptions converts the store block for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     store.Backend(c.Store.Backend),
		DSN:         c.Store.DSN,
		Dir:         c.Store.Dir,
		Fallback:    store.Backend(c.Store.Fallback),
		FallbackDSN: c.Store.FallbackDSN,
	}
}

// Debounce converts the save block for store.NewDebouncer.
func (c *Config) Debounce() store.DebounceConfig {
	return store.DebounceConfig{
		Delay:       time.Duration(c.Save.DebounceMs) * time.Millisecond,
		SaveTimeout: time.Duration(c.Save.TimeoutMs) * time.Millisecond,
	}
}

func validBackend(b string) bool {
	switch store.Backend(b) {
	case store.BackendMemory, store.BackendFile, store.BackendSQLite, store.BackendPostgres:
		return true
	}
	return false
}

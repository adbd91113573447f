// Package config loads engine settings from, in increasing precedence,
// built-in defaults, an optional YAML file, RETAIN_ environment variables,
// and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"
)

const envPrefix = "RETAIN_"

// Config is the full runtime configuration.
type Config struct {
	// VaultDir is the root of the markdown vault the engine manages
	// notes in.
	VaultDir string `koanf:"vault_dir" validate:"required"`

	// DatabasePath is the SQLite file backing the review state.
	DatabasePath string `koanf:"database_path" validate:"required"`

	// ManagedDir is the vault subdirectory owned by the engine.
	ManagedDir string `koanf:"managed_dir" validate:"required"`

	// ReposDir holds checkouts of git sources.
	ReposDir string `koanf:"repos_dir" validate:"required"`

	// RolloverHours shifts the end-of-day boundary past midnight, so a
	// late-night session still counts as today.
	RolloverHours int `koanf:"rollover_hours" validate:"min=0,max=23"`

	// DefaultPriority is the stored priority assigned to new items,
	// on the 10..50 scale.
	DefaultPriority int `koanf:"default_priority" validate:"min=10,max=50"`

	// QueueLimit caps the number of due items fetched per queue build.
	QueueLimit int `koanf:"queue_limit" validate:"min=1"`

	// ListenAddr is the HTTP API bind address.
	ListenAddr string `koanf:"listen_addr" validate:"required"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
}

func defaults() Config {
	return Config{
		VaultDir:        "vault",
		DatabasePath:    "retain.db",
		ManagedDir:      "retain",
		ReposDir:        "repos",
		RolloverHours:   4,
		DefaultPriority: 30,
		QueueLimit:      100,
		ListenAddr:      "127.0.0.1:8190",
		LogLevel:        "info",
	}
}

// Flags returns the flag set Load understands. The caller parses it so
// usage errors surface before any file access.
func Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("retain", flag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("vault_dir", "", "vault root directory")
	fs.String("database_path", "", "SQLite database file")
	fs.String("managed_dir", "", "vault subdirectory owned by the engine")
	fs.String("repos_dir", "", "directory for git source checkouts")
	fs.Int("rollover_hours", 0, "hours past midnight before a new day starts")
	fs.Int("default_priority", 0, "stored priority for new items (10-50)")
	fs.Int("queue_limit", 0, "maximum due items per queue build")
	fs.String("listen_addr", "", "HTTP API bind address")
	fs.String("log_level", "", "log level: debug, info, warn or error")
	return fs
}

// Load merges all configuration layers and validates the result.
func Load(fs *flag.FlagSet) (Config, error) {
	k := koanf.New(".")

	cfg := defaults()
	if err := k.Load(confmap.Provider(defaultsMap(cfg), "."), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if err := k.Load(posflag.ProviderWithValue(fs, ".", k, skipUnsetFlags(fs)), nil); err != nil {
		return Config{}, fmt.Errorf("loading flags: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// RolloverOffset converts the configured hour count to a duration.
func (c Config) RolloverOffset() time.Duration {
	return time.Duration(c.RolloverHours) * time.Hour
}

// skipUnsetFlags keeps unset flags from clobbering file and env values
// with their zero defaults.
func skipUnsetFlags(fs *flag.FlagSet) func(string, string) (string, any) {
	return func(key, value string) (string, any) {
		if key == "config" {
			return "", nil
		}
		f := fs.Lookup(key)
		if f == nil || !f.Changed {
			return "", nil
		}
		return key, value
	}
}

func defaultsMap(c Config) map[string]any {
	return map[string]any{
		"vault_dir":        c.VaultDir,
		"database_path":    c.DatabasePath,
		"managed_dir":      c.ManagedDir,
		"repos_dir":        c.ReposDir,
		"rollover_hours":   c.RolloverHours,
		"default_priority": c.DefaultPriority,
		"queue_limit":      c.QueueLimit,
		"listen_addr":      c.ListenAddr,
		"log_level":        c.LogLevel,
	}
}

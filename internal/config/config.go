// Package config handles configuration loading and defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultDataFile       = "tasks.json"
	DefaultSchemaFile     = "tasks.schema.json"
	DefaultCategory       = "General"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultConfirmDeletes = true
)

// Config holds the full configuration for taskdeck.
type Config struct {
	// Paths
	DataFile   string `toml:"data_file"`
	SchemaFile string `toml:"schema_file"`

	// Defaults applied when adding tasks
	DefaultCategory string `toml:"default_category"`

	// UI behavior
	ConfirmDeletes bool `toml:"confirm_deletes"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`

	// Working directory the relative paths resolve against (computed)
	WorkDir string `toml:"-"`
}

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.taskdeck/taskdeck.toml or OS-specific config dir)
// 3. Project config file (taskdeck.toml or .taskdeck.toml in the working directory)
// 4. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if userFile := findUserConfigFile(); userFile != "" {
		if _, err := toml.DecodeFile(userFile, cfg); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userFile, err)
		}
	}

	if projFile := findProjectConfigFile(); projFile != "" {
		if _, err := toml.DecodeFile(projFile, cfg); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projFile, err)
		}
	}

	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if err := finalize(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.DataFile = DefaultDataFile
	cfg.SchemaFile = DefaultSchemaFile
	cfg.DefaultCategory = DefaultCategory
	cfg.ConfirmDeletes = DefaultConfirmDeletes
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// parseFlags registers config flags on fs and parses args over cfg.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	fs.StringVar(&cfg.DataFile, "file", cfg.DataFile, "Path to the task file")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "Path to the task file JSON Schema")
	fs.StringVar(&cfg.DefaultCategory, "category", cfg.DefaultCategory, "Default category for new tasks")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text|logfmt|json)")
	return fs.Parse(args)
}

// finalize computes derived values and resolves paths.
func finalize(cfg *Config) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	cfg.WorkDir = wd

	cfg.DataFile = expandPath(cfg.DataFile)
	cfg.SchemaFile = expandPath(cfg.SchemaFile)
	if !filepath.IsAbs(cfg.DataFile) {
		cfg.DataFile = filepath.Join(cfg.WorkDir, cfg.DataFile)
	}
	if !filepath.IsAbs(cfg.SchemaFile) {
		cfg.SchemaFile = filepath.Join(cfg.WorkDir, cfg.SchemaFile)
	}

	if cfg.DefaultCategory == "" {
		cfg.DefaultCategory = DefaultCategory
	}

	return nil
}

// findUserConfigFile locates the user-level config file, if any.
// ~/.taskdeck/taskdeck.toml is preferred, then the OS config directory.
func findUserConfigFile() string {
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".taskdeck", "taskdeck.toml")
		if fileExists(p) {
			return p
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "taskdeck", "taskdeck.toml")
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// findProjectConfigFile locates the project-level config file in the
// current directory. taskdeck.toml is preferred over .taskdeck.toml.
func findProjectConfigFile() string {
	for _, name := range []string{"taskdeck.toml", ".taskdeck.toml"} {
		if fileExists(name) {
			return name
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// expandPath expands a leading ~ and environment variables in paths.
func expandPath(p string) string {
	if p == "" {
		return p
	}

	expanded := os.ExpandEnv(p)
	if expanded == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return home
	}
	if len(expanded) > 1 && expanded[0] == '~' &&
		(expanded[1] == '/' || (runtime.GOOS == "windows" && expanded[1] == '\\')) {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return filepath.Join(home, expanded[2:])
	}
	return expanded
}

// Package config loads the configuration for codeindex from config.json in
// the directory Dir returns (a .codeindex directory under the working
// directory, or ~/.codeindex when that cannot be used), with an optional
// .codeindex.yaml project overlay for scanner excludes. It does not read a
// per-user config.json while the local directory is usable.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ExecutorConfig controls the Task Graph Engine's executor.
type ExecutorConfig struct {
	MaxConcurrency int  `json:"max_concurrency"` // 1..64, default 3
	AutoStart      bool `json:"auto_start"`      // default true
	StopOnError    bool `json:"stop_on_error"`   // default true
	EnableRollback bool `json:"enable_rollback"` // default true
	TaskTimeoutMs  int  `json:"task_timeout_ms"` // default 300_000
	LspTimeoutMs   int  `json:"lsp_timeout_ms"`  // default 30_000
}

// LoggingConfig mirrors internal/logging's own config.json shape so both
// packages read from the same file.
type LoggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories"`
	Level      string          `json:"level"`
	JSONFormat bool            `json:"json_format"`
}

// Config is the top-level configuration object loaded from config.json in
// the directory Dir returns.
type Config struct {
	StorePath string         `json:"store_path"`
	Executor  ExecutorConfig `json:"executor"`
	Logging   LoggingConfig  `json:"logging"`
}

// ScannerOverlay is the optional .codeindex.yaml project-local overlay,
// layered on top of the scanner's built-in exclusion set.
type ScannerOverlay struct {
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// DefaultExecutorConfig returns the built-in executor defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrency: 3,
		AutoStart:      true,
		StopOnError:    true,
		EnableRollback: true,
		TaskTimeoutMs:  300_000,
		LspTimeoutMs:   30_000,
	}
}

// Default returns the zero-config defaults, used when no config file
// exists.
func Default() Config {
	return Config{
		Executor: DefaultExecutorConfig(),
	}
}

// Dir returns the directory configuration is stored in: a project-local
// .codeindex directory if the current working directory has (or can
// create) one, else ~/.codeindex.
func Dir() (string, error) {
	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ".codeindex")
		if stat, err := os.Stat(local); (err == nil && stat.IsDir()) || os.IsNotExist(err) {
			return local, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".codeindex"), nil
}

// File returns the full path to config.json.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads config.json, applying defaults for any zero-valued fields and
// for a missing file entirely.
func Load() (Config, error) {
	path, err := File()
	if err != nil {
		return Default(), err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Default(), err
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), err
	}
	applyExecutorDefaults(&cfg.Executor)
	return cfg, nil
}

func applyExecutorDefaults(e *ExecutorConfig) {
	def := DefaultExecutorConfig()
	if e.MaxConcurrency == 0 {
		e.MaxConcurrency = def.MaxConcurrency
	}
	if e.TaskTimeoutMs == 0 {
		e.TaskTimeoutMs = def.TaskTimeoutMs
	}
	if e.LspTimeoutMs == 0 {
		e.LspTimeoutMs = def.LspTimeoutMs
	}
}

// Save writes cfg to config.json, creating the directory if needed.
func Save(cfg Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path, err := File()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadScannerOverlay reads .codeindex.yaml from root, if present. A missing
// file is not an error — it returns a zero-value overlay.
func LoadScannerOverlay(root string) (ScannerOverlay, error) {
	data, err := os.ReadFile(filepath.Join(root, ".codeindex.yaml"))
	if os.IsNotExist(err) {
		return ScannerOverlay{}, nil
	}
	if err != nil {
		return ScannerOverlay{}, err
	}
	var overlay ScannerOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return ScannerOverlay{}, err
	}
	return overlay, nil
}

// Package config loads and persists the on-disk project configuration
// (.codegraph/config.json), grounded on the original implementation's
// src/config.rs: same defaults, same atomic-write-then-rename persistence,
// same exclude-wins-over-include glob matching.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/codegraph/internal/model"
)

const (
	codegraphDirName = ".codegraph"
	configFileName   = "config.json"
	yamlConfigName   = "config.yaml"
	configVersion    = 1
)

// Config is the persisted project configuration (config.rs's
// CodeGraphConfig).
type Config struct {
	Version           int      `json:"version" yaml:"version"`
	RootDir           string   `json:"root_dir" yaml:"root_dir"`
	Include           []string `json:"include" yaml:"include"`
	Exclude           []string `json:"exclude" yaml:"exclude"`
	MaxFileSize       int64    `json:"max_file_size" yaml:"max_file_size"`
	ExtractDocstrings bool     `json:"extract_docstrings" yaml:"extract_docstrings"`
	TrackCallSites    bool     `json:"track_call_sites" yaml:"track_call_sites"`
	EnableEmbeddings  bool     `json:"enable_embeddings" yaml:"enable_embeddings"`
}

// Default returns the default configuration for rootDir, matching
// config.rs's Default impl.
func Default(rootDir string) Config {
	return Config{
		Version: configVersion,
		RootDir: rootDir,
		Include: []string{"**/*.rs", "**/*.go", "**/*.java"},
		Exclude: []string{
			"target/**", ".git/**", ".codegraph/**", "node_modules/**",
			"vendor/**", "**/*.min.*", "bin/**", "build/**", "out/**", ".gradle/**",
		},
		MaxFileSize:       1048576,
		ExtractDocstrings: true,
		TrackCallSites:    true,
		EnableEmbeddings:  false,
	}
}

// CodegraphDir returns the project's .codegraph directory path.
func CodegraphDir(rootDir string) string {
	return filepath.Join(rootDir, codegraphDirName)
}

// ConfigPath returns the project's config.json path.
func ConfigPath(rootDir string) string {
	return filepath.Join(CodegraphDir(rootDir), configFileName)
}

// yamlConfigPath returns the project's alternate config.yaml path.
func yamlConfigPath(rootDir string) string {
	return filepath.Join(CodegraphDir(rootDir), yamlConfigName)
}

// Load reads the project configuration, preferring config.json and falling
// back to config.yaml, returning Default(rootDir) if neither exists yet.
func Load(rootDir string) (Config, error) {
	data, err := os.ReadFile(ConfigPath(rootDir))
	if err == nil {
		var cfg Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, &model.ConfigError{Message: "parsing config: " + err.Error()}
		}
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return Config{}, &model.ConfigError{Message: "reading config: " + err.Error()}
	}

	data, err = os.ReadFile(yamlConfigPath(rootDir))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(rootDir), nil
		}
		return Config{}, &model.ConfigError{Message: "reading config: " + err.Error()}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &model.ConfigError{Message: "parsing config: " + err.Error()}
	}
	return cfg, nil
}

// Save persists cfg via an atomic temp-file-write-then-rename, creating
// .codegraph/ if needed.
func Save(rootDir string, cfg Config) error {
	dir := CodegraphDir(rootDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &model.ConfigError{Message: "creating config dir: " + err.Error()}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return &model.ConfigError{Message: "encoding config: " + err.Error()}
	}

	final := ConfigPath(rootDir)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &model.ConfigError{Message: "writing temp config: " + err.Error()}
	}
	if err := os.Rename(tmp, final); err != nil {
		return &model.ConfigError{Message: "renaming temp config: " + err.Error()}
	}
	return nil
}

// ShouldIncludeFile reports whether relPath passes cfg's include/exclude
// glob filters. Exclude patterns are checked first and win outright; a
// path that matches no include pattern is also rejected.
func (c Config) ShouldIncludeFile(relPath string) bool {
	for _, pattern := range c.Exclude {
		if matchGlob(pattern, relPath) {
			return false
		}
	}
	for _, pattern := range c.Include {
		if matchGlob(pattern, relPath) {
			return true
		}
	}
	return false
}

func matchGlob(pattern, path string) bool {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return false
	}
	if g.Match(path) {
		return true
	}
	// A leading "**/" also matches zero directories, so "**/*.go" covers
	// a root-level "main.go".
	if strings.HasPrefix(pattern, "**/") {
		return matchGlob(strings.TrimPrefix(pattern, "**/"), path)
	}
	return false
}

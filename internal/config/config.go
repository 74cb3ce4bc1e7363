// Package config provides configuration management for the Drishti
// video review system.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration, loaded from a YAML file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Library  LibraryConfig  `yaml:"library"`
	Export   ExportConfig   `yaml:"export"`
	Detector DetectorConfig `yaml:"detector"`
	Overlay  OverlayConfig  `yaml:"overlay"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir,omitempty"`
}

// StoreConfig holds database settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LibraryConfig holds the recording library settings. When Watch is
// enabled, new video files dropped into Dir are ingested as review
// sessions automatically.
type LibraryConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// ExportConfig holds frame export settings.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// DetectorConfig holds pose detector settings. Script and Python
// override the default search paths for the MoveNet sidecar.
type DetectorConfig struct {
	Script string `yaml:"script,omitempty"`
	Python string `yaml:"python,omitempty"`
}

// OverlayConfig holds the overlay tuning values. These ship as fixed
// defaults; the file exists so they are named values rather than
// constants scattered through the code.
type OverlayConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	DetectionFPS        int     `yaml:"detection_fps"`
	HitRadiusPx         float64 `yaml:"hit_radius_px"`
	DimPaddingPx        float64 `yaml:"dim_padding_px"`
	PauseSettleMs       int     `yaml:"pause_settle_ms"`
	PauseToleranceSec   float64 `yaml:"pause_tolerance_sec"`
}

// SettleDelay returns the automatic-pause settle delay as a Duration.
func (o OverlayConfig) SettleDelay() time.Duration {
	return time.Duration(o.PauseSettleMs) * time.Millisecond
}

// DetectionInterval returns the minimum time between detection passes.
func (o OverlayConfig) DetectionInterval() time.Duration {
	if o.DetectionFPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(o.DetectionFPS)
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML config file. Unset fields fall back to
// the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes the configuration to a YAML file atomically.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := "# Drishti configuration\n\n"
	data = append([]byte(header), data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return os.Rename(tmpPath, path)
}

func (c *Config) applyDefaults() {
	dataDir := defaultDataDir()

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(dataDir, "drishti.db")
	}
	if c.Library.Dir == "" {
		c.Library.Dir = filepath.Join(dataDir, "library")
	}
	if c.Export.Dir == "" {
		c.Export.Dir = filepath.Join(dataDir, "exports")
	}

	o := &c.Overlay
	if o.ConfidenceThreshold == 0 {
		o.ConfidenceThreshold = 0.3
	}
	if o.DetectionFPS == 0 {
		o.DetectionFPS = 30
	}
	if o.HitRadiusPx == 0 {
		o.HitRadiusPx = 15
	}
	if o.DimPaddingPx == 0 {
		o.DimPaddingPx = 50
	}
	if o.PauseSettleMs == 0 {
		o.PauseSettleMs = 200
	}
	if o.PauseToleranceSec == 0 {
		o.PauseToleranceSec = 0.1
	}
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".drishti"
	}
	return filepath.Join(homeDir, ".drishti")
}

// Package config loads and saves the application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	AppName        = "muker"
	AppDescription = "A terminal music player with live spectrum visualization"

	ConfigDir      = ".config/muker"
	ConfigFileName = "config.yml"

	DefaultVolume          = 0.7
	DefaultVisualizerFPS   = 30
	DefaultSpectrumBins    = 32
	DefaultWaveformSamples = 100
	DefaultFFTSize         = 2048
)

// AppVersion can be overridden at build time using ldflags:
// go build -ldflags "-X github.com/mukerapp/muker/internal/config.AppVersion=1.0.0"
var AppVersion = "dev"

// Config is the persisted application configuration.
type Config struct {
	Volume          float64  `yaml:"volume"`
	VisualizerFPS   int      `yaml:"visualizer_fps"`
	SpectrumBins    int      `yaml:"spectrum_bins"`
	WaveformSamples int      `yaml:"waveform_samples"`
	FFTSize         int      `yaml:"fft_size"`
	MusicDirs       []string `yaml:"music_dirs"`
	LastPlaylist    string   `yaml:"last_playlist"`
	Autoplay        bool     `yaml:"autoplay"`
}

// ClampVolume ensures volume is within the valid range [0, 1].
func ClampVolume(volume float64) float64 {
	if volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}

// GetConfigPath returns the path of the user's config file.
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ConfigDir, ConfigFileName), nil
}

// Load reads the config file, falling back to defaults when it is missing
// or unreadable.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Volume = ClampVolume(cfg.Volume)
	if cfg.VisualizerFPS <= 0 {
		cfg.VisualizerFPS = DefaultVisualizerFPS
	}
	if cfg.SpectrumBins <= 0 {
		cfg.SpectrumBins = DefaultSpectrumBins
	}
	if cfg.WaveformSamples <= 0 {
		cfg.WaveformSamples = DefaultWaveformSamples
	}
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = DefaultFFTSize
	}

	return cfg, nil
}

// Save writes the configuration to disk atomically using temp file + rename.
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpFile, err := os.CreateTemp(configDir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	tmpPath = "" // Prevent defer from removing the final file
	return nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Volume:          DefaultVolume,
		VisualizerFPS:   DefaultVisualizerFPS,
		SpectrumBins:    DefaultSpectrumBins,
		WaveformSamples: DefaultWaveformSamples,
		FFTSize:         DefaultFFTSize,
		MusicDirs:       []string{},
		Autoplay:        false,
	}
}

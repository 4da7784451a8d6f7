// Package config loads daemon configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Playback  PlaybackConfig  `mapstructure:"playback"`
	Everyayah EveryayahConfig `mapstructure:"everyayah"`
	Prayer    PrayerConfig    `mapstructure:"prayer"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds the HTTP/Socket.IO surface settings.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CacheConfig holds storage paths.
type CacheConfig struct {
	DBPath        string `mapstructure:"db_path"`
	BookmarksPath string `mapstructure:"bookmarks_path"`
}

// PlaybackConfig holds playback preferences.
type PlaybackConfig struct {
	Reciter      string `mapstructure:"reciter"`
	AutoPlayNext bool   `mapstructure:"auto_play_next"`
	AudioOutput  bool   `mapstructure:"audio_output"`
}

// EveryayahConfig holds remote source settings.
type EveryayahConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	RateLimit int    `mapstructure:"rate_limit"` // requests per second
}

// PrayerConfig holds the prayer-time location and method.
type PrayerConfig struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	Method    string  `mapstructure:"method"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration. The default prayer
// location is Makkah.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 3000,
		},
		Cache: CacheConfig{
			DBPath:        "data/audiocache.db",
			BookmarksPath: "data/bookmarks.db",
		},
		Playback: PlaybackConfig{
			Reciter:      "alafasy",
			AutoPlayNext: true,
			AudioOutput:  true,
		},
		Everyayah: EveryayahConfig{
			BaseURL:   "https://everyayah.com/data",
			RateLimit: 2,
		},
		Prayer: PrayerConfig{
			Latitude:  21.4225,
			Longitude: 39.8262,
			Method:    "mwl",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given file (or the default search
// path when empty) plus QURANINSIGHT_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(defaultConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("QURANINSIGHT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// An explicit path that does not exist falls back to defaults
			if path == "" || !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveReciter persists just the reciter preference.
func SaveReciter(id string) error {
	viper.Set("playback.reciter", id)

	dir := defaultConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file := viper.ConfigFileUsed()
	if file == "" {
		file = filepath.Join(dir, "config.yaml")
	}
	if err := viper.WriteConfigAs(file); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func defaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "quraninsight")
}

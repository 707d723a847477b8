// Package config provides the configuration surface for cardspeech: the
// service-level TOML configuration and the per-call settings resolver that
// merges legacy and current provider keys.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                      string `toml:"url"`
	CardTextSubmittedSubject string `toml:"card_text_submitted_subject"`
	CardAudioCreatedSubject  string `toml:"card_audio_created_subject"`
	ObjectStoreBucket        string `toml:"object_store_bucket"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	OutputDir   string `toml:"output_dir"`
}

// Config is the root configuration structure. TTS carries the raw provider
// settings exactly as the host supplies them (current keys, legacy keys, or
// a mix); they are resolved per synthesis call by ResolveSettings.
type Config struct {
	NATS  NATSConfig     `toml:"nats"`
	TTS   map[string]any `toml:"tts"`
	Paths PathsConfig    `toml:"paths"`
}

// Load loads the configuration for the cardspeech service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}

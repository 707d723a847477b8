package config

import (
	"fmt"
	"strconv"

	"github.com/inferanki/cardspeech/internal/core"
)

// Current setting keys.
const (
	KeyEngine                = "tts_engine"
	KeyAPIKey                = "speechify_api_key"
	KeyVoiceID               = "speechify_voice_id"
	KeyModel                 = "speechify_model"
	KeyLanguageCode          = "speechify_language_code"
	KeyAudioFormat           = "speechify_audio_format"
	KeyLoudnessNormalization = "speechify_loudness_normalization"
	KeyTextNormalization     = "speechify_text_normalization"
	KeyTimeoutSeconds        = "tts_timeout_seconds"
)

// Legacy setting keys, retained from the earlier ElevenLabs integration.
const (
	LegacyKeyAPIKey     = "elevenlabs_api_key"
	LegacyKeyVoice      = "tts_voice"
	LegacyKeyMaxChars   = "tts_max_chars"
	LegacyKeySpeechRate = "elevenlabs_speech_rate"
)

// Built-in defaults. Every setting has one so a resolved Settings is always
// complete, whatever the host's config file contains.
const (
	DefaultEngine         = "speechify"
	DefaultVoice          = "scott"
	DefaultModel          = "simba-multilingual"
	DefaultLanguageCode   = "nb-NO"
	DefaultAudioFormat    = "mp3"
	DefaultMaxChars       = 2000
	DefaultSpeechRate     = 0.8
	DefaultTimeoutSeconds = 30
)

// Settings is the canonical configuration for one synthesis call, produced
// by merging current keys over legacy keys over defaults.
type Settings struct {
	Engine                string
	APIKey                string
	Voice                 string
	Model                 string
	LanguageCode          string
	AudioFormat           string
	MaxChars              int
	SpeechRate            float64
	LoudnessNormalization bool
	TextNormalization     bool
	TimeoutSeconds        int
}

// supportedAudioFormats is the closed set the provider contract covers.
var supportedAudioFormats = map[string]struct{}{
	"aac": {},
	"mp3": {},
	"ogg": {},
	"wav": {},
}

// ResolveSettings merges the host-supplied raw settings map with call-site
// overrides into a complete Settings value. Overrides win over raw values;
// within each source, a current key wins over its legacy key, and the
// built-in default fills any remaining gap. It fails only when a required
// setting is absent or invalid after the merge, before any network call.
func ResolveSettings(raw, overrides map[string]any) (*Settings, error) {
	merged := mergeMaps(raw, overrides)

	settings := &Settings{
		Engine:                stringSetting(merged, KeyEngine, "", DefaultEngine),
		APIKey:                "",
		Voice:                 stringSetting(merged, KeyVoiceID, LegacyKeyVoice, DefaultVoice),
		Model:                 stringSetting(merged, KeyModel, "", DefaultModel),
		LanguageCode:          stringSetting(merged, KeyLanguageCode, "", DefaultLanguageCode),
		AudioFormat:           stringSetting(merged, KeyAudioFormat, "", DefaultAudioFormat),
		MaxChars:              intSetting(merged, "", LegacyKeyMaxChars, DefaultMaxChars),
		SpeechRate:            floatSetting(merged, "", LegacyKeySpeechRate, DefaultSpeechRate),
		LoudnessNormalization: boolSetting(merged, KeyLoudnessNormalization, "", true),
		TextNormalization:     boolSetting(merged, KeyTextNormalization, "", true),
		TimeoutSeconds:        intSetting(merged, KeyTimeoutSeconds, "", DefaultTimeoutSeconds),
	}

	// The legacy engine authenticates with its own key; everything else
	// uses the current credential.
	if settings.Engine == "elevenlabs" {
		settings.APIKey = stringSetting(merged, LegacyKeyAPIKey, KeyAPIKey, "")
	} else {
		settings.APIKey = stringSetting(merged, KeyAPIKey, "", "")
	}

	err := settings.validate()
	if err != nil {
		return nil, err
	}

	return settings, nil
}

func (s *Settings) validate() error {
	if s.APIKey == "" {
		return fmt.Errorf("%w: API key is required", core.ErrConfiguration)
	}

	if _, ok := supportedAudioFormats[s.AudioFormat]; !ok {
		return fmt.Errorf(
			"%w: unsupported audio format %q",
			core.ErrConfiguration,
			s.AudioFormat,
		)
	}

	if s.MaxChars <= 0 {
		return fmt.Errorf(
			"%w: max chars per chunk must be positive, got %d",
			core.ErrConfiguration,
			s.MaxChars,
		)
	}

	if s.TimeoutSeconds <= 0 {
		return fmt.Errorf(
			"%w: request timeout must be positive, got %d",
			core.ErrConfiguration,
			s.TimeoutSeconds,
		)
	}

	return nil
}

func mergeMaps(raw, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(raw)+len(overrides))

	for key, value := range raw {
		merged[key] = value
	}

	for key, value := range overrides {
		merged[key] = value
	}

	return merged
}

// stringSetting resolves one logical string setting: current key first,
// then legacy key, then default. Empty values count as unset.
func stringSetting(settings map[string]any, currentKey, legacyKey, fallback string) string {
	for _, key := range []string{currentKey, legacyKey} {
		if key == "" {
			continue
		}

		if value, ok := asString(settings[key]); ok && value != "" {
			return value
		}
	}

	return fallback
}

func intSetting(settings map[string]any, currentKey, legacyKey string, fallback int) int {
	for _, key := range []string{currentKey, legacyKey} {
		if key == "" {
			continue
		}

		if value, ok := asInt(settings[key]); ok {
			return value
		}
	}

	return fallback
}

func floatSetting(settings map[string]any, currentKey, legacyKey string, fallback float64) float64 {
	for _, key := range []string{currentKey, legacyKey} {
		if key == "" {
			continue
		}

		if value, ok := asFloat(settings[key]); ok {
			return value
		}
	}

	return fallback
}

func boolSetting(settings map[string]any, currentKey, legacyKey string, fallback bool) bool {
	for _, key := range []string{currentKey, legacyKey} {
		if key == "" {
			continue
		}

		if value, ok := settings[key].(bool); ok {
			return value
		}
	}

	return fallback
}

// The raw map is file-sourced; JSON decoding yields float64 for every
// number and TOML yields int64, so each accessor accepts all numeric forms.
func asString(value any) (string, bool) {
	text, ok := value.(string)

	return text, ok
}

func asInt(value any) (int, bool) {
	switch number := value.(type) {
	case int:
		return number, true
	case int64:
		return int(number), true
	case float64:
		return int(number), true
	case string:
		parsed, err := strconv.Atoi(number)
		if err != nil {
			return 0, false
		}

		return parsed, true
	default:
		return 0, false
	}
}

func asFloat(value any) (float64, bool) {
	switch number := value.(type) {
	case float64:
		return number, true
	case int:
		return float64(number), true
	case int64:
		return float64(number), true
	case string:
		parsed, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return 0, false
		}

		return parsed, true
	default:
		return 0, false
	}
}

// Package tts orchestrates the card-to-audio pipeline: text preprocessing,
// voice resolution, chunking, per-chunk provider requests with retry, and
// final audio assembly.
package tts

import (
	"fmt"
	"time"

	"github.com/inferanki/cardspeech/internal/core"
	"github.com/inferanki/cardspeech/internal/tts/elevenlabs"
	"github.com/inferanki/cardspeech/internal/tts/speechify"
)

// ProviderKind identifies one supported TTS backend. The set is closed:
// adding a provider means adding a constructor table entry, not registering
// at runtime.
type ProviderKind string

// Supported provider kinds. The engine setting selects one of these.
const (
	ProviderSpeechify  ProviderKind = "speechify"
	ProviderElevenLabs ProviderKind = "elevenlabs"
)

// ErrUnknownEngine reports an engine name outside the supported set.
var ErrUnknownEngine = fmt.Errorf("%w: unknown tts engine", core.ErrConfiguration)

// ProviderFactory builds a provider client for one synthesis call. Tests
// substitute a factory returning a mock provider.
type ProviderFactory func(engine, apiKey string, timeout time.Duration) (core.Provider, error)

// constructors is the fixed dispatch table from kind to client constructor.
var constructors = map[ProviderKind]func(apiKey string, timeout time.Duration) core.Provider{
	ProviderSpeechify: func(apiKey string, timeout time.Duration) core.Provider {
		return speechify.NewClient(apiKey, "", timeout)
	},
	ProviderElevenLabs: func(apiKey string, timeout time.Duration) core.Provider {
		return elevenlabs.NewClient(apiKey, "", timeout)
	},
}

// NewProvider is the default factory: it maps the engine setting onto the
// constructor table.
func NewProvider(engine, apiKey string, timeout time.Duration) (core.Provider, error) {
	construct, ok := constructors[ProviderKind(engine)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}

	return construct(apiKey, timeout), nil
}

// Package core defines the shared contracts and data types for the
// cardspeech synthesis pipeline.
package core

import "context"

// SynthesisRequest describes one provider request for a single text chunk.
// It is immutable once constructed; the orchestrator builds one per chunk
// from the resolved settings.
type SynthesisRequest struct {
	Text                  string
	VoiceID               string
	Model                 string
	LanguageCode          string
	AudioFormat           string
	SpeechRate            float64
	LoudnessNormalization bool
	TextNormalization     bool
}

// VoiceModel pairs a provider model name with the locales it serves.
type VoiceModel struct {
	Name    string
	Locales []string
}

// Voice is one entry of a provider's voice catalog. Read-only within the
// pipeline.
type Voice struct {
	ID     string
	Gender string
	Models []VoiceModel
	Tags   []string
}

// Chunk is an ordered text segment sent as one synthesis request.
// Separator holds the whitespace run that followed the chunk in the source
// text, so joining Text+Separator over all chunks reproduces the input.
type Chunk struct {
	Text      string
	Separator string
	Index     int
	Total     int
}

// SynthesisResult is the assembled output of one orchestrated call.
// The caller owns it after return.
type SynthesisResult struct {
	Audio      []byte
	Format     string
	ChunkCount int
}

// Provider is the capability contract every TTS backend satisfies: one
// outbound network call per chunk, audio bytes back.
type Provider interface {
	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)
	Voices(ctx context.Context) ([]Voice, error)
}

// Synthesizer runs the full pipeline for one field text.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, overrides map[string]any) (*SynthesisResult, error)
}

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

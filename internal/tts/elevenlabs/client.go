// Package elevenlabs implements the legacy-provider client kept for cards
// whose decks still pin the ElevenLabs engine.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inferanki/cardspeech/internal/core"
)

// DefaultBaseURL is the ElevenLabs API base URL.
const DefaultBaseURL = "https://api.elevenlabs.io/v1"

// Voice settings carried over from the original integration.
const (
	defaultStability       = 0.5
	defaultSimilarityBoost = 0.75
)

const maxErrorBodyBytes = 4096

// Static errors.
var (
	ErrEmptyAudioData = errors.New("provider returned empty audio data")
	ErrTextEmpty      = errors.New("text cannot be empty")
	ErrVoiceIDEmpty   = errors.New("voice id cannot be empty")
)

// Client is an HTTP client for the ElevenLabs synthesis and voice catalog
// endpoints. Unlike the current provider, synthesis responses carry raw
// audio bytes rather than a JSON envelope.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient creates an ElevenLabs client. An empty baseURL selects the
// production endpoint; tests point it at a local server.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// outputFormats maps the pipeline's audio formats onto the endpoint's
// output_format parameter. The endpoint serves MPEG audio and raw PCM
// variants only; formats without a container match here are rejected
// before any network call.
var outputFormats = map[string]string{
	"mp3": "mp3_44100_128",
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	LanguageCode  string        `json:"language_code,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceEntry struct {
	VoiceID string            `json:"voice_id"`
	Name    string            `json:"name"`
	Labels  map[string]string `json:"labels"`
}

type voicesResponse struct {
	Voices []voiceEntry `json:"voices"`
}

// Synthesize sends one chunk to the per-voice speech endpoint and returns
// the raw audio bytes from the response body. The speech rate setting is
// ignored; this provider has no rate control on this endpoint.
func (c *Client) Synthesize(ctx context.Context, req core.SynthesisRequest) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	if req.VoiceID == "" {
		return nil, ErrVoiceIDEmpty
	}

	outputFormat, ok := outputFormats[req.AudioFormat]
	if !ok {
		return nil, fmt.Errorf(
			"%w: audio format %q is not available from the elevenlabs engine",
			core.ErrConfiguration,
			req.AudioFormat,
		)
	}

	payload := speechRequest{
		Text:         req.Text,
		ModelID:      req.Model,
		LanguageCode: req.LanguageCode,
		VoiceSettings: voiceSettings{
			Stability:       defaultStability,
			SimilarityBoost: defaultSimilarityBoost,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal speech request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/text-to-speech/"+req.VoiceID+"?output_format="+outputFormat,
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyResponse(resp, req.LanguageCode, req.Model)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}

	if len(audio) == 0 {
		return nil, ErrEmptyAudioData
	}

	return audio, nil
}

// Voices fetches the provider's voice catalog. ElevenLabs publishes voices
// as a flat list with free-form labels; the labels become tags and no model
// or locale metadata is attached.
func (c *Client) Voices(ctx context.Context) ([]core.Voice, error) {
	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/voices",
		http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create voices request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyResponse(resp, "", "")
	}

	var decoded voicesResponse

	err = json.NewDecoder(resp.Body).Decode(&decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode voice catalog: %w", err)
	}

	voices := make([]core.Voice, 0, len(decoded.Voices))
	for _, entry := range decoded.Voices {
		voices = append(voices, entry.toVoice())
	}

	return voices, nil
}

func (e voiceEntry) toVoice() core.Voice {
	tags := make([]string, 0, len(e.Labels))
	for _, label := range e.Labels {
		tags = append(tags, label)
	}

	return core.Voice{
		ID:     e.VoiceID,
		Gender: e.Labels["gender"],
		Tags:   tags,
	}
}

func classifyResponse(resp *http.Response, language, model string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	detail := string(body)
	if language != "" &&
		(resp.StatusCode == http.StatusBadRequest ||
			resp.StatusCode == http.StatusUnprocessableEntity) {
		detail = fmt.Sprintf("language %q with model %q: %s", language, model, detail)
	}

	return core.ClassifyStatus(resp.StatusCode, detail)
}

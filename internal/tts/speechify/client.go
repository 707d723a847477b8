// Package speechify implements the current-provider client for the
// Speechify text-to-speech API.
package speechify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inferanki/cardspeech/internal/core"
)

// DefaultBaseURL is the Speechify API base URL.
const DefaultBaseURL = "https://api.sws.speechify.com"

// API endpoints.
const (
	apiSpeech = "/v1/audio/speech"
	apiVoices = "/v1/voices"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	headerAuth        = "Authorization"
	contentTypeJSON   = "application/json"
)

// Response bodies are error details at most; cap reads defensively sized.
const maxErrorBodyBytes = 4096

// Static errors.
var (
	ErrEmptyAudioData = errors.New("provider returned empty audio data")
	ErrTextEmpty      = errors.New("text cannot be empty")
)

// Client is an HTTP client for the Speechify synthesis and voice catalog
// endpoints. One client is constructed per synthesis call from the resolved
// settings; there is no shared session state.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient creates a Speechify client. An empty baseURL selects the
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

// speechOptions mirrors the API's per-request normalization switches.
type speechOptions struct {
	LoudnessNormalization bool `json:"loudness_normalization"`
	TextNormalization     bool `json:"text_normalization"`
}

// speechRequest is the JSON payload for one synthesis request.
type speechRequest struct {
	Input       string        `json:"input"`
	VoiceID     string        `json:"voice_id"`
	Model       string        `json:"model,omitempty"`
	Language    string        `json:"language,omitempty"`
	AudioFormat string        `json:"audio_format"`
	Options     speechOptions `json:"options"`
}

// speechResponse carries the synthesized audio as base64.
type speechResponse struct {
	AudioData               string `json:"audio_data"`
	AudioFormat             string `json:"audio_format"`
	BillableCharactersCount int    `json:"billable_characters_count"`
}

// voiceEntry is one catalog voice as returned by the API.
type voiceEntry struct {
	ID     string       `json:"id"`
	Gender string       `json:"gender"`
	Tags   []string     `json:"tags"`
	Models []modelEntry `json:"models"`
}

type modelEntry struct {
	Name      string          `json:"name"`
	Languages []languageEntry `json:"languages"`
}

type languageEntry struct {
	Locale string `json:"locale"`
}

// Synthesize sends one chunk to the speech endpoint and returns the decoded
// audio bytes. A non-default speech rate is passed through as an SSML
// prosody wrapper, which the provider supports.
func (c *Client) Synthesize(ctx context.Context, req core.SynthesisRequest) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	input := req.Text
	if req.SpeechRate != 0 && req.SpeechRate != 1.0 {
		input = fmt.Sprintf(`<prosody rate="%g">%s</prosody>`, req.SpeechRate, input)
	}

	payload := speechRequest{
		Input:       input,
		VoiceID:     req.VoiceID,
		Model:       req.Model,
		Language:    req.LanguageCode,
		AudioFormat: req.AudioFormat,
		Options: speechOptions{
			LoudnessNormalization: req.LoudnessNormalization,
			TextNormalization:     req.TextNormalization,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal speech request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiSpeech,
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeJSON)
	httpReq.Header.Set(headerAuth, "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyResponse(resp, req.LanguageCode, req.Model)
	}

	var decoded speechResponse

	err = json.NewDecoder(resp.Body).Decode(&decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode speech response: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(decoded.AudioData)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 audio data: %w", core.ErrAudioDecode, err)
	}

	if len(audio) == 0 {
		return nil, ErrEmptyAudioData
	}

	return audio, nil
}

// Voices fetches the provider's voice catalog.
func (c *Client) Voices(ctx context.Context) ([]core.Voice, error) {
	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+apiVoices,
		http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create voices request: %w", err)
	}

	httpReq.Header.Set(headerAccept, contentTypeJSON)
	httpReq.Header.Set(headerAuth, "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyResponse(resp, "", "")
	}

	var entries []voiceEntry

	err = json.NewDecoder(resp.Body).Decode(&entries)
	if err != nil {
		return nil, fmt.Errorf("failed to decode voice catalog: %w", err)
	}

	voices := make([]core.Voice, 0, len(entries))
	for _, entry := range entries {
		voices = append(voices, entry.toVoice())
	}

	return voices, nil
}

func (e voiceEntry) toVoice() core.Voice {
	models := make([]core.VoiceModel, 0, len(e.Models))

	for _, model := range e.Models {
		locales := make([]string, 0, len(model.Languages))
		for _, language := range model.Languages {
			locales = append(locales, language.Locale)
		}

		models = append(models, core.VoiceModel{Name: model.Name, Locales: locales})
	}

	return core.Voice{
		ID:     e.ID,
		Gender: e.Gender,
		Models: models,
		Tags:   e.Tags,
	}
}

// classifyResponse reads the (bounded) error body and maps the status onto
// the shared taxonomy, naming the rejected language/model pair when the
// provider refused it.
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

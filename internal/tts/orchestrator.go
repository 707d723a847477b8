package tts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"

	"github.com/inferanki/cardspeech/internal/config"
	"github.com/inferanki/cardspeech/internal/core"
	"github.com/inferanki/cardspeech/internal/tts/audio"
	"github.com/inferanki/cardspeech/internal/tts/text"
	"github.com/inferanki/cardspeech/internal/tts/voices"
)

// Retry policy for transient provider failures.
const (
	maxRetries        = 3
	initialBackoff    = 500 * time.Millisecond
	backoffMultiplier = 2
)

// ErrNothingToSynthesize reports a card field that is empty after
// preprocessing, such as a field holding only markup.
var ErrNothingToSynthesize = errors.New("no synthesizable text after preprocessing")

// runState labels one stage of a synthesis call.
type runState string

const (
	stateIdle           runState = "idle"
	statePreprocessing  runState = "preprocessing"
	stateResolvingVoice runState = "resolving_voice"
	stateChunking       runState = "chunking"
	stateRequesting     runState = "requesting"
	stateAssembling     runState = "assembling"
	stateDone           runState = "done"
	stateFailed         runState = "failed"
)

// Orchestrator runs the full card-to-audio pipeline and implements
// core.Synthesizer. It holds only immutable collaborators and the shared
// voice catalog cache; all per-call state lives in a run value, so one
// orchestrator serves concurrent calls.
type Orchestrator struct {
	settings     map[string]any
	log          *logger.Logger
	preprocessor *text.Preprocessor
	resolver     *voices.Resolver
	catalog      *voices.Cache
	factory      ProviderFactory

	// sleep is swapped out in tests to keep backoff instant.
	sleep func(time.Duration)
}

// Earlier releases exposed the pipeline under engine-specific names; the
// aliases keep those call sites compiling.
type (
	TTSProcessor           = Orchestrator
	TTSHandler             = Orchestrator
	SpeechifyTTSProcessor  = Orchestrator
	ElevenLabsTTSProcessor = Orchestrator
)

// NewOrchestrator creates an orchestrator over the host's raw settings map.
// A nil factory selects the real provider constructors.
func NewOrchestrator(
	settings map[string]any,
	log *logger.Logger,
	factory ProviderFactory,
) *Orchestrator {
	if factory == nil {
		factory = NewProvider
	}

	return &Orchestrator{
		settings:     settings,
		log:          log,
		preprocessor: text.NewPreprocessor(),
		resolver:     voices.NewResolver(config.DefaultVoice),
		catalog:      voices.NewCache(),
		factory:      factory,
		sleep:        time.Sleep,
	}
}

// run is the call-scoped state machine for one synthesis.
type run struct {
	orch  *Orchestrator
	state runState
}

func (r *run) transition(next runState) {
	r.orch.log.Info("Synthesis state: %s -> %s", r.state, next)
	r.state = next
}

func (r *run) fail(err error) error {
	r.orch.log.Error("Synthesis failed in state %s: %v", r.state, err)
	r.state = stateFailed

	return err
}

// Synthesize converts one card field text to audio. Overrides win over the
// host settings key by key. The result is all-or-nothing: any chunk failure
// discards the audio produced so far.
func (o *Orchestrator) Synthesize(
	ctx context.Context,
	fieldText string,
	overrides map[string]any,
) (*core.SynthesisResult, error) {
	call := &run{orch: o, state: stateIdle}

	settings, err := config.ResolveSettings(o.settings, overrides)
	if err != nil {
		return nil, call.fail(err)
	}

	call.transition(statePreprocessing)

	cleaned := o.preprocessor.Preprocess(fieldText, settings.LanguageCode)
	if cleaned == "" {
		return nil, call.fail(ErrNothingToSynthesize)
	}

	provider, err := o.factory(settings.Engine, settings.APIKey, o.requestTimeout(settings))
	if err != nil {
		return nil, call.fail(err)
	}

	call.transition(stateResolvingVoice)

	voiceID := o.resolveVoice(ctx, provider, settings)

	call.transition(stateChunking)

	chunks, err := text.Split(cleaned, settings.MaxChars)
	if err != nil {
		return nil, call.fail(err)
	}

	call.transition(stateRequesting)

	parts, err := o.requestChunks(ctx, provider, settings, voiceID, chunks)
	if err != nil {
		return nil, call.fail(err)
	}

	call.transition(stateAssembling)

	assembled, err := audio.Assemble(settings.AudioFormat, parts)
	if err != nil {
		return nil, call.fail(err)
	}

	call.transition(stateDone)
	o.log.Info(
		"Synthesized %d chars into %d bytes of %s audio across %d chunks",
		len(cleaned),
		len(assembled),
		settings.AudioFormat,
		len(chunks),
	)

	return &core.SynthesisResult{
		Audio:      assembled,
		Format:     settings.AudioFormat,
		ChunkCount: len(chunks),
	}, nil
}

// resolveVoice picks the voice id, fetching the catalog through the shared
// cache. A catalog failure is logged and resolution proceeds without it.
func (o *Orchestrator) resolveVoice(
	ctx context.Context,
	provider core.Provider,
	settings *config.Settings,
) string {
	catalog, err := o.catalog.Voices(ctx, settings.APIKey, provider.Voices)
	if err != nil {
		o.log.Warn("Voice catalog unavailable, resolving without it: %v", err)

		catalog = nil
	}

	return o.resolver.Resolve(settings.Voice, settings.LanguageCode, nil, catalog)
}

// requestChunks synthesizes every chunk in order. Chunks are sent
// sequentially so provider rate limits see one in-flight request per call
// and the parts arrive pre-ordered.
func (o *Orchestrator) requestChunks(
	ctx context.Context,
	provider core.Provider,
	settings *config.Settings,
	voiceID string,
	chunks []core.Chunk,
) ([][]byte, error) {
	parts := make([][]byte, 0, len(chunks))

	for _, chunk := range chunks {
		request := core.SynthesisRequest{
			Text:                  chunk.Text,
			VoiceID:               voiceID,
			Model:                 settings.Model,
			LanguageCode:          settings.LanguageCode,
			AudioFormat:           settings.AudioFormat,
			SpeechRate:            settings.SpeechRate,
			LoudnessNormalization: settings.LoudnessNormalization,
			TextNormalization:     settings.TextNormalization,
		}

		part, err := o.requestWithRetry(ctx, provider, settings, request)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", chunk.Index+1, chunk.Total, err)
		}

		parts = append(parts, part)
	}

	return parts, nil
}

// requestWithRetry sends one chunk, retrying transient failures with
// exponential backoff. Each attempt runs under its own timeout so a hung
// request counts as one failed attempt, not a dead call.
func (o *Orchestrator) requestWithRetry(
	ctx context.Context,
	provider core.Provider,
	settings *config.Settings,
	request core.SynthesisRequest,
) ([]byte, error) {
	backoff := initialBackoff

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			o.log.Warn(
				"Retrying chunk after transient failure (attempt %d/%d): %v",
				attempt,
				maxRetries,
				lastErr,
			)
			o.sleep(backoff)

			backoff *= backoffMultiplier
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.requestTimeout(settings))
		part, err := provider.Synthesize(attemptCtx, request)

		cancel()

		if err == nil {
			return part, nil
		}

		if !core.IsRetryable(err) {
			return nil, err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", err, ctx.Err())
		}

		lastErr = err
	}

	return nil, fmt.Errorf("exhausted %d retries: %w", maxRetries, lastErr)
}

func (o *Orchestrator) requestTimeout(settings *config.Settings) time.Duration {
	return time.Duration(settings.TimeoutSeconds) * time.Second
}

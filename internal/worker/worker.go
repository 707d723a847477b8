// Package worker consumes card synthesis jobs from NATS and replies with
// the generated audio's object key.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/inferanki/cardspeech/internal/core"
)

// jobTimeout bounds one complete card synthesis, including every chunk
// request and its retries.
const jobTimeout = 5 * time.Minute

// ErrTextKeyEmpty indicates a job event without a text object key.
var ErrTextKeyEmpty = errors.New("text key cannot be empty")

// CardTextSubmittedEvent is the job payload: a card field text waiting in
// the object store, plus per-card setting overrides from the host.
type CardTextSubmittedEvent struct {
	Header    events.EventHeader `json:"header"`
	TextKey   string             `json:"text_key"`
	NoteID    int64              `json:"note_id"`
	Overrides map[string]any     `json:"overrides,omitempty"`
}

// CardAudioCreatedEvent is the reply payload naming the uploaded audio.
type CardAudioCreatedEvent struct {
	Header     events.EventHeader `json:"header"`
	NoteID     int64              `json:"note_id"`
	AudioKey   string             `json:"audio_key"`
	Format     string             `json:"format"`
	ChunkCount int                `json:"chunk_count"`
}

// NatsWorker subscribes to the job subject and runs the synthesis pipeline
// for each message. Failures are logged and the message is dropped; the
// worker itself never stops on a bad job.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	store          core.ObjectStore
	synthesizer    core.Synthesizer
	log            *logger.Logger
}

// NewNatsWorker creates a worker bound to the given job subject.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	store core.ObjectStore,
	synthesizer core.Synthesizer,
	log *logger.Logger,
) *NatsWorker {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		store:          store,
		synthesizer:    synthesizer,
		log:            log,
	}
}

// Run subscribes and blocks until the context is cancelled, then drains the
// subscription.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	event, err := parseEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse card job event: %v", err)

		return
	}

	reply, err := w.processCardJob(ctx, event)
	if err != nil {
		w.log.Error(
			"Failed to synthesize card audio for workflow %s (note %d): %v",
			event.Header.WorkflowID,
			event.NoteID,
			err,
		)

		return
	}

	err = w.publishReply(msg, reply)
	if err != nil {
		w.log.Error(
			"Failed to publish reply for workflow %s: %v",
			event.Header.WorkflowID,
			err,
		)
	}
}

// processCardJob downloads the card text, synthesizes it and uploads the
// audio under a fresh key.
func (w *NatsWorker) processCardJob(
	ctx context.Context,
	event *CardTextSubmittedEvent,
) (*CardAudioCreatedEvent, error) {
	textData, err := w.store.Download(ctx, event.TextKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download card text '%s': %w", event.TextKey, err)
	}

	result, err := w.synthesizer.Synthesize(ctx, string(textData), event.Overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize card text: %w", err)
	}

	audioKey := uuid.NewString() + "." + result.Format

	err = w.store.Upload(ctx, audioKey, result.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to upload card audio '%s': %w", audioKey, err)
	}

	w.log.Info(
		"Synthesized card audio for workflow %s: %s (%d chunks)",
		event.Header.WorkflowID,
		audioKey,
		result.ChunkCount,
	)

	return &CardAudioCreatedEvent{
		Header:     event.Header,
		NoteID:     event.NoteID,
		AudioKey:   audioKey,
		Format:     result.Format,
		ChunkCount: result.ChunkCount,
	}, nil
}

func (w *NatsWorker) publishReply(msg *nats.Msg, reply *CardAudioCreatedEvent) error {
	replyData, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func parseEvent(msg *nats.Msg) (*CardTextSubmittedEvent, error) {
	var event CardTextSubmittedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.TextKey == "" {
		return nil, ErrTextKeyEmpty
	}

	return &event, nil
}

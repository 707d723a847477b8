// Package worker_test tests the NATS card synthesis worker.
package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferanki/cardspeech/internal/core"
	"github.com/inferanki/cardspeech/internal/worker"
)

const requestTimeout = 5 * time.Second

var (
	errMockDownload   = errors.New("mock download error")
	errMockSynthesize = errors.New("mock synthesize error")
)

// mockObjectStore records uploads and serves a fixed card text.
type mockObjectStore struct {
	downloadShouldFail bool
	downloadedKey      string
	uploadedKey        string
	uploadedData       []byte
}

func (m *mockObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	if m.downloadShouldFail {
		return nil, errMockDownload
	}

	m.downloadedKey = key

	return []byte("sample card text"), nil
}

func (m *mockObjectStore) Upload(_ context.Context, key string, data []byte) error {
	m.uploadedKey = key
	m.uploadedData = data

	return nil
}

// mockSynthesizer records the text and overrides it was called with.
type mockSynthesizer struct {
	synthesizeShouldFail bool
	text                 string
	overrides            map[string]any
}

func (m *mockSynthesizer) Synthesize(
	_ context.Context,
	text string,
	overrides map[string]any,
) (*core.SynthesisResult, error) {
	if m.synthesizeShouldFail {
		return nil, errMockSynthesize
	}

	m.text = text
	m.overrides = overrides

	return &core.SynthesisResult{
		Audio:      []byte("sample audio"),
		Format:     "mp3",
		ChunkCount: 2,
	}, nil
}

func createTestNatsClient(t *testing.T) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // random port
	opts.JetStream = true
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	t.Cleanup(func() {
		natsConnection.Close()
		natsServer.Shutdown()
	})

	return natsConnection
}

func setupTest(t *testing.T) (*mockObjectStore, *mockSynthesizer, *nats.Conn) {
	t.Helper()

	mockStore := &mockObjectStore{}
	mockSynth := &mockSynthesizer{}

	natsConnection := createTestNatsClient(t)

	testLogger, err := logger.New(t.TempDir(), "worker-test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = testLogger.Close()
	})

	workerInstance := worker.NewNatsWorker(
		natsConnection, "card.text.submitted", mockStore, mockSynth, testLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	errChan := make(chan error, 1)

	go func() {
		errChan <- workerInstance.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()

		shutdownErr := <-errChan
		assert.NoError(t, shutdownErr)
	})

	return mockStore, mockSynth, natsConnection
}

func testHeader() events.EventHeader {
	return events.EventHeader{
		Timestamp:  time.Now(),
		WorkflowID: uuid.NewString(),
		EventID:    uuid.NewString(),
		UserID:     "",
		TenantID:   "",
	}
}

func TestWorker_CardJobRoundTrip(t *testing.T) {
	t.Parallel()

	mockStore, mockSynth, natsConnection := setupTest(t)

	jobEvent := &worker.CardTextSubmittedEvent{
		Header:    testHeader(),
		TextKey:   "note-42-front.txt",
		NoteID:    42,
		Overrides: map[string]any{"tts_voice": "Emma"},
	}
	eventData, err := json.Marshal(jobEvent)
	require.NoError(t, err)

	replyMsg, err := natsConnection.Request("card.text.submitted", eventData, requestTimeout)
	require.NoError(t, err, "Request should succeed and receive a reply")

	var reply worker.CardAudioCreatedEvent

	err = json.Unmarshal(replyMsg.Data, &reply)
	require.NoError(t, err)

	assert.Equal(t, "note-42-front.txt", mockStore.downloadedKey)
	assert.Equal(t, "sample card text", mockSynth.text)
	assert.Equal(t, "Emma", mockSynth.overrides["tts_voice"])

	assert.Equal(t, []byte("sample audio"), mockStore.uploadedData)
	assert.Equal(t, mockStore.uploadedKey, reply.AudioKey)
	assert.True(t, strings.HasSuffix(reply.AudioKey, ".mp3"))
	assert.Equal(t, int64(42), reply.NoteID)
	assert.Equal(t, 2, reply.ChunkCount)
	assert.Equal(t, jobEvent.Header.WorkflowID, reply.Header.WorkflowID)
}

// A failed job produces no reply; the requester times out.
func TestWorker_SynthesisFailureNoReply(t *testing.T) {
	t.Parallel()

	_, mockSynth, natsConnection := setupTest(t)
	mockSynth.synthesizeShouldFail = true

	jobEvent := &worker.CardTextSubmittedEvent{
		Header:  testHeader(),
		TextKey: "note-43-front.txt",
		NoteID:  43,
	}
	eventData, err := json.Marshal(jobEvent)
	require.NoError(t, err)

	_, err = natsConnection.Request("card.text.submitted", eventData, 500*time.Millisecond)
	require.Error(t, err)
}

func TestWorker_InvalidEventIgnored(t *testing.T) {
	t.Parallel()

	mockStore, _, natsConnection := setupTest(t)

	_, err := natsConnection.Request(
		"card.text.submitted",
		[]byte(`{"text_key":""}`),
		500*time.Millisecond,
	)
	require.Error(t, err)
	assert.Empty(t, mockStore.downloadedKey)
}

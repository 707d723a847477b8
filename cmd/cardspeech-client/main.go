// main package for the cardspeech local client: synthesizes one text
// straight through the pipeline without NATS, for deck debugging.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/inferanki/cardspeech/internal/config"
	"github.com/inferanki/cardspeech/internal/tts"
)

// Flag names and descriptions.
const (
	flagText       = "text"
	flagTextDesc   = "Card field text to synthesize"
	flagOutput     = "output"
	flagOutputDesc = "Output file path (default: inferanki-<uuid>.<format> in the configured output dir)"
	flagVoice      = "voice"
	flagVoiceDesc  = "Voice name or id override"
	flagEngine     = "engine"
	flagEngineDesc = "TTS engine override (speechify or elevenlabs)"
)

var errTextRequired = errors.New("--text is required")

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	text   string
	output string
	voice  string
	engine string
}

func main() {
	err := run()
	if err != nil {
		// The logger might not be initialized yet.
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()
	if flags.text == "" {
		return errTextRequired
	}

	bootstrapLog, err := logger.New(os.TempDir(), "cardspeech-client.log")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer bootstrapLog.Close()

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	orchestrator := tts.NewOrchestrator(cfg.TTS, bootstrapLog, nil)

	result, err := orchestrator.Synthesize(context.Background(), flags.text, overrides(flags))
	if err != nil {
		return fmt.Errorf("failed to synthesize text: %w", err)
	}

	outputPath := flags.output
	if outputPath == "" {
		fileName := fmt.Sprintf("inferanki-%s.%s", uuid.NewString(), result.Format)
		outputPath = filepath.Join(cfg.Paths.OutputDir, fileName)
	}

	err = os.WriteFile(outputPath, result.Audio, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	fmt.Printf("Generated: %s (%d chunks)\n", outputPath, result.ChunkCount)

	return nil
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.text, flagText, "", flagTextDesc)
	flag.StringVar(&flags.output, flagOutput, "", flagOutputDesc)
	flag.StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	flag.StringVar(&flags.engine, flagEngine, "", flagEngineDesc)
	flag.Parse()

	return flags
}

// overrides maps the optional flags onto per-call setting overrides.
func overrides(flags appFlags) map[string]any {
	values := map[string]any{}

	if flags.voice != "" {
		values[config.KeyVoiceID] = flags.voice
	}

	if flags.engine != "" {
		values[config.KeyEngine] = flags.engine
	}

	return values
}

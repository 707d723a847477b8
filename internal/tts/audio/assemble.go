// Package audio joins per-chunk audio parts into one playable output.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/inferanki/cardspeech/internal/core"
)

// Static errors.
var (
	ErrNoParts          = errors.New("no audio parts to assemble")
	ErrUnknownFormat    = errors.New("unknown audio format")
	ErrFormatMismatch   = errors.New("audio parts have mismatched encoding parameters")
	ErrMissingDataChunk = errors.New("wav part has no data chunk")
)

const (
	riffHeaderSize  = 12
	chunkHeaderSize = 8
)

// Assemble joins ordered audio parts into one output in the given format.
//
// MP3 and ADTS-framed AAC streams are self-delimiting frame sequences, so
// byte concatenation yields a valid stream. Ogg concatenation produces a
// chained bitstream, which the target players accept. WAV parts carry a
// per-file header and must be merged at the container level.
func Assemble(format string, parts [][]byte) ([]byte, error) {
	if len(parts) == 0 {
		return nil, ErrNoParts
	}

	if len(parts) == 1 {
		return parts[0], nil
	}

	switch format {
	case "mp3", "aac", "ogg":
		return concatParts(parts), nil
	case "wav":
		return mergeWav(parts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func concatParts(parts [][]byte) []byte {
	total := 0
	for _, part := range parts {
		total += len(part)
	}

	joined := make([]byte, 0, total)
	for _, part := range parts {
		joined = append(joined, part...)
	}

	return joined
}

// wavPart is the parsed payload of one WAV file: its fmt chunk verbatim and
// its PCM data.
type wavPart struct {
	fmtChunk []byte
	data     []byte
}

// mergeWav concatenates the PCM data of every part under a single rebuilt
// RIFF header. All parts must share identical fmt chunks; mixing sample
// rates or channel counts cannot produce a playable file.
func mergeWav(parts [][]byte) ([]byte, error) {
	parsed := make([]wavPart, 0, len(parts))

	for index, part := range parts {
		wav, err := parseWav(part)
		if err != nil {
			return nil, fmt.Errorf("wav part %d: %w", index, err)
		}

		parsed = append(parsed, wav)
	}

	first := parsed[0]
	dataSize := 0

	for index, part := range parsed {
		if !bytes.Equal(part.fmtChunk, first.fmtChunk) {
			return nil, fmt.Errorf(
				"%w: %w: part %d differs from part 0",
				core.ErrAudioDecode,
				ErrFormatMismatch,
				index,
			)
		}

		dataSize += len(part.data)
	}

	return buildWav(first.fmtChunk, parsed, dataSize), nil
}

// parseWav walks the RIFF chunk list and extracts the fmt and data chunks.
func parseWav(raw []byte) (wavPart, error) {
	if len(raw) < riffHeaderSize ||
		!bytes.Equal(raw[0:4], []byte("RIFF")) ||
		!bytes.Equal(raw[8:12], []byte("WAVE")) {
		return wavPart{}, fmt.Errorf("%w: not a RIFF/WAVE file", core.ErrAudioDecode)
	}

	var part wavPart

	offset := riffHeaderSize
	for offset+chunkHeaderSize <= len(raw) {
		chunkID := raw[offset : offset+4]
		chunkSize := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		bodyStart := offset + chunkHeaderSize
		bodyEnd := bodyStart + chunkSize

		if bodyEnd > len(raw) {
			return wavPart{}, fmt.Errorf("%w: truncated chunk %q", core.ErrAudioDecode, chunkID)
		}

		switch string(chunkID) {
		case "fmt ":
			part.fmtChunk = raw[bodyStart:bodyEnd]
		case "data":
			part.data = raw[bodyStart:bodyEnd]
		}

		// Chunk bodies are word-aligned.
		offset = bodyEnd + chunkSize%2
	}

	if part.fmtChunk == nil || part.data == nil {
		return wavPart{}, fmt.Errorf("%w: %w", core.ErrAudioDecode, ErrMissingDataChunk)
	}

	return part, nil
}

func buildWav(fmtChunk []byte, parts []wavPart, dataSize int) []byte {
	fmtTotal := chunkHeaderSize + len(fmtChunk) + len(fmtChunk)%2
	riffSize := 4 + fmtTotal + chunkHeaderSize + dataSize

	out := make([]byte, 0, chunkHeaderSize+riffSize)
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(riffSize))
	out = append(out, "WAVE"...)

	out = append(out, "fmt "...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(fmtChunk)))
	out = append(out, fmtChunk...)

	if len(fmtChunk)%2 == 1 {
		out = append(out, 0)
	}

	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(dataSize))

	for _, part := range parts {
		out = append(out, part.data...)
	}

	return out
}

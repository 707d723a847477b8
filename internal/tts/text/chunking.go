package text

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/inferanki/cardspeech/internal/core"
)

// Static errors.
var (
	ErrChunkLimitInvalid = errors.New("chunk limit must be positive")
)

// segment is a maximal run of either whitespace or non-whitespace input.
type segment struct {
	text    string
	isSpace bool
}

// Split breaks preprocessed text into ordered chunks of at most maxChars
// characters, splitting only at whitespace boundaries. A single word longer
// than the limit is hard-split. Joining every chunk's Text followed by its
// Separator reproduces the input exactly.
//
// A leading whitespace run has no previous chunk to serve as separator, so
// it stays in the first chunk's Text (hard-split with the first word when
// the combination exceeds the limit). Input containing no words at all
// yields a single word-less chunk.
func Split(input string, maxChars int) ([]core.Chunk, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrChunkLimitInvalid, maxChars)
	}

	if input == "" {
		return nil, nil
	}

	chunks := packSegments(segmentize(input), maxChars)

	for index := range chunks {
		chunks[index].Index = index
		chunks[index].Total = len(chunks)
	}

	return chunks, nil
}

func segmentize(input string) []segment {
	var segments []segment

	start := 0
	currentIsSpace := isSpaceRune(firstRune(input))

	for offset, character := range input {
		runeIsSpace := unicode.IsSpace(character)
		if runeIsSpace != currentIsSpace {
			segments = append(segments, segment{
				text:    input[start:offset],
				isSpace: currentIsSpace,
			})
			start = offset
			currentIsSpace = runeIsSpace
		}
	}

	segments = append(segments, segment{
		text:    input[start:],
		isSpace: currentIsSpace,
	})

	return segments
}

// packSegments greedily fills chunks word by word. The whitespace run at a
// split point becomes the finished chunk's Separator; whitespace inside a
// chunk stays verbatim in its Text so the round-trip property holds.
func packSegments(segments []segment, maxChars int) []core.Chunk {
	var (
		chunks  []core.Chunk
		current string
		pending string
	)

	flush := func(separator string) {
		if current == "" && separator == "" {
			return
		}

		chunks = append(chunks, core.Chunk{
			Text:      current,
			Separator: separator,
			Index:     0,
			Total:     0,
		})
		current = ""
	}

	for _, seg := range segments {
		if seg.isSpace {
			pending = seg.text

			continue
		}

		word := seg.text

		// Whitespace at the very start of the input cannot become a
		// separator; it rides along with the first word.
		if len(chunks) == 0 && current == "" && pending != "" {
			word = pending + word
			pending = ""
		}

		if utf8.RuneCountInString(word) > maxChars {
			// Oversized word: flush what we have, then hard-split.
			flush(pending)
			pending = ""

			pieces := hardSplit(word, maxChars)
			for _, piece := range pieces[:len(pieces)-1] {
				current = piece
				flush("")
			}

			current = pieces[len(pieces)-1]

			continue
		}

		if current == "" {
			current = word
			pending = ""

			continue
		}

		candidate := current + pending + word
		if utf8.RuneCountInString(candidate) <= maxChars {
			current = candidate
			pending = ""

			continue
		}

		flush(pending)
		pending = ""
		current = word
	}

	flush(pending)

	return chunks
}

func hardSplit(word string, maxChars int) []string {
	var pieces []string

	runes := []rune(word)
	for len(runes) > maxChars {
		pieces = append(pieces, string(runes[:maxChars]))
		runes = runes[maxChars:]
	}

	return append(pieces, string(runes))
}

func firstRune(input string) rune {
	character, _ := utf8.DecodeRuneInString(input)

	return character
}

func isSpaceRune(character rune) bool {
	return unicode.IsSpace(character)
}

package text_test

import (
	"testing"

	"github.com/inferanki/cardspeech/internal/tts/text"
)

// preprocessorTestCase defines a standard test case for the preprocessor.
type preprocessorTestCase struct {
	name     string
	input    string
	language string
	expected string
}

func runPreprocessorTests(t *testing.T, tests []preprocessorTestCase) {
	t.Helper()

	preprocessor := text.NewPreprocessor()

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			result := preprocessor.Preprocess(testCase.input, testCase.language)
			if result != testCase.expected {
				t.Errorf("Expected %q, got %q", testCase.expected, result)
			}
		})
	}
}

func TestNewPreprocessor(t *testing.T) {
	t.Parallel()

	preprocessor := text.NewPreprocessor()
	if preprocessor == nil {
		t.Fatal("NewPreprocessor returned nil")
	}
}

func TestPreprocessor_EmptyInput(t *testing.T) {
	t.Parallel()

	preprocessor := text.NewPreprocessor()

	result := preprocessor.Preprocess("", "nb-NO")
	if result != "" {
		t.Errorf("Expected empty string for empty input, got %q", result)
	}
}

// Plain text without markup must pass through unchanged.
func TestPreprocessor_PlainTextPassthrough(t *testing.T) {
	t.Parallel()

	tests := []preprocessorTestCase{
		{
			name:     "hello world",
			input:    "Hello, world!",
			language: "en-US",
			expected: "Hello, world!",
		},
		{
			name:     "norwegian sentence",
			input:    "Jeg liker å lese bøker.",
			language: "nb-NO",
			expected: "Jeg liker å lese bøker.",
		},
	}
	runPreprocessorTests(t, tests)
}

func TestPreprocessor_MarkupRemoval(t *testing.T) {
	t.Parallel()

	tests := []preprocessorTestCase{
		{
			name:     "bold tags",
			input:    "<b>Hello</b> World",
			language: "en-US",
			expected: "Hello World",
		},
		{
			name:     "single break becomes medium pause",
			input:    "Hello<br>World",
			language: "en-US",
			expected: "Hello .. World",
		},
		{
			name:     "double break becomes long pause",
			input:    "Hello<br><br>World",
			language: "en-US",
			expected: "Hello ... World",
		},
		{
			name:     "list items separated by pauses",
			input:    "<ul><li>en</li><li>to</li></ul>",
			language: "nb-NO",
			expected: "en .. to",
		},
		{
			name:     "div boundaries",
			input:    "<div>first</div><div>second</div>",
			language: "en-US",
			expected: "first .. second",
		},
		{
			name:     "entities decoded",
			input:    "Fish &amp; chips&nbsp;here",
			language: "en-US",
			expected: "Fish & chips here",
		},
	}
	runPreprocessorTests(t, tests)
}

func TestPreprocessor_VocabularySeparators(t *testing.T) {
	t.Parallel()

	tests := []preprocessorTestCase{
		{
			name:     "pipes become commas",
			input:    "hei | verden",
			language: "nb-NO",
			expected: "hei, verden",
		},
		{
			name:     "spaced dash becomes comma",
			input:    "huset - bygningen",
			language: "nb-NO",
			expected: "huset, bygningen",
		},
		{
			name:     "hyphenated word preserved",
			input:    "PC-en er ny",
			language: "nb-NO",
			expected: "PC-en er ny",
		},
		{
			name:     "newline becomes long pause",
			input:    "hei\nverden",
			language: "nb-NO",
			expected: "hei ... verden",
		},
	}
	runPreprocessorTests(t, tests)
}

func TestPreprocessor_NorwegianSubstitutions(t *testing.T) {
	t.Parallel()

	tests := []preprocessorTestCase{
		{
			name:     "f.eks expanded",
			input:    "Ta f.eks. en pause",
			language: "nb-NO",
			expected: "Ta for eksempel en pause",
		},
		{
			name:     "dvs expanded",
			input:    "dvs. et eksempel",
			language: "nb-NO",
			expected: "det vil si et eksempel",
		},
		{
			name:     "substitutions skipped for other languages",
			input:    "Ta f.eks. en pause",
			language: "en-US",
			expected: "Ta f.eks. en pause",
		},
	}
	runPreprocessorTests(t, tests)
}

// Preprocessing must be idempotent on already-clean text: a second pass
// never changes the result of the first.
func TestPreprocessor_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Hello, world!",
		"<b>Hei</b> | verden<br><br>igjen",
		"Ta f.eks. en pause ... og fortsett",
		"en .. to .. tre",
		"huset - bygningen\nhagen",
	}

	preprocessor := text.NewPreprocessor()

	for _, input := range inputs {
		once := preprocessor.Preprocess(input, "nb-NO")

		twice := preprocessor.Preprocess(once, "nb-NO")
		if once != twice {
			t.Errorf("Preprocess not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

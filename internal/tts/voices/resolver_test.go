// Package voices_test tests voice resolution and the catalog cache.
package voices_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferanki/cardspeech/internal/core"
	"github.com/inferanki/cardspeech/internal/tts/voices"
)

var errCatalogDown = errors.New("catalog down")

func testCatalog() []core.Voice {
	return []core.Voice{
		{
			ID:     "scott",
			Gender: "male",
			Models: []core.VoiceModel{
				{Name: "simba-multilingual", Locales: []string{"en-US", "nb-NO"}},
			},
			Tags: []string{"narration", "calm"},
		},
		{
			ID:     "mari",
			Gender: "female",
			Models: []core.VoiceModel{
				{Name: "simba-multilingual", Locales: []string{"nb-NO"}},
			},
			Tags: []string{"bright"},
		},
		{
			ID:     "george",
			Gender: "male",
			Models: []core.VoiceModel{
				{Name: "simba-english", Locales: []string{"en-GB"}},
			},
			Tags: []string{"narration"},
		},
	}
}

func TestResolver_LegacyAlias(t *testing.T) {
	t.Parallel()

	resolver := voices.NewResolver("scott")

	for _, name := range []string{"Emma", "Rachel", "Adam", "Sam"} {
		resolved := resolver.Resolve(name, "nb-NO", nil, testCatalog())
		assert.Equal(t, "scott", resolved, "legacy name %s", name)
	}
}

func TestResolver_DirectCatalogID(t *testing.T) {
	t.Parallel()

	resolver := voices.NewResolver("scott")

	resolved := resolver.Resolve("mari", "", nil, testCatalog())
	assert.Equal(t, "mari", resolved)
}

func TestResolver_LocaleFilterDeterministic(t *testing.T) {
	t.Parallel()

	resolver := voices.NewResolver("scott")

	// Both scott and mari serve nb-NO; stable catalog order picks scott.
	first := resolver.Resolve("", "nb-NO", nil, testCatalog())
	second := resolver.Resolve("", "nb-NO", nil, testCatalog())
	assert.Equal(t, "scott", first)
	assert.Equal(t, first, second)
}

func TestResolver_TagFilter(t *testing.T) {
	t.Parallel()

	resolver := voices.NewResolver("scott")

	resolved := resolver.Resolve("", "nb-NO", []string{"bright"}, testCatalog())
	assert.Equal(t, "mari", resolved)
}

func TestResolver_LanguageOnlyLocale(t *testing.T) {
	t.Parallel()

	resolver := voices.NewResolver("scott")

	resolved := resolver.Resolve("", "en", nil, testCatalog())
	assert.Equal(t, "scott", resolved)
}

// The resolver never fails: any combination of unknown inputs still yields
// a non-empty voice id.
func TestResolver_NeverFails(t *testing.T) {
	t.Parallel()

	resolver := voices.NewResolver("scott")

	cases := []struct {
		requested string
		locale    string
		tags      []string
		catalog   []core.Voice
	}{
		{requested: "", locale: "", tags: nil, catalog: nil},
		{requested: "nobody", locale: "zz-ZZ", tags: []string{"unknown"}, catalog: testCatalog()},
		{requested: "", locale: "zz-ZZ", tags: nil, catalog: testCatalog()},
		{requested: "custom-voice", locale: "", tags: nil, catalog: nil},
	}

	for _, testCase := range cases {
		resolved := resolver.Resolve(
			testCase.requested,
			testCase.locale,
			testCase.tags,
			testCase.catalog,
		)
		assert.NotEmpty(t, resolved)
	}
}

func TestResolver_TrustsRequestedWithoutCatalog(t *testing.T) {
	t.Parallel()

	resolver := voices.NewResolver("scott")

	resolved := resolver.Resolve("custom-voice", "nb-NO", nil, nil)
	assert.Equal(t, "custom-voice", resolved)
}

func TestCache_FetchOnceAndReuse(t *testing.T) {
	t.Parallel()

	cache := voices.NewCache()
	fetchCount := 0
	fetch := func(_ context.Context) ([]core.Voice, error) {
		fetchCount++

		return testCatalog(), nil
	}

	first, err := cache.Voices(context.Background(), "key-a", fetch)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := cache.Voices(context.Background(), "key-a", fetch)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetchCount, "second call must hit the snapshot")
}

// Changing the API key invalidates the snapshot.
func TestCache_KeyChangeRefetches(t *testing.T) {
	t.Parallel()

	cache := voices.NewCache()
	fetchCount := 0
	fetch := func(_ context.Context) ([]core.Voice, error) {
		fetchCount++

		return testCatalog(), nil
	}

	_, err := cache.Voices(context.Background(), "key-a", fetch)
	require.NoError(t, err)

	_, err = cache.Voices(context.Background(), "key-b", fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, fetchCount)
}

func TestCache_FetchError(t *testing.T) {
	t.Parallel()

	cache := voices.NewCache()
	fetch := func(_ context.Context) ([]core.Voice, error) {
		return nil, errCatalogDown
	}

	_, err := cache.Voices(context.Background(), "key-a", fetch)
	require.Error(t, err)
	assert.ErrorIs(t, err, errCatalogDown)
}

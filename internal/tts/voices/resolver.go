// Package voices resolves a requested voice name, locale and tag set to a
// concrete provider voice id, and caches the provider's voice catalog as an
// immutable snapshot.
package voices

import (
	"strings"

	"github.com/inferanki/cardspeech/internal/core"
)

// legacyAliases maps friendly voice names from the earlier ElevenLabs
// integration to their designated replacement id in the current catalog.
var legacyAliases = map[string]string{
	"Emma":   "scott",
	"Rachel": "scott",
	"Domi":   "scott",
	"Bella":  "scott",
	"Antoni": "scott",
	"Josh":   "scott",
	"Arnold": "scott",
	"Adam":   "scott",
	"Sam":    "scott",
}

// Resolver picks a concrete voice id for a synthesis call. It never fails:
// a missing or unknown voice falls back to the default id, because missing
// audio is worse than a slightly wrong voice.
type Resolver struct {
	defaultVoiceID string
}

// NewResolver creates a resolver with the given fallback voice id.
func NewResolver(defaultVoiceID string) *Resolver {
	return &Resolver{defaultVoiceID: defaultVoiceID}
}

// Resolve maps the requested name to a voice id. Resolution order: legacy
// alias, exact catalog id, locale+tag filter over the catalog (stable
// catalog order, first match), then the configured default.
func (r *Resolver) Resolve(requested, locale string, tags []string, catalog []core.Voice) string {
	if replacement, ok := legacyAliases[requested]; ok {
		return replacement
	}

	if requested != "" && catalogContains(catalog, requested) {
		return requested
	}

	for _, voice := range catalog {
		if !matchesLocale(voice, locale) {
			continue
		}

		if !matchesTags(voice, tags) {
			continue
		}

		return voice.ID
	}

	if requested != "" && len(catalog) == 0 {
		// Without a catalog we cannot disprove the requested id; trust it
		// rather than silently switching voices.
		return requested
	}

	return r.defaultVoiceID
}

func catalogContains(catalog []core.Voice, id string) bool {
	for _, voice := range catalog {
		if voice.ID == id {
			return true
		}
	}

	return false
}

// matchesLocale accepts an exact locale match or a bare-language match
// ("nb" matches "nb-NO"). An empty requested locale matches everything.
func matchesLocale(voice core.Voice, locale string) bool {
	if locale == "" {
		return true
	}

	requested := strings.ToLower(locale)
	requestedLanguage, _, _ := strings.Cut(requested, "-")

	for _, model := range voice.Models {
		for _, candidate := range model.Locales {
			available := strings.ToLower(candidate)
			if available == requested {
				return true
			}

			availableLanguage, _, _ := strings.Cut(available, "-")
			if availableLanguage == requestedLanguage {
				return true
			}
		}
	}

	return false
}

// matchesTags requires every requested tag to be present on the voice.
func matchesTags(voice core.Voice, tags []string) bool {
	for _, wanted := range tags {
		found := false

		for _, tag := range voice.Tags {
			if strings.EqualFold(tag, wanted) {
				found = true

				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

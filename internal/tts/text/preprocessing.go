// Package text provides text preprocessing and chunking for the synthesis
// pipeline: flashcard fields arrive as HTML fragments and must be reduced to
// plain, provider-ready text before being split against the provider's
// character limit.
package text

import (
	"regexp"
	"strings"
)

// Pause markers injected for structural breaks. The provider reads a dot
// run as a pause of matching length.
const (
	longPause   = " ... "
	mediumPause = " .. "
)

// Placeholders keep already-converted pauses out of the dot-run collapse.
const (
	longPausePlaceholder   = "\x00LONG\x00"
	mediumPausePlaceholder = "\x00MED\x00"
)

// Regex patterns for field markup handling.
const (
	bulletBlockPattern    = `(?is)(?:<[^>]*>)?🔸.*?<br\s*/?>\s*<br\s*/?>`
	bulletTrailingPattern = `(?is)(?:<[^>]*>)?🔸.*$`
	doubleBreakPattern    = `(?i)<br\s*/?>\s*<br\s*/?>`
	singleBreakPattern    = `(?i)<br\s*/?>`
	listItemBoundary      = `(?i)</li>\s*<li[^>]*>`
	listTagPattern        = `(?i)</?(?:li|ul|ol)[^>]*>`
	divBoundaryPattern    = `(?i)</div>\s*<div[^>]*>`
	divTagPattern         = `(?i)</?div[^>]*>`
	anyTagPattern         = `<[^>]+>`
	pipePattern           = `\s*\|\s*`
	spacedDashPattern     = `\s+-\s+`
	angleBracketPattern   = `\s*[<>]\s*`
	lineBreakPattern      = `\r?\n+`
	longDotRunPattern     = `\.{3,}`
	mediumDotRunPattern   = `\.{2}`
	whitespacePattern     = `\s+`
)

// Preprocessor reduces raw flashcard markup to plain synthesis input.
// All patterns are compiled once; the processor is safe for concurrent use.
type Preprocessor struct {
	bulletBlock    *regexp.Regexp
	bulletTrailing *regexp.Regexp
	doubleBreak    *regexp.Regexp
	singleBreak    *regexp.Regexp
	listBoundary   *regexp.Regexp
	listTag        *regexp.Regexp
	divBoundary    *regexp.Regexp
	divTag         *regexp.Regexp
	anyTag         *regexp.Regexp
	pipe           *regexp.Regexp
	spacedDash     *regexp.Regexp
	angleBracket   *regexp.Regexp
	lineBreak      *regexp.Regexp
	longDotRun     *regexp.Regexp
	mediumDotRun   *regexp.Regexp
	whitespace     *regexp.Regexp

	entityReplacer *strings.Replacer

	// Language-specific pronunciation substitutions, keyed by locale.
	substitutions map[string]*strings.Replacer
}

// NewPreprocessor creates a preprocessor with compiled patterns and the
// fixed language substitution tables.
func NewPreprocessor() *Preprocessor {
	entities := []string{
		"&nbsp;", " ",
		"&amp;", "&",
		"&quot;", `"`,
		"&apos;", "'",
		"&#39;", "'",
		"&mdash;", "—",
		"&ndash;", "–",
		"&hellip;", "...",
		"&rsquo;", "'",
		"&lsquo;", "'",
		"&rdquo;", `"`,
		"&ldquo;", `"`,
	}

	// Norwegian Bokmål abbreviations read badly when spelled out letter by
	// letter; expand them before synthesis.
	norwegian := []string{
		"f.eks.", "for eksempel",
		"bl.a.", "blant annet",
		"dvs.", "det vil si",
		"osv.", "og så videre",
		"mht.", "med hensyn til",
		"ifm.", "i forbindelse med",
		"ca.", "cirka",
	}

	return &Preprocessor{
		bulletBlock:    regexp.MustCompile(bulletBlockPattern),
		bulletTrailing: regexp.MustCompile(bulletTrailingPattern),
		doubleBreak:    regexp.MustCompile(doubleBreakPattern),
		singleBreak:    regexp.MustCompile(singleBreakPattern),
		listBoundary:   regexp.MustCompile(listItemBoundary),
		listTag:        regexp.MustCompile(listTagPattern),
		divBoundary:    regexp.MustCompile(divBoundaryPattern),
		divTag:         regexp.MustCompile(divTagPattern),
		anyTag:         regexp.MustCompile(anyTagPattern),
		pipe:           regexp.MustCompile(pipePattern),
		spacedDash:     regexp.MustCompile(spacedDashPattern),
		angleBracket:   regexp.MustCompile(angleBracketPattern),
		lineBreak:      regexp.MustCompile(lineBreakPattern),
		longDotRun:     regexp.MustCompile(longDotRunPattern),
		mediumDotRun:   regexp.MustCompile(mediumDotRunPattern),
		whitespace:     regexp.MustCompile(whitespacePattern),
		entityReplacer: strings.NewReplacer(entities...),
		substitutions: map[string]*strings.Replacer{
			"nb-NO": strings.NewReplacer(norwegian...),
		},
	}
}

// Preprocess converts one raw field into plain text for synthesis. It is
// pure and deterministic: the same input and language code always produce
// the same output, and output that is already clean passes through
// unchanged.
func (p *Preprocessor) Preprocess(raw, languageCode string) string {
	if raw == "" {
		return ""
	}

	cleaned := strings.TrimSpace(raw)

	// Bullet annotations are editor-only content, never spoken.
	cleaned = p.bulletBlock.ReplaceAllString(cleaned, "")
	cleaned = p.bulletTrailing.ReplaceAllString(cleaned, "")

	// Entities first: tag stripping must not eat the text they encode.
	cleaned = p.entityReplacer.Replace(cleaned)

	// Structural markup becomes pauses, then all remaining tags go.
	cleaned = p.doubleBreak.ReplaceAllString(cleaned, longPause)
	cleaned = p.singleBreak.ReplaceAllString(cleaned, mediumPause)
	cleaned = p.listBoundary.ReplaceAllString(cleaned, mediumPause)
	cleaned = p.listTag.ReplaceAllString(cleaned, " ")
	cleaned = p.divBoundary.ReplaceAllString(cleaned, mediumPause)
	cleaned = p.divTag.ReplaceAllString(cleaned, " ")
	cleaned = p.anyTag.ReplaceAllString(cleaned, "")

	// &lt;/&gt; decode last so encoded brackets never look like tags.
	cleaned = strings.ReplaceAll(cleaned, "&lt;", "<")
	cleaned = strings.ReplaceAll(cleaned, "&gt;", ">")

	// Vocabulary separators common in language-learning cards read as
	// enumeration commas.
	cleaned = p.pipe.ReplaceAllString(cleaned, ", ")
	cleaned = p.spacedDash.ReplaceAllString(cleaned, ", ")
	cleaned = p.angleBracket.ReplaceAllString(cleaned, ", ")

	cleaned = p.lineBreak.ReplaceAllString(cleaned, longPause)

	cleaned = p.normalizePauses(cleaned)
	cleaned = p.whitespace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if replacer, ok := p.substitutions[languageCode]; ok {
		cleaned = replacer.Replace(cleaned)
	}

	return cleaned
}

// normalizePauses collapses dot runs into the two pause forms via
// placeholders, so a freshly inserted pause is not re-expanded.
func (p *Preprocessor) normalizePauses(text string) string {
	text = p.longDotRun.ReplaceAllString(text, longPausePlaceholder)
	text = p.mediumDotRun.ReplaceAllString(text, mediumPausePlaceholder)

	text = strings.ReplaceAll(text, longPausePlaceholder, longPause)
	text = strings.ReplaceAll(text, mediumPausePlaceholder, mediumPause)

	return text
}

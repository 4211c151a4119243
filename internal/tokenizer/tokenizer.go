// Package tokenizer splits text into normalized, language-aware tokens.
package tokenizer

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/ftsearch/internal/domain"
)

// DefaultLanguage is used when neither the caller nor the engine names one.
const DefaultLanguage = "english"

var languages = map[string]language.Tag{
	"arabic":     language.Arabic,
	"armenian":   language.Armenian,
	"bulgarian":  language.Bulgarian,
	"danish":     language.Danish,
	"dutch":      language.Dutch,
	"english":    language.English,
	"finnish":    language.Finnish,
	"french":     language.French,
	"german":     language.German,
	"greek":      language.Greek,
	"hungarian":  language.Hungarian,
	"indian":     language.Hindi,
	"indonesian": language.Indonesian,
	"irish":      language.Make("ga"),
	"italian":    language.Italian,
	"lithuanian": language.Lithuanian,
	"nepali":     language.Nepali,
	"norwegian":  language.Norwegian,
	"portuguese": language.Portuguese,
	"romanian":   language.Romanian,
	"russian":    language.Russian,
	"sanskrit":   language.Make("sa"),
	"serbian":    language.Serbian,
	"slovenian":  language.Slovenian,
	"spanish":    language.Spanish,
	"swedish":    language.Swedish,
	"tamil":      language.Tamil,
	"turkish":    language.Turkish,
	"ukrainian":  language.Ukrainian,
}

// SupportedLanguages returns the accepted language names in lexical order.
func SupportedLanguages() []string {
	out := make([]string, 0, len(languages))
	for name := range languages {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Tag returns the language tag of a supported language name, language.Und otherwise.
func Tag(name string) language.Tag {
	if tag, ok := languages[strings.ToLower(name)]; ok {
		return tag
	}
	return language.Und
}

// Tokenizer lower-cases, strips diacritics and splits on every rune that
// is neither a letter nor a digit. It is safe for concurrent use.
type Tokenizer struct {
	language string
}

// New creates a Tokenizer with the given default language (empty for english).
func New(defaultLanguage string) (*Tokenizer, error) {
	if defaultLanguage == "" {
		defaultLanguage = DefaultLanguage
	}
	if _, ok := languages[defaultLanguage]; !ok {
		return nil, fmt.Errorf("tokenizer: %w: %q", domain.ErrLanguageNotSupported, defaultLanguage)
	}
	return &Tokenizer{language: defaultLanguage}, nil
}

// Language returns the default language.
func (t *Tokenizer) Language() string { return t.language }

// Resolve maps a language hint to a supported language, empty meaning the default.
func (t *Tokenizer) Resolve(hint string) (string, error) {
	if hint == "" {
		return t.language, nil
	}
	name := strings.ToLower(hint)
	if _, ok := languages[name]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrLanguageNotSupported, hint)
	}
	return name, nil
}

// Tokenize splits text into normalized tokens. With dedupe set, repeated
// tokens are dropped keeping first-appearance order.
func (t *Tokenizer) Tokenize(text, lang string, dedupe bool) ([]string, error) {
	name, err := t.Resolve(lang)
	if err != nil {
		return nil, err
	}
	normalized := t.normalize(text, languages[name])
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if !dedupe {
		return fields, nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

// normalize builds a fresh transformer per call; transform chains are stateful.
func (t *Tokenizer) normalize(text string, tag language.Tag) string {
	lower := cases.Lower(tag).String(text)
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(chain, lower)
	if err != nil {
		return lower
	}
	return out
}

package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/ftsearch/internal/domain"
)

func TestTokenize_Basic(t *testing.T) {
	tok, err := New("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLanguage, tok.Language())

	got, err := tok.Tokenize("The Quick, brown-fox! 42", "", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "quick", "brown", "fox", "42"}, got)
}

func TestTokenize_StripsDiacritics(t *testing.T) {
	tok, err := New("italian")
	require.NoError(t, err)

	got, err := tok.Tokenize("Perché così città", "", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"perche", "cosi", "citta"}, got)
}

func TestTokenize_Dedupe(t *testing.T) {
	tok, _ := New("english")
	got, err := tok.Tokenize("cat dog cat bird dog", "", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog", "bird"}, got)
}

func TestTokenize_Empty(t *testing.T) {
	tok, _ := New("english")
	got, err := tok.Tokenize("  ,. ", "", false)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolve(t *testing.T) {
	tok, _ := New("english")

	lang, err := tok.Resolve("French")
	require.NoError(t, err)
	assert.Equal(t, "french", lang)

	_, err = tok.Resolve("klingon")
	assert.ErrorIs(t, err, domain.ErrLanguageNotSupported)

	_, err = tok.Tokenize("x", "klingon", false)
	assert.ErrorIs(t, err, domain.ErrLanguageNotSupported)
}

func TestNew_UnknownDefault(t *testing.T) {
	_, err := New("klingon")
	assert.ErrorIs(t, err, domain.ErrLanguageNotSupported)
}

func TestSupportedLanguages_Sorted(t *testing.T) {
	langs := SupportedLanguages()
	assert.IsIncreasing(t, langs)
	assert.Contains(t, langs, "english")
}

func TestTag(t *testing.T) {
	assert.Equal(t, "it", Tag("Italian").String())
	assert.Equal(t, "und", Tag("klingon").String())
}

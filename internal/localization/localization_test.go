package localization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_GetString(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)

	tests := []struct {
		name         string
		key          string
		language     string
		placeholders map[string]any
		want         string
	}{
		{name: "english key", key: "noOptionSelected", language: "en", want: "No option was selected."},
		{name: "french key", key: "true", language: "fr", want: "Vrai"},
		{name: "region tag falls back to base language", key: "false", language: "pt-BR", want: "Falso"},
		{name: "unknown language falls back to english", key: "true", language: "xx", want: "True"},
		{name: "unknown key returns key", key: "doesNotExist", language: "fr", want: "doesNotExist"},
		{name: "placeholders substituted", key: "partialScore", language: "en", placeholders: map[string]any{"earned": 2, "total": 5}, want: "You earned 2 out of 5 points."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, catalog.GetString(tc.key, tc.language, tc.placeholders))
		})
	}
}

func TestCatalog_MissingKeyInLanguageUsesEnglish(t *testing.T) {
	catalog := NewCatalog(map[string]map[string]string{
		"en": {"greeting": "Hello"},
		"de": {},
	})
	assert.Equal(t, "Hello", catalog.GetString("greeting", "de", nil))
}

func TestBooleanTokens_Parse(t *testing.T) {
	tokens := NewBooleanTokens()

	tests := []struct {
		token    string
		language string
		want     bool
		ok       bool
	}{
		{token: "true", language: "en", want: true, ok: true},
		{token: "No", language: "en", want: false, ok: true},
		{token: "はい", language: "ja", want: true, ok: true},
		{token: "いいえ", language: "ja", want: false, ok: true},
		{token: "ja", language: "ja", want: true, ok: true},
		{token: "oui", language: "fr", want: true, ok: true},
		{token: "Nein", language: "de", want: false, ok: true},
		{token: "yes", language: "ja", want: true, ok: true},
		{token: "maybe", language: "en", ok: false},
		{token: "", language: "en", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.language+"/"+tc.token, func(t *testing.T) {
			got, ok := tokens.Parse(tc.token, tc.language)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestBooleanTokens_DigitsInEveryLanguage(t *testing.T) {
	tokens := NewBooleanTokens()
	require.GreaterOrEqual(t, len(tokens.Languages()), 20)

	for _, lang := range tokens.Languages() {
		one, ok := tokens.Parse("1", lang)
		require.True(t, ok, lang)
		assert.True(t, one, lang)

		zero, ok := tokens.Parse("0", lang)
		require.True(t, ok, lang)
		assert.False(t, zero, lang)
	}
}

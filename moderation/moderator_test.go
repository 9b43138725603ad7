package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions
// (e.g., "he" inside "The").
func TestModerator_Review(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		censored bool
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
			censored: true,
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
			censored: true,
		},
		{
			name:     "Leet speak substitutions",
			input:    "watch out for the b4dg3r",
			expected: "watch out for the ******",
			censored: true,
		},
		{
			name:     "Uppercase and separator noise",
			input:    "S-N-A-K-E is a B.A.D.G.E.R",
			expected: "********* is a ***********",
			censored: true,
		},
		{
			name:     "Accents and special characters (UTF-8)",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
			censored: true,
		},
		{
			name:     "Nothing to censor",
			input:    "the relay is quiet today",
			expected: "the relay is quiet today",
			censored: false,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
			censored: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mod.Review(tt.input)
			req.Equal(tt.expected, result.Text, "test=%s", tt.name)
			req.Equal(tt.censored, result.Censored, "test=%s", tt.name)
		})
	}
}

func TestModerator_EmptyDictionaryPassesThrough(t *testing.T) {
	req := require.New(t)

	mod, err := NewModerator(nil, replacementChar)
	req.NoError(err)

	result := mod.Review("badger snake mushroom")
	req.Equal("badger snake mushroom", result.Text)
	req.False(result.Censored)
}

func TestModerator_NoiseOnlyWordsAreIgnored(t *testing.T) {
	req := require.New(t)

	// Given pure noise entries alongside a real word
	dictionary := []string{"...", "---", "", "badger"}
	mod, err := NewModerator(dictionary, replacementChar)
	req.NoError(err)

	result := mod.Review("The badger is safe")
	req.Equal("The ****** is safe", result.Text)
	req.True(result.Censored)

	// Real punctuation in the text stays uncensored
	result = mod.Review("Hello ...")
	req.Equal("Hello ...", result.Text)
	req.False(result.Censored)
}

func TestModerator_DetectsLanguage(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"badger"}, replacementChar)
	req.NoError(err)

	result := mod.Review("This is a perfectly ordinary English sentence about nothing in particular")
	req.Equal("en", result.Lang)
}

// Package moderation censors forbidden words in message text before it
// reaches the store or any live connection, so every delivery path sees
// the same sanitized content.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/abadojack/whatlanggo"
)

// Moderator wraps an Aho-Corasick automaton built over a normalized
// word list. Matching runs on a lowercased, de-leeted projection of the
// input while replacement is applied to the original runes, preserving
// spacing and casing of the untouched parts.
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// Result of one moderation pass.
type Result struct {
	Text     string
	Censored bool
	// Lang is the ISO 639-1 code whatlanggo detected, "" when the text
	// is too short to classify. Informational only.
	Lang string
}

// NewModerator builds the automaton from the forbidden word list.
// An empty list yields a moderator that passes everything through.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		// Words made entirely of noise normalize to nothing
		if p := normalize([]rune(word)); len(p) > 0 {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return &Moderator{replacement: replacement}, nil
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: machine, replacement: replacement}, nil
}

// Review censors forbidden patterns in text and tags the detected
// language.
func (m *Moderator) Review(text string) Result {
	result := Result{Text: text}
	if text == "" {
		return result
	}
	info := whatlanggo.Detect(text)
	result.Lang = info.Lang.Iso6391()

	if m.matcher == nil {
		return result
	}

	original := []rune(text)
	projected := make([]rune, 0, len(original))
	origIdx := make([]int, 0, len(original))
	for i, r := range original {
		clean := deleet(r)
		if isNoise(clean) {
			continue
		}
		projected = append(projected, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}

	spans := m.matcher.MultiPatternSearch(projected, false)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			original[i] = m.replacement
		}
		result.Censored = true
	}
	if result.Censored {
		result.Text = string(original)
	}
	return result
}

func normalize(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := deleet(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// deleet maps common leet-speak substitutions back to letters so
// "b4dw0rd" matches "badword".
func deleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	case '7':
		return 't'
	default:
		return r
	}
}

// isNoise drops separators so split-up words ("b a d w o r d") still
// match.
func isNoise(r rune) bool {
	return unicode.IsSpace(r) || r == '.' || r == '-' || r == '_' || r == '*'
}

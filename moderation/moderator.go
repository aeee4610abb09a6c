// Package moderation censors forbidden words in message bodies before
// they are classified, persisted, or delivered.
package moderation

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

//go:embed words.txt
var wordsFS embed.FS

// Moderator masks forbidden patterns with the replacement character.
// Matching is case-insensitive and folds common leet-speak substitutions,
// so "d4mn" is caught by the pattern "damn".
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = normalize(word)
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement}, nil
}

// NewEmbeddedModerator builds a moderator from the word list shipped
// with the binary.
func NewEmbeddedModerator(replacement rune) (*Moderator, error) {
	file, err := wordsFS.Open("words.txt")
	if err != nil {
		return nil, fmt.Errorf("opening word list: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading word list: %w", err)
	}
	return NewModerator(words, replacement)
}

// Censor replaces every matched span of the original text with the
// replacement character. Normalization keeps a 1:1 rune mapping with the
// original, so match positions apply directly.
func (m *Moderator) Censor(original string) string {
	runes := []rune(original)
	if len(runes) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(normalize(original), false)
	if len(spans) == 0 {
		return original
	}

	for _, span := range spans {
		for i := span.Pos; i < span.Pos+len(span.Word) && i < len(runes); i++ {
			runes[i] = m.replacement
		}
	}
	return string(runes)
}

func normalize(input string) []rune {
	runes := []rune(input)
	out := make([]rune, len(runes))
	for i, r := range runes {
		out[i] = unicode.ToLower(simplifyRune(r))
	}
	return out
}

// simplifyRune maps common leet-speak characters back to their standard
// alphabet counterparts.
func simplifyRune(r rune) rune {
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
	default:
		return r
	}
}

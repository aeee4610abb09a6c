// Package classifier scores message text for sentiment. The default
// implementation sums per-word valence weights from an embedded AFINN
// style lexicon. The lexicon is English; text detected as non-Latin
// script scores zero and therefore reads as neutral.
package classifier

import (
	"bufio"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

//go:embed lexicon.txt
var lexiconFS embed.FS

type Lexicon struct {
	weights map[string]float64
}

// NewLexicon parses the embedded word list (word<TAB>weight per line,
// '#' comments allowed).
func NewLexicon() (*Lexicon, error) {
	file, err := lexiconFS.Open("lexicon.txt")
	if err != nil {
		return nil, fmt.Errorf("opening lexicon: %w", err)
	}
	defer file.Close()

	weights := make(map[string]float64)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, raw, found := strings.Cut(line, "\t")
		if !found {
			return nil, fmt.Errorf("lexicon line %q: missing weight", line)
		}
		weight, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("lexicon word %q: %w", word, err)
		}
		weights[strings.ToLower(word)] = weight
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading lexicon: %w", err)
	}
	return &Lexicon{weights: weights}, nil
}

// Score sums the valence of every known word in the text.
func (l *Lexicon) Score(text string) float64 {
	info := whatlanggo.Detect(text)
	if info.Script != nil && info.Script != unicode.Latin {
		return 0
	}

	var score float64
	for _, token := range tokenize(text) {
		score += l.weights[token]
	}
	return score
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

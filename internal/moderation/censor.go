package moderation

import (
	"fmt"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Censor masks forbidden words in chat text. Matching ignores case, spacing,
// punctuation and common leet substitutions. A Censor is safe for concurrent use.
type Censor struct {
	matcher *goahocorasick.Machine
	mask    rune
}

type textMapping struct {
	normalized []rune
	origIdx    []int
}

// New builds the automaton for words. An empty list yields a Censor that
// returns text unchanged.
func New(words []string, mask rune) (*Censor, error) {
	patterns := lo.FilterMap(words, func(word string, _ int) ([]rune, bool) {
		p := normalizeRunes([]rune(word))
		return p, len(p) > 0
	})
	patterns = lo.UniqBy(patterns, func(p []rune) string { return string(p) })

	c := &Censor{mask: mask}
	if len(patterns) == 0 {
		return c, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build censor automaton: %w", err)
	}
	c.matcher = m
	return c, nil
}

// Censor replaces every character of a matched word with the mask, keeping
// the noise characters inside the match masked as well.
func (c *Censor) Censor(original string) string {
	if c.matcher == nil {
		return original
	}

	mapping := normalize(original)
	if len(mapping.normalized) == 0 {
		return original
	}

	terms := c.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(terms) == 0 {
		return original
	}

	origRunes := []rune(original)
	for _, term := range terms {
		start := term.Pos
		end := start + len(term.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}
		for i := mapping.origIdx[start]; i <= mapping.origIdx[end-1]; i++ {
			origRunes[i] = c.mask
		}
	}
	return string(origRunes)
}

func normalize(input string) textMapping {
	origRunes := []rune(input)
	out := textMapping{
		normalized: make([]rune, 0, len(origRunes)),
		origIdx:    make([]int, 0, len(origRunes)),
	}
	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out.normalized = append(out.normalized, unicode.ToLower(clean))
		out.origIdx = append(out.origIdx, i)
	}
	return out
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps leet characters back to letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}

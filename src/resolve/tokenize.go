package resolve

import (
	"regexp"
	"strings"
)

// DefaultStopwords are label words that carry no identity in schedule data.
var DefaultStopwords = []string{
	"university", "college", "the", "of", "and", "at", "mbb", "mens", "men", "basketball",
}

// Domain rewrites applied to the normalized label before splitting. Order
// matters: abbreviation and possessive collapsing must happen while word
// boundaries still exist.
var (
	saintPattern      = regexp.MustCompile(`\bsaint\b`)
	stDotPattern      = regexp.MustCompile(`\bst\.`)
	possessivePattern = regexp.MustCompile(`\bjohn['\x{2019}]s\b`)
	aAndMPattern      = regexp.MustCompile(`\ba\s*(?:&|and)\s*m\b`)
	nonAlnumPattern   = regexp.MustCompile(`[^a-z0-9]+`)
)

// Tokenizer splits display labels into canonical ordered word tokens.
// The stopword set is fixed at construction; Tokenizer is safe for
// concurrent use.
type Tokenizer struct {
	stopwords map[string]bool
}

// NewTokenizer creates a tokenizer with the given stopword set. A nil or
// empty set falls back to DefaultStopwords.
func NewTokenizer(stopwords []string) *Tokenizer {
	if len(stopwords) == 0 {
		stopwords = DefaultStopwords
	}
	set := make(map[string]bool, len(stopwords))
	for _, w := range stopwords {
		set[Normalize(w)] = true
	}
	return &Tokenizer{stopwords: set}
}

// Tokenize converts a display label into its canonical token sequence.
// Ordering follows the label; duplicate tokens are kept so repeated words
// count toward membership and length tie-breaks. Tokenize is deterministic
// and idempotent: tokenizing the joined output yields the same tokens.
func (t *Tokenizer) Tokenize(label string) []string {
	s := Normalize(label)
	if s == "" {
		return nil
	}

	s = stDotPattern.ReplaceAllString(s, "st ")
	s = saintPattern.ReplaceAllString(s, "st")
	s = possessivePattern.ReplaceAllString(s, "johns")
	s = aAndMPattern.ReplaceAllString(s, "am")
	s = nonAlnumPattern.ReplaceAllString(s, " ")

	fields := strings.Fields(s)
	tokens := make([]string, 0, len(fields))
	for _, w := range fields {
		if t.stopwords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// Package names turns free-text account and party names into match keys.
package names

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"ndreport/internal/table"
)

const DefaultThresholdPercent = 10.0

// Unicode separators count as whitespace; a non-breaking space splits tokens.
var reNonLetters = regexp.MustCompile(`[^A-Z\p{Z}\s]+`)

type Normalizer struct {
	stopWords *StopWords
	threshold float64
}

// NewNormalizer builds a Normalizer. A name whose cleaned length falls below
// thresholdPercent of its raw length is rejected.
func NewNormalizer(stopWords *StopWords, thresholdPercent float64) *Normalizer {
	return &Normalizer{stopWords: stopWords, threshold: thresholdPercent}
}

func (n *Normalizer) Threshold() float64 {
	return n.threshold
}

// Normalize applies NormalizeString to a text cell. Absent and non-text
// cells come back absent.
func (n *Normalizer) Normalize(v table.Value) table.Value {
	if v.Kind != table.Text {
		return table.Value{}
	}
	out, ok := n.NormalizeString(v.Text)
	if !ok {
		return table.Value{}
	}
	return table.TextValue(out)
}

// NormalizeString strips stop words, then everything that is not an
// upper-case letter or whitespace, and collapses spaces. ok is false when
// too little of the input survived to be a safe match key.
func (n *Normalizer) NormalizeString(name string) (string, bool) {
	in := utf8.RuneCountInString(name)
	if in == 0 {
		return "", false
	}

	s := strings.ToUpper(name)
	s = n.stopWords.Strip(s)
	s = reNonLetters.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")

	if float64(utf8.RuneCountInString(s))*100 < n.threshold*float64(in) {
		return "", false
	}
	return s, true
}

package names

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
)

// StopWords is an immutable set of upper-cased tokens together with the
// compiled pattern that removes them from a name. Safe for concurrent use.
type StopWords struct {
	words   []string
	pattern *regexp.Regexp
}

func LoadStopWords(path string) (*StopWords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stop words %s: %w", path, err)
	}
	defer f.Close()
	return ParseStopWords(f)
}

// ParseStopWords reads one token per line. Blank lines and lines starting
// with '#' are skipped.
func ParseStopWords(r io.Reader) (*StopWords, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stop words: %w", err)
	}
	return NewStopWords(words)
}

func NewStopWords(words []string) (*StopWords, error) {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToUpper(strings.Join(strings.Fields(w), " "))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}

	// Longest first so that "AND CO" wins over "AND" at the same position.
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})

	sw := &StopWords{words: out}
	if len(out) == 0 {
		return sw, nil
	}

	alts := make([]string, 0, len(out))
	for _, w := range out {
		alts = append(alts, boundary(w[0])+regexp.QuoteMeta(w)+boundary(w[len(w)-1]))
	}
	pattern, err := regexp.Compile(`(?:` + strings.Join(alts, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile stop words: %w", err)
	}
	sw.pattern = pattern
	return sw, nil
}

// boundary anchors a stop word on a token edge. Punctuation edges need \B so
// that "INC." still matches at the end of a name.
func boundary(edge byte) string {
	if isWordByte(edge) {
		return `\b`
	}
	return `\B`
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func (s *StopWords) Len() int {
	return len(s.words)
}

func (s *StopWords) Words() []string {
	out := make([]string, len(s.words))
	copy(out, s.words)
	return out
}

// Contains reports whether name holds at least one whole-word stop word.
func (s *StopWords) Contains(name string) bool {
	if s == nil || s.pattern == nil {
		return false
	}
	return s.pattern.MatchString(name)
}

// Strip removes every whole-word occurrence of every stop word.
func (s *StopWords) Strip(name string) string {
	if !s.Contains(name) {
		return name
	}
	return s.pattern.ReplaceAllString(name, "")
}

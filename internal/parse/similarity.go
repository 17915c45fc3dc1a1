package parse

import (
	"regexp"
	"strings"
)

// stopWords are removed whole-word before token comparison.
var stopWords = []string{"what", "how", "why", "when", "where", "is", "are", "the", "a", "an"}

var stopWordRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(stopWords))
	for i, w := range stopWords {
		res[i] = regexp.MustCompile(`\b` + w + `\b`)
	}
	return res
}()

// Similarity scores how alike two question texts are, in [0,1]: the number
// of tokens of a found in b over the larger token count, after lower-casing
// and stop-word removal. Advisory only — near-duplicates are flagged for
// review, never rejected. Both inputs reducing to no tokens scores 0.
func Similarity(a, b string) float64 {
	a = stripStopWords(strings.ToLower(strings.TrimSpace(a)))
	b = stripStopWords(strings.ToLower(strings.TrimSpace(b)))

	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)

	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 0
	}

	inB := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		inB[t] = true
	}

	matches := 0
	for _, t := range tokensA {
		if inB[t] {
			matches++
		}
	}

	max := len(tokensA)
	if len(tokensB) > max {
		max = len(tokensB)
	}
	return float64(matches) / float64(max)
}

func stripStopWords(s string) string {
	for _, re := range stopWordRes {
		s = re.ReplaceAllString(s, "")
	}
	return s
}

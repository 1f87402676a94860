package ingest

import (
	"regexp"
	"strings"
)

const maxKeywords = 10

var wordPattern = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)

// stopWords are common words excluded from keyword extraction.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "is": {},
	"was": {}, "are": {}, "were": {}, "been": {}, "be": {}, "have": {},
	"has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
	"would": {}, "should": {}, "could": {}, "may": {}, "might": {},
	"must": {}, "can": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"what": {}, "which": {}, "who": {}, "when": {}, "where": {}, "why": {},
	"how": {}, "as": {}, "by": {}, "from": {},
}

// ExtractKeywords returns up to maxKeywords unique lowercase words from the
// text, in order of first appearance, with stop words removed.
func ExtractKeywords(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	keywords := make([]string, 0, maxKeywords)
	seen := make(map[string]struct{}, maxKeywords)
	for _, word := range words {
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		keywords = append(keywords, word)
		seen[word] = struct{}{}
		if len(keywords) >= maxKeywords {
			break
		}
	}

	return keywords
}

// keywordJaccard computes |intersection| / |union| over two keyword lists.
func keywordJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, kw := range a {
		setA[kw] = struct{}{}
	}

	union := make(map[string]struct{}, len(a)+len(b))
	for kw := range setA {
		union[kw] = struct{}{}
	}

	common := 0
	for _, kw := range b {
		if _, dup := union[kw]; !dup {
			union[kw] = struct{}{}
			continue
		}
		if _, ok := setA[kw]; ok {
			// Count each shared keyword once.
			delete(setA, kw)
			common++
		}
	}

	return float64(common) / float64(len(union))
}

// sharedKeywords returns the keywords present in both lists, in a's order.
func sharedKeywords(a, b []string) []string {
	setB := make(map[string]struct{}, len(b))
	for _, kw := range b {
		setB[kw] = struct{}{}
	}

	var shared []string
	for _, kw := range a {
		if _, ok := setB[kw]; ok {
			shared = append(shared, kw)
			delete(setB, kw)
		}
	}
	return shared
}

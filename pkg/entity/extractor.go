// Package entity provides pattern-based extraction of typed entities from
// text and similarity scoring between entity sets. The heuristics are simple
// keyword and regexp matches, tuned for note-taking text rather than full NER
// accuracy.
package entity

import (
	"regexp"
	"strings"
)

// Entity type names used as keys in extraction results.
const (
	TypeEmails        = "emails"
	TypeURLs          = "urls"
	TypePhones        = "phones"
	TypeDates         = "dates"
	TypeNumbers       = "numbers"
	TypePersons       = "persons"
	TypeOrganizations = "organizations"
	TypeLocations     = "locations"
	TypeProducts      = "products"
	TypeKeywords      = "keywords"
)

// Types lists every entity type an extractor produces, in a stable order.
var Types = []string{
	TypeEmails, TypeURLs, TypePhones, TypeDates, TypeNumbers,
	TypePersons, TypeOrganizations, TypeLocations, TypeProducts, TypeKeywords,
}

// Set is a set of extracted entity strings.
type Set map[string]struct{}

// NewSet builds a Set from its members.
func NewSet(members ...string) Set {
	s := make(Set, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

// Add inserts a member into the set.
func (s Set) Add(member string) {
	s[member] = struct{}{}
}

// Contains reports whether the set holds the member.
func (s Set) Contains(member string) bool {
	_, ok := s[member]
	return ok
}

// Members returns the set's members in unspecified order.
func (s Set) Members() []string {
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	return out
}

// Entities maps an entity type name to the set of entities of that type.
type Entities map[string]Set

var (
	emailPattern = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	urlPattern   = regexp.MustCompile(`(?i)https?://[^\s]+`)
	phonePattern = regexp.MustCompile(`\b(?:\+?1[-.]?)?\(?([0-9]{3})\)?[-.]?([0-9]{3})[-.]?([0-9]{4})\b`)
	datePattern  = regexp.MustCompile(`\b(?:\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4}[-/]\d{1,2}[-/]\d{1,2})\b`)
	// number matches integers and decimals, including the numeric parts of
	// dates and phone numbers. That overlap is intentional: numbers carry no
	// weight in similarity scoring.
	numberPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

	// capitalizedPattern matches runs of capitalized words, the candidate
	// proper nouns classified against the indicator lists.
	capitalizedPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
)

// Extractor classifies text spans into typed entity sets. The indicator
// lists are held on the struct so alternative vocabularies can be swapped in.
type Extractor struct {
	personIndicators   Set
	orgIndicators      Set
	locationIndicators Set
	productIndicators  Set
}

// NewExtractor creates an Extractor with the default indicator vocabularies.
func NewExtractor() *Extractor {
	return &Extractor{
		personIndicators: NewSet(
			"mr", "ms", "mrs", "dr", "prof", "ceo", "cto", "founder",
			"author", "engineer", "manager", "director", "president",
		),
		orgIndicators: NewSet(
			"inc", "corp", "ltd", "llc", "company", "organization",
			"university", "institute", "bank", "hospital", "agency",
		),
		locationIndicators: NewSet(
			"city", "town", "state", "country", "region", "province",
			"district", "avenue", "street", "road", "boulevard",
		),
		productIndicators: NewSet(
			"mouse", "keyboard", "laptop", "headset", "monitor", "screen",
			"sensor", "dpi", "wireless", "bluetooth", "usb", "ergonomic",
			"gaming", "productivity", "device", "hardware",
		),
	}
}

// Extract returns the typed entities found in text. Every known type is
// present in the result, possibly with an empty set.
func (e *Extractor) Extract(text string) Entities {
	entities := make(Entities, len(Types))
	for _, t := range Types {
		entities[t] = Set{}
	}

	for _, m := range emailPattern.FindAllString(text, -1) {
		entities[TypeEmails].Add(m)
	}
	for _, m := range urlPattern.FindAllString(text, -1) {
		entities[TypeURLs].Add(m)
	}
	for _, groups := range phonePattern.FindAllStringSubmatch(text, -1) {
		entities[TypePhones].Add(groups[1] + groups[2] + groups[3])
	}
	for _, m := range datePattern.FindAllString(text, -1) {
		entities[TypeDates].Add(m)
	}
	for _, m := range numberPattern.FindAllString(text, -1) {
		entities[TypeNumbers].Add(m)
	}

	// Classify capitalized phrases against the indicator vocabularies.
	// First matching category wins; the rest land in the generic
	// keywords bucket.
	for _, phrase := range capitalizedPattern.FindAllString(text, -1) {
		lower := strings.ToLower(phrase)
		switch {
		case containsAnyIndicator(lower, e.personIndicators):
			entities[TypePersons].Add(phrase)
		case containsAnyIndicator(lower, e.orgIndicators):
			entities[TypeOrganizations].Add(phrase)
		case containsAnyIndicator(lower, e.locationIndicators):
			entities[TypeLocations].Add(phrase)
		case containsAnyIndicator(lower, e.productIndicators):
			entities[TypeProducts].Add(phrase)
		default:
			entities[TypeKeywords].Add(phrase)
		}
	}

	// Second pass over the lowercase text for bare product words, which the
	// capitalized scan misses ("mouse", "keyboard", ...).
	textLower := strings.ToLower(text)
	for indicator := range e.productIndicators {
		if strings.Contains(textLower, indicator) {
			entities[TypeProducts].Add(indicator)
		}
	}

	return entities
}

func containsAnyIndicator(lower string, indicators Set) bool {
	for indicator := range indicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

package intent

import "strings"

// Matcher holds one category's term list, lowercased at construction.
type Matcher struct {
	terms []string
}

func NewMatcher(terms []string) *Matcher {
	m := &Matcher{terms: make([]string, 0, len(terms))}
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			m.terms = append(m.terms, t)
		}
	}
	return m
}

// Match returns the terms found as substrings of lower, which must already
// be lowercased.
func (m *Matcher) Match(lower string) []string {
	var hits []string
	for _, t := range m.terms {
		if strings.Contains(lower, t) {
			hits = append(hits, t)
		}
	}
	return hits
}

// Len is the number of usable terms, the denominator for base confidence.
func (m *Matcher) Len() int {
	return len(m.terms)
}

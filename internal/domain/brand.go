package domain

import "strings"

// BrandMatcher decides whether a record belongs to the tracked brand.
// Matching is case-insensitive and apostrophe-insensitive: a brand like
// "Arc'teryx" matches both its punctuated and unpunctuated spellings.
type BrandMatcher struct {
	needles []string
}

// NewBrandMatcher builds a matcher for the given brand name.
func NewBrandMatcher(name string) BrandMatcher {
	base := strings.ToLower(strings.TrimSpace(name))
	if base == "" {
		return BrandMatcher{}
	}
	needles := []string{base}
	if stripped := stripApostrophes(base); stripped != base {
		needles = append(needles, stripped)
	}
	return BrandMatcher{needles: needles}
}

// MatchText reports whether the text contains any spelling of the
// brand name.
func (m BrandMatcher) MatchText(text string) bool {
	if len(m.needles) == 0 {
		return false
	}
	lowered := strings.ToLower(text)
	for _, needle := range m.needles {
		if strings.Contains(lowered, needle) {
			return true
		}
	}
	return false
}

// Matches reports whether the brand appears in the title, the vendor,
// or any tag.
func (m BrandMatcher) Matches(title, vendor string, tags []string) bool {
	if m.MatchText(vendor) || m.MatchText(title) {
		return true
	}
	for _, tag := range tags {
		if m.MatchText(tag) {
			return true
		}
	}
	return false
}

func stripApostrophes(s string) string {
	return strings.NewReplacer("'", "", "’", "").Replace(s)
}

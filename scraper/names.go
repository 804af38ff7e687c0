package scraper

import (
	"regexp"
	"strings"
)

// invalidNamePatterns reject extraction noise that is not a business
// name: links, navigation chrome, bare numbers, and strings with no
// letters at all.
var invalidNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://`),
	regexp.MustCompile(`^www\.`),
	regexp.MustCompile(`^cdn\.`),
	regexp.MustCompile(`^media-cdn\.`),
	regexp.MustCompile(`^See all$`),
	regexp.MustCompile(`^Back to top$`),
	regexp.MustCompile(`^Previous$`),
	regexp.MustCompile(`^Next$`),
	regexp.MustCompile(`^Page$`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^[^a-zA-Z]*$`),
	regexp.MustCompile(`^[a-zA-Z]{1,2}$`),
}

// IsValidName reports whether name plausibly identifies a business.
// This filter is the sole gate between raw extraction noise and emitted
// records.
func IsValidName(name string) bool {
	if len(name) < 2 {
		return false
	}
	for _, p := range invalidNamePatterns {
		if p.MatchString(name) {
			return false
		}
	}
	return true
}

// normalizeText trims a string and collapses internal whitespace runs
// to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package content

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleFromSlug turns "noise-impact-assessment" into "Noise Impact Assessment".
func TitleFromSlug(slug string) string {
	words := strings.FieldsFunc(strings.TrimSpace(slug), func(r rune) bool {
		return r == '-' || r == '_'
	})
	return cases.Title(language.BritishEnglish).String(strings.Join(words, " "))
}

// NormalizeSlug lower-cases and trims a path segment.
func NormalizeSlug(raw string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(raw), "/"))
}

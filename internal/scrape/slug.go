package scrape

import (
	"regexp"
	"strings"
)

var accentFold = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ñ", "n", "ü", "u",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u",
	"Ñ", "n", "Ü", "u",
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify folds accents and reduces everything else to hyphen-joined
// lowercase tokens, the way the portals build their path segments.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return ""
	}
	s = accentFold.Replace(s)
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

package gallery

import (
	"regexp"
	"strings"

	"github.com/gosimple/unidecode"
)

const (
	// SlugMaxLength limits length of the last path segment of new entries.
	SlugMaxLength = 80
	// FallbackSlug is used when name has nothing to build slug from.
	FallbackSlug = "new_character"
)

var (
	quotes   = strings.NewReplacer(`'`, "", `"`, "", "’", "", "‘", "", "“", "", "”", "")
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify derives path segment from character name: ASCII lowercase letters
// and digits joined by single underscores, at most SlugMaxLength long.
func Slugify(name string) string {
	s := quotes.Replace(strings.TrimSpace(name))
	s = strings.ToLower(unidecode.Unidecode(s))
	s = strings.Trim(nonAlnum.ReplaceAllString(s, "_"), "_")
	if len(s) > SlugMaxLength {
		// cut may land right after separator
		s = strings.TrimRight(s[:SlugMaxLength], "_")
	}
	if s == "" {
		return FallbackSlug
	}
	return s
}

package fixture

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const idDateLayout = "2006-01-02"

// BuildID derives the content-addressed id of a match from its canonical
// clubs and the UTC calendar date of kickoff. Time of day and round never
// take part in the id.
func BuildID(homeCanonical, awayCanonical string, date time.Time) string {
	var b strings.Builder
	home := Slug(homeCanonical)
	away := Slug(awayCanonical)
	b.Grow(len(home) + len(away) + len(idDateLayout) + 2)
	b.WriteString(home)
	b.WriteByte('-')
	b.WriteString(away)
	b.WriteByte('-')
	b.WriteString(date.UTC().Format(idDateLayout))
	return b.String()
}

// Slug lower-cases a name, drops diacritics and joins alphanumeric runs with
// single hyphens: "Brighton & Hove Albion" -> "brighton-hove-albion".
func Slug(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn))), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

package club

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrEmptyName       = errors.New("club name is empty")
	ErrAliasCollision  = errors.New("alias maps to more than one club")
	ErrUnknownRivalry  = errors.New("rivalry references unknown club")
	ErrInvalidRivalry  = errors.New("rivalry must name two different clubs")
	ErrDuplicateClub   = errors.New("club listed twice")
	ErrEmptyAliasTable = errors.New("alias table has no clubs")
)

var (
	whitespaceRegex    = regexp.MustCompile(`\s+`)
	trailingDigitRegex = regexp.MustCompile(`[\s\d]+$`)
)

// Club is one canonical club and the spellings sources use for it.
type Club struct {
	Name    string
	Aliases []string
}

// Rivalry marks a pair of canonical clubs whose meetings are derbies.
type Rivalry struct {
	Name  string
	Clubs [2]string
}

// AliasTable resolves source spellings to canonical club names. It is
// immutable once built and safe for concurrent use.
type AliasTable struct {
	canonicalByKey map[string]string
	clubs          []string
	rivalries      map[[2]string]string
}

func NewAliasTable(clubs []Club, rivalries []Rivalry) (*AliasTable, error) {
	if len(clubs) == 0 {
		return nil, ErrEmptyAliasTable
	}

	table := &AliasTable{
		canonicalByKey: make(map[string]string, len(clubs)*4),
		clubs:          make([]string, 0, len(clubs)),
		rivalries:      make(map[[2]string]string, len(rivalries)),
	}
	seen := make(map[string]struct{}, len(clubs))

	for _, item := range clubs {
		name := collapseWhitespace(item.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateClub, name)
		}
		seen[name] = struct{}{}
		table.clubs = append(table.clubs, name)

		// The canonical spelling is always an alias of itself.
		if err := table.register(name, name); err != nil {
			return nil, err
		}
		for _, alias := range item.Aliases {
			if strings.TrimSpace(alias) == "" {
				continue
			}
			if err := table.register(alias, name); err != nil {
				return nil, err
			}
		}
	}
	sort.Strings(table.clubs)

	for _, item := range rivalries {
		home := table.Normalize(item.Clubs[0])
		away := table.Normalize(item.Clubs[1])
		if _, ok := seen[home]; !ok {
			return nil, fmt.Errorf("%w: %q in %q", ErrUnknownRivalry, item.Clubs[0], item.Name)
		}
		if _, ok := seen[away]; !ok {
			return nil, fmt.Errorf("%w: %q in %q", ErrUnknownRivalry, item.Clubs[1], item.Name)
		}
		if home == away {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRivalry, item.Name)
		}
		table.rivalries[pairKey(home, away)] = strings.TrimSpace(item.Name)
	}

	return table, nil
}

func (t *AliasTable) register(alias, canonical string) error {
	key := lookupKey(alias)
	if key == "" {
		return fmt.Errorf("%w: alias %q of %s", ErrEmptyName, alias, canonical)
	}
	if current, ok := t.canonicalByKey[key]; ok && current != canonical {
		return fmt.Errorf("%w: %q -> %s, %s", ErrAliasCollision, alias, current, canonical)
	}
	t.canonicalByKey[key] = canonical
	return nil
}

// Normalize returns the canonical club name for raw, or raw unchanged when
// no alias matches.
func (t *AliasTable) Normalize(raw string) string {
	name, _ := t.Resolve(raw)
	return name
}

// Resolve is Normalize that also reports whether the name was mapped.
func (t *AliasTable) Resolve(raw string) (string, bool) {
	if t == nil {
		return raw, false
	}
	if canonical, ok := t.canonicalByKey[lookupKey(raw)]; ok {
		return canonical, true
	}
	return raw, false
}

// IsDerby reports whether the two canonical clubs share a rivalry. Order does
// not matter.
func (t *AliasTable) IsDerby(home, away string) bool {
	_, ok := t.Rivalry(home, away)
	return ok
}

// Rivalry returns the rivalry name for a pair, if any.
func (t *AliasTable) Rivalry(home, away string) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t.rivalries[pairKey(t.Normalize(home), t.Normalize(away))]
	return name, ok
}

func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.clubs)
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// lookupKey folds a raw spelling down to the form used for lookups:
// lower-case, diacritics removed, whitespace collapsed, and trailing digit
// artifacts ("Arsenal 2", "Chelsea1") removed.
func lookupKey(raw string) string {
	value := strings.ToLower(FoldDiacritics(raw))
	value = strings.NewReplacer(".", " ", "'", "", "’", "").Replace(value)
	value = collapseWhitespace(value)
	if trimmed := strings.TrimSpace(trailingDigitRegex.ReplaceAllString(value, "")); trimmed != "" {
		value = trimmed
	}
	return value
}

func collapseWhitespace(value string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(value, " "))
}

// FoldDiacritics strips combining marks: "Atlético" becomes "Atletico".
func FoldDiacritics(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

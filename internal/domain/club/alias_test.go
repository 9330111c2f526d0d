package club

import (
	"errors"
	"testing"
)

func mustDefaultTable(t *testing.T) *AliasTable {
	t.Helper()

	table, err := DefaultPremierLeague()
	if err != nil {
		t.Fatalf("build default alias table: %v", err)
	}
	return table
}

func TestNormalize_MapsKnownSpellings(t *testing.T) {
	t.Parallel()

	table := mustDefaultTable(t)
	cases := map[string]string{
		"Man Utd":                  "Manchester United",
		"  man   UTD ":             "Manchester United",
		"Spurs":                    "Tottenham Hotspur",
		"Man. City":                "Manchester City",
		"Nott'm Forest":            "Nottingham Forest",
		"Brighton and Hove Albion": "Brighton & Hove Albion",
		"Arsenal 2":                "Arsenal",
		"Chelsea1":                 "Chelsea",
		"WOLVES":                   "Wolverhampton Wanderers",
	}
	for raw, want := range cases {
		if got := table.Normalize(raw); got != want {
			t.Fatalf("Normalize(%q)=%q want %q", raw, got, want)
		}
	}
}

func TestNormalize_UnknownNamePassesThrough(t *testing.T) {
	t.Parallel()

	table := mustDefaultTable(t)
	raw := "Real Sociedad B"
	if got := table.Normalize(raw); got != raw {
		t.Fatalf("expected unknown name unchanged, got %q", got)
	}
	if _, ok := table.Resolve(raw); ok {
		t.Fatalf("expected unknown name to be reported as unmapped")
	}
}

func TestNormalize_TotalAndIdempotent(t *testing.T) {
	t.Parallel()

	table := mustDefaultTable(t)
	for _, clubItem := range premierLeagueClubs {
		canonical := clubItem.Name
		if got := table.Normalize(canonical); got != canonical {
			t.Fatalf("canonical %q normalized to %q", canonical, got)
		}
	}

	inputs := []string{"Man Utd", "spurs", "Unknown FC", "", "Leeds Utd 3", "Atlético Madrid"}
	for _, clubItem := range premierLeagueClubs {
		inputs = append(inputs, clubItem.Aliases...)
	}
	for _, raw := range inputs {
		once := table.Normalize(raw)
		if twice := table.Normalize(once); twice != once {
			t.Fatalf("normalize not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

func TestNewAliasTable_RejectsCollisions(t *testing.T) {
	t.Parallel()

	_, err := NewAliasTable([]Club{
		{Name: "Manchester United", Aliases: []string{"United"}},
		{Name: "Newcastle United", Aliases: []string{"united"}},
	}, nil)
	if !errors.Is(err, ErrAliasCollision) {
		t.Fatalf("expected ErrAliasCollision, got %v", err)
	}

	_, err = NewAliasTable([]Club{{Name: "Arsenal"}}, []Rivalry{{Name: "x", Clubs: [2]string{"Arsenal", "Millwall"}}})
	if !errors.Is(err, ErrUnknownRivalry) {
		t.Fatalf("expected ErrUnknownRivalry, got %v", err)
	}

	_, err = NewAliasTable(nil, nil)
	if !errors.Is(err, ErrEmptyAliasTable) {
		t.Fatalf("expected ErrEmptyAliasTable, got %v", err)
	}
}

func TestIsDerby_IsUnordered(t *testing.T) {
	t.Parallel()

	table := mustDefaultTable(t)
	if !table.IsDerby("Arsenal", "Tottenham Hotspur") || !table.IsDerby("Spurs", "Arsenal") {
		t.Fatalf("expected north london derby in both orders")
	}
	if table.IsDerby("Arsenal", "Burnley") {
		t.Fatalf("did not expect derby for Arsenal vs Burnley")
	}
	name, ok := table.Rivalry("Man City", "Man Utd")
	if !ok || name != "Manchester derby" {
		t.Fatalf("expected Manchester derby, got %q ok=%v", name, ok)
	}
}

func TestFoldDiacritics(t *testing.T) {
	t.Parallel()

	if got := FoldDiacritics("Atlético Málaga"); got != "Atletico Malaga" {
		t.Fatalf("unexpected fold result %q", got)
	}
}

package referencedata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/riskibarqy/fixture-reconciler/internal/domain/club"
	"github.com/stretchr/testify/require"
)

func TestLoadAliasFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "clubs.json")
	doc := `{
		"clubs": [
			{"name": "Celtic", "aliases": ["Celtic FC", "CEL"]},
			{"name": "Rangers", "aliases": ["Glasgow Rangers", "RAN"]}
		],
		"rivalries": [{"name": "Old Firm", "clubs": ["Celtic FC", "Rangers"]}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	table, err := LoadAliasFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	require.Equal(t, "Rangers", table.Normalize("glasgow  rangers"))
	require.True(t, table.IsDerby("Rangers", "Celtic"))
}

func TestParseAliasJSON_RejectsInvalidDocuments(t *testing.T) {
	t.Parallel()

	_, err := ParseAliasJSON([]byte(`{"clubs":[{"name":"Celtic"}]}`))
	require.ErrorContains(t, err, "validate alias file")

	_, err = ParseAliasJSON([]byte(`{"clubs":[{"name":"Celtic","aliases":["Hoops"]},{"name":"Rangers","aliases":["hoops"]}]}`))
	require.True(t, errors.Is(err, club.ErrAliasCollision), "got %v", err)

	_, err = ParseAliasJSON([]byte(`{"clubs":[`))
	require.ErrorContains(t, err, "decode alias file")
}

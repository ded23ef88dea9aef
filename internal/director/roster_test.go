package director

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRosterDefaults(t *testing.T) {
	roster, err := LoadRoster("")
	require.NoError(t, err)
	require.NotEmpty(t, roster)
	for _, p := range roster {
		require.NotEmpty(t, p.Handle)
		require.NotEmpty(t, p.Interests)
		require.GreaterOrEqual(t, p.CadenceMinutes, 12)
		require.LessOrEqual(t, p.CadenceMinutes, 110)
	}
}

func TestLoadRosterFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"handle": "botty", "tone": "dry", "interests": ["tea"], "cadence_minutes": 15},
		{"handle": "nocadence", "tone": "loud", "interests": ["drums"]}
	]`), 0o644))

	roster, err := LoadRoster(path)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.Equal(t, 15, roster[0].CadenceMinutes)
	require.Equal(t, 60, roster[1].CadenceMinutes)
}

func TestLoadRosterRejectsMissingHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"tone": "dry"}]`), 0o644))

	_, err := LoadRoster(path)
	require.Error(t, err)
}

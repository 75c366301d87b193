package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsSortsAndPairs(t *testing.T) {
	fsys := fstest.MapFS{
		"002_second.up.sql":  {Data: []byte("up 2")},
		"001_first.up.sql":   {Data: []byte("up 1")},
		"001_first.down.sql": {Data: []byte("down 1")},
		"notes.txt":          {Data: []byte("ignored")},
		"bogus.up.sql":       {Data: []byte("ignored")},
		"003_third.down.sql": {Data: []byte("down 3")},
	}

	got, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, Migration{Version: 1, Up: "up 1", Down: "down 1"}, got[0])
	assert.Equal(t, Migration{Version: 2, Up: "up 2"}, got[1])
	assert.Equal(t, Migration{Version: 3, Down: "down 3"}, got[2])
}

func TestEmbeddedHasFighterSchema(t *testing.T) {
	got, err := Embedded()
	require.NoError(t, err)
	require.NotEmpty(t, got)

	assert.Equal(t, 1, got[0].Version)
	assert.Contains(t, got[0].Up, "CREATE TABLE IF NOT EXISTS fighter")
	assert.Contains(t, got[0].Down, "DROP TABLE IF EXISTS fighter")
}

package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "links.sqlite")
	db, err := NewDB(NewConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestNewDBAppliesSchema(t *testing.T) {
	db, _ := newTestDB(t)

	ok, err := db.IsSetup(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewDBIsIdempotent(t *testing.T) {
	_, path := newTestDB(t)

	again, err := NewDB(NewConfig(path))
	require.NoError(t, err)
	defer again.Close()

	var applied int
	require.NoError(t, again.Get(&applied, "SELECT COUNT(*) FROM migrations"))
	assert.Equal(t, 1, applied)
}

func TestFighterLinkIsUnique(t *testing.T) {
	db, _ := newTestDB(t)

	const insert = "INSERT INTO fighter (link, name) VALUES (?, ?)"
	_, err := db.Exec(insert, "http://ufcstats.com/fighter-details/1", "Jon Jones")
	require.NoError(t, err)

	_, err = db.Exec(insert, "http://ufcstats.com/fighter-details/1", "Someone Else")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

func TestFighterDefaults(t *testing.T) {
	db, _ := newTestDB(t)

	_, err := db.Exec("INSERT INTO fighter (link, name) VALUES ('l', 'n')")
	require.NoError(t, err)

	var row struct {
		Scraped bool  `db:"scraped"`
		Success *bool `db:"success"`
	}
	require.NoError(t, db.Get(&row, "SELECT scraped, success FROM fighter WHERE link = 'l'"))
	assert.False(t, row.Scraped)
	assert.Nil(t, row.Success)
}

func TestFighterColumnLimits(t *testing.T) {
	db, _ := newTestDB(t)

	_, err := db.Exec("INSERT INTO fighter (link, name) VALUES (?, 'n')", strings.Repeat("x", 81))
	assert.Error(t, err)

	_, err = db.Exec("INSERT INTO fighter (link, name) VALUES ('l', ?)", strings.Repeat("x", 41))
	assert.Error(t, err)
}

func TestResetAndMigrate(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Reset())

	ok, err := db.IsSetup(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, db.EnsureSetup(ctx), ErrDBNotSetup)

	require.NoError(t, Migrate(db.DB))
	assert.NoError(t, db.EnsureSetup(ctx))
}

package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverMigrations_SortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql": {Data: []byte("CREATE INDEX ...")},
		"001_init.sql":      {Data: []byte("CREATE TABLE ...")},
		"embed.go":          {Data: []byte("package migrations")},
		"README.md":         {Data: []byte("notes")},
		"old/000_x.sql":     {Data: []byte("-- nested dirs are ignored")},
	}

	files, err := discoverMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_add_index.sql"}, files)
}

func TestDiscoverMigrations_RejectsDuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_init.sql":  {Data: []byte("")},
		"001_other.sql": {Data: []byte("")},
	}
	_, err := discoverMigrations(fsys)
	assert.ErrorContains(t, err, "duplicate migration version 001")
}

func TestExtractVersion(t *testing.T) {
	v, err := extractVersion("014_purchase_orders.sql")
	require.NoError(t, err)
	assert.Equal(t, "014", v)

	_, err = extractVersion("init.sql")
	assert.Error(t, err)
}

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSQL(t *testing.T) {
	script := `-- header
CREATE TABLE a (x TEXT DEFAULT 'a;b'); -- trailing
CREATE INDEX i ON a (x);

INSERT INTO a VALUES ('it''s')`
	stmts := splitSQL(script)
	assert.Equal(t, []string{
		"CREATE TABLE a (x TEXT DEFAULT 'a;b')",
		"CREATE INDEX i ON a (x)",
		"INSERT INTO a VALUES ('it''s')",
	}, stmts)
}

func TestValidateMigrationFileName(t *testing.T) {
	assert.NoError(t, validateMigrationFileName("1__favorite_created_index.sql"))
	assert.Error(t, validateMigrationFileName("favorite.sql"))
	assert.Error(t, validateMigrationFileName("x__favorite.sql"))
}

func TestPatchOf(t *testing.T) {
	v, err := patchOf("migration/sqlite/12__add_column.sql")
	assert.NoError(t, err)
	assert.Equal(t, 12, v)
}

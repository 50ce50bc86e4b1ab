package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Narcis13/workscript-sub004/internal/node"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)").Error)
	return db
}

func TestDatabaseExecThenSelect(t *testing.T) {
	n := New(openTestDB(t))
	ec := &node.ExecutionContext{Ctx: context.Background()}

	edges, err := n.Execute(ec, map[string]any{
		"queryType": "exec",
		"query":     "INSERT INTO widgets (name) VALUES (?)",
		"args":      []any{"sprocket"},
	})
	require.NoError(t, err)
	produce, ok := edges["done"]
	require.True(t, ok)
	data, err := produce()
	require.NoError(t, err)
	assert.EqualValues(t, 1, data.(map[string]any)["rowsAffected"])

	edges, err = n.Execute(ec, map[string]any{
		"queryType": "select",
		"query":     "SELECT name FROM widgets",
	})
	require.NoError(t, err)
	produce = edges["rows"]
	data, err = produce()
	require.NoError(t, err)
	rows := data.(map[string]any)["rows"].([]map[string]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "sprocket", rows[0]["name"])
}

func TestDatabaseExecErrorEdge(t *testing.T) {
	n := New(openTestDB(t))
	ec := &node.ExecutionContext{Ctx: context.Background()}

	edges, err := n.Execute(ec, map[string]any{
		"queryType": "exec",
		"query":     "INSERT INTO nonexistent_table (x) VALUES (1)",
	})
	require.NoError(t, err)
	_, ok := edges["error"]
	assert.True(t, ok)
}

func TestDatabaseUnsupportedQueryType(t *testing.T) {
	n := New(openTestDB(t))
	ec := &node.ExecutionContext{Ctx: context.Background()}
	_, err := n.Execute(ec, map[string]any{"queryType": "bogus"})
	assert.Error(t, err)
}

package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countLedger(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	return n
}

func TestMigrateAppliesSchema(t *testing.T) {
	conn, err := OpenWithMigrations(testDBPath(t), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Every embedded migration should be ledgered
	names, err := migrationNames()
	require.NoError(t, err)
	assert.Equal(t, len(names), countLedger(t, conn))

	// The usage table is queryable
	var rows int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM ai_model_usage").Scan(&rows))
	assert.Zero(t, rows)
}

func TestMigrateIsIdempotent(t *testing.T) {
	conn, err := Open(testDBPath(t), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Migrate(conn, nil))
	before := countLedger(t, conn)

	require.NoError(t, Migrate(conn, nil))
	assert.Equal(t, before, countLedger(t, conn), "re-running must not re-apply")
}

func TestMigrateOnClosedConnection(t *testing.T) {
	conn, err := Open(testDBPath(t), nil)
	require.NoError(t, err)
	conn.Close()

	err = Migrate(conn, nil)
	require.Error(t, err)
	assert.True(t, IsDatabaseClosed(err))
}

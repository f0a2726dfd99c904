package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "two statements",
			in:   "CREATE TABLE a (id INTEGER);\nCREATE TABLE b (id INTEGER);",
			want: []string{"CREATE TABLE a (id INTEGER)", "CREATE TABLE b (id INTEGER)"},
		},
		{
			name: "semicolon inside string literal",
			in:   "INSERT INTO t VALUES ('a;b');",
			want: []string{"INSERT INTO t VALUES ('a;b')"},
		},
		{
			name: "line comments are dropped",
			in:   "-- header; with semicolon\nSELECT 1;",
			want: []string{"SELECT 1"},
		},
		{
			name: "escaped quote",
			in:   "INSERT INTO t VALUES ('it''s; fine')",
			want: []string{"INSERT INTO t VALUES ('it''s; fine')"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitStatements(tt.in))
		})
	}
}

func TestNew_SQLiteMigrationsAreIdempotent(t *testing.T) {
	db, err := New(DriverSQLite, filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())

	var applied []string
	require.NoError(t, db.Conn.Select(&applied, "SELECT filename FROM schema_migrations ORDER BY filename"))
	assert.Equal(t, []string{"001_init.sql", "002_seed_system_user.sql"}, applied)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New("mysql", "ignored")
	assert.Error(t, err)
}

func TestWithTx(t *testing.T) {
	db, err := New(DriverSQLite, filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	insert := func(tx *sqlx.Tx, name string) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO rooms (name_room, created_at) VALUES (?, CURRENT_TIMESTAMP)`), name)
		return err
	}
	count := func() int {
		var n int
		require.NoError(t, db.Conn.Get(&n, "SELECT COUNT(*) FROM rooms"))
		return n
	}

	t.Run("commit", func(t *testing.T) {
		err := WithTx(ctx, db.Conn, func(tx *sqlx.Tx) error { return insert(tx, "committed") })
		require.NoError(t, err)
		assert.Equal(t, 1, count())
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := WithTx(ctx, db.Conn, func(tx *sqlx.Tx) error {
			require.NoError(t, insert(tx, "rolled-back"))
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, count())
	})

	t.Run("rollback on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = WithTx(ctx, db.Conn, func(tx *sqlx.Tx) error {
				require.NoError(t, insert(tx, "panicked"))
				panic("boom")
			})
		})
		assert.Equal(t, 1, count())
	})
}

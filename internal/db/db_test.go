package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect Dialect
		in      string
		want    string
	}{
		{SQLite, `SELECT * FROM t WHERE a = ? AND b = ?`, `SELECT * FROM t WHERE a = ? AND b = ?`},
		{Postgres, `SELECT * FROM t WHERE a = ? AND b = ?`, `SELECT * FROM t WHERE a = $1 AND b = $2`},
		{Postgres, `SELECT 1`, `SELECT 1`},
		{Postgres, `SELECT '?' FROM t WHERE a = ?`, `SELECT '?' FROM t WHERE a = $1`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.dialect.Rebind(tt.in), "%s: %s", tt.dialect, tt.in)
	}
}

func TestLockRow(t *testing.T) {
	assert.Equal(t, "", SQLite.LockRow())
	assert.Equal(t, " FOR UPDATE", Postgres.LockRow())
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	d := NewTestDB(t)
	require.NoError(t, Migrate(context.Background(), d))
}

func TestInTxRollsBackOnError(t *testing.T) {
	d := NewTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := d.InTx(ctx, func(tx *Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)`, "k", "v"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, d.QueryRow(ctx, `SELECT COUNT(*) FROM settings`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestInTxCommits(t *testing.T) {
	d := NewTestDB(t)
	ctx := context.Background()

	err := d.InTx(ctx, func(tx *Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)`, "k", "v")
		return err
	})
	require.NoError(t, err)

	var value string
	require.NoError(t, d.QueryRow(ctx, `SELECT value FROM settings WHERE key = ?`, "k").Scan(&value))
	assert.Equal(t, "v", value)
}

func TestStatements(t *testing.T) {
	got := statements("CREATE TABLE a (x INT);\n\nCREATE TABLE b (y INT);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE TABLE b (y INT)"}, got)
}

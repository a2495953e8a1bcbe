package db

import (
	"strconv"
	"strings"
)

// Driver names accepted in Config.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Dialect captures the few places where SQLite and PostgreSQL differ.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return DriverPostgres
	}
	return DriverSQLite
}

// Rebind rewrites ? placeholders into $1, $2, ... for PostgreSQL.
// Question marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// LockRow is appended to a single-row SELECT to lock it for the rest of the
// transaction. SQLite has no row locks; there the transaction itself holds
// the database write lock from BEGIN IMMEDIATE.
func (d Dialect) LockRow() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

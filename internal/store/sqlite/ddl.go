package sqlite

import (
	"database/sql"
	_ "embed"
	"strings"
)

//go:embed schema.sql
var ddlFile string

// ApplySchema executes the embedded DDL statement by statement. All
// statements are idempotent (IF NOT EXISTS / INSERT OR IGNORE) so reopening
// an existing database is safe.
func ApplySchema(db *sql.DB) error {
	for _, stmt := range strings.Split(ddlFile, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

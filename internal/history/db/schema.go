package db

import (
	_ "embed"
	"strings"
)

//go:embed schema.sql
var Schema string

// SchemaStatements returns Schema split into single statements, for drivers that
// only execute one statement at a time.
func SchemaStatements() []string {
	var statements []string
	for _, stmt := range strings.Split(Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}

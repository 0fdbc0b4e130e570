package clinicaldb

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ApplySchemaFile executes every statement in a SQL script file against
// the database. Used to bootstrap the clinical tables from schema.sql.
func (d *DB) ApplySchemaFile(ctx context.Context, path string) error {
	script, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema file %s: %w", path, err)
	}
	return d.ApplyScript(ctx, string(script))
}

// ApplyScript splits a SQL script on statement boundaries and executes
// each statement in order.
func (d *DB) ApplyScript(ctx context.Context, script string) error {
	for _, stmt := range splitStatements(script) {
		if _, err := d.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// splitStatements breaks a script on semicolons, honoring single-quoted
// string literals so seed data containing ";" survives. Good enough for
// schema scripts; not a general SQL tokenizer.
func splitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
		inString   bool
	)

	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case c == '\'':
			// A doubled quote inside a literal is an escaped quote.
			if inString && i+1 < len(script) && script[i+1] == '\'' {
				current.WriteByte(c)
				current.WriteByte(script[i+1])
				i++
				continue
			}
			inString = !inString
			current.WriteByte(c)
		case c == ';' && !inString:
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

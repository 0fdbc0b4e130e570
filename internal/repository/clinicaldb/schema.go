package clinicaldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Snapshot returns the creation statement of every user table,
// newline-joined, in catalog order. It is called once per user turn with
// no caching, so schema changes are always visible to the next question.
func (d *DB) Snapshot(ctx context.Context) (string, error) {
	if d.driver == DriverPostgres {
		return d.postgresSnapshot(ctx)
	}
	return d.sqliteSnapshot(ctx)
}

// sqliteSnapshot reads stored CREATE TABLE text straight out of
// sqlite_master.
func (d *DB) sqliteSnapshot(ctx context.Context) (string, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT sql FROM sqlite_master WHERE type='table'")
	if err != nil {
		return "", fmt.Errorf("read sqlite_master: %w", err)
	}
	defer rows.Close()

	var statements []string
	for rows.Next() {
		var stmt sql.NullString
		if err := rows.Scan(&stmt); err != nil {
			return "", fmt.Errorf("scan table definition: %w", err)
		}
		if stmt.Valid {
			statements = append(statements, stmt.String)
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("read sqlite_master: %w", err)
	}

	return strings.Join(statements, "\n"), nil
}

// postgresSnapshot reconstructs CREATE TABLE statements from
// information_schema. Postgres does not store creation text, so the
// statements are rebuilt column by column; constraints beyond NOT NULL
// are omitted because the prompt only needs table and column shapes.
func (d *DB) postgresSnapshot(ctx context.Context) (string, error) {
	tables, err := d.postgresTables(ctx)
	if err != nil {
		return "", err
	}

	var statements []string
	for _, table := range tables {
		stmt, err := d.postgresCreateStatement(ctx, table)
		if err != nil {
			return "", err
		}
		statements = append(statements, stmt)
	}

	return strings.Join(statements, "\n"), nil
}

func (d *DB) postgresTables(ctx context.Context) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func (d *DB) postgresCreateStatement(ctx context.Context, table string) (string, error) {
	rows, err := d.conn.QueryContext(ctx, `
SELECT column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = 'public' AND table_name = $1
ORDER BY ordinal_position`, table)
	if err != nil {
		return "", fmt.Errorf("describe table %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return "", fmt.Errorf("scan column of %s: %w", table, err)
		}
		col := fmt.Sprintf("    %s %s", name, dataType)
		if nullable == "NO" {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("describe table %s: %w", table, err)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", table, strings.Join(cols, ",\n")), nil
}

package clinicaldb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chatmodel "clinchat/internal/domain/models/chat"
)

// ErrNotReadOnly is returned when a generated statement is not a plain
// query and the read-only guard is active.
var ErrNotReadOnly = errors.New("only read-only SELECT queries are allowed")

// ExecutionError pairs a failed statement with the database error it
// produced. Both parts are required so the user-facing message is
// actionable when the model generates bad SQL.
type ExecutionError struct {
	Query string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query failed: %v (sql: %s)", e.Err, e.Query)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Execute runs a generated query and captures column names and rows.
// Database failures come back as *ExecutionError; a zero-row result is a
// normal outcome, not an error.
func (d *DB) Execute(ctx context.Context, query string) (*chatmodel.QueryResult, error) {
	if !d.allowWrites && !isReadOnly(query) {
		return nil, &ExecutionError{Query: query, Err: ErrNotReadOnly}
	}

	rows, err := d.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, &ExecutionError{Query: query, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &ExecutionError{Query: query, Err: err}
	}

	result := &chatmodel.QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &ExecutionError{Query: query, Err: err}
		}
		for i, v := range values {
			// Drivers hand text columns back as []byte; convert for display.
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecutionError{Query: query, Err: err}
	}

	return result, nil
}

// isReadOnly accepts only statements that start with SELECT or WITH.
// This is a policy gate, not a SQL parser: anything the model generates
// beyond plain queries is rejected before it reaches the database.
func isReadOnly(query string) bool {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
		return true
	}
	return false
}

package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// RunSQL runs a read-only query with $1.. parameters taken from params["1"]...
func (c *Client) RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	if !isReadOnly(query) {
		return nil, fmt.Errorf("only SELECT and WITH queries are allowed")
	}
	args := make([]any, 0, len(params))
	for i := 1; i <= len(params); i++ {
		key := strconv.Itoa(i)
		if val, ok := params[key]; ok {
			args = append(args, val)
		}
	}

	var results []map[string]any
	err := pgx.BeginTxFunc(ctx, c.pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("running sql: %w", err)
		}
		defer rows.Close()

		fieldDescriptions := rows.FieldDescriptions()
		results = make([]map[string]any, 0)
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return fmt.Errorf("getting row values: %w", err)
			}
			row := make(map[string]any, len(fieldDescriptions))
			for i, fd := range fieldDescriptions {
				row[string(fd.Name)] = values[i]
			}
			results = append(results, row)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating sql rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

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

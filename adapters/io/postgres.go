package io

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gobias/domain/table"
)

// OpenPostgres connects to a Postgres source for cohort ingestion.
// This is an input channel only; nothing is ever written back.
func OpenPostgres(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// ReadQuery materializes a query result into a Frame.
func ReadQuery(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (*table.Frame, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	f, err := table.NewFrame(cols)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		raw, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		row := make([]table.Value, len(raw))
		for i, v := range raw {
			row[i] = fromSQL(v)
		}
		if err := f.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return f, rows.Err()
}

func fromSQL(v interface{}) table.Value {
	switch x := v.(type) {
	case nil:
		return table.Missing()
	case float64:
		return table.Numeric(x)
	case float32:
		return table.Numeric(float64(x))
	case int64:
		return table.Numeric(float64(x))
	case bool:
		return table.Boolean(x)
	case time.Time:
		return table.String(x.Format(time.RFC3339))
	case []byte:
		return table.Parse(string(x))
	case string:
		return table.Parse(x)
	default:
		return table.Parse(fmt.Sprintf("%v", x))
	}
}

// quoteIdent quotes a Postgres identifier for table reads.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ReadTableRows loads an entire database table into a Frame.
func ReadTableRows(ctx context.Context, db *sqlx.DB, tableName string) (*table.Frame, error) {
	return ReadQuery(ctx, db, "SELECT * FROM "+quoteIdent(tableName))
}

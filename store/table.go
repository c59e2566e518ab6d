package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/jackc/pgx/stdlib"

	d "github.com/invertedv/ipea"
)

// Table writes the gold table into a database table, replacing it. Other tiers are ignored.
type Table struct {
	dialect *d.Dialect
	table   string
	orderBy string
}

func NewTable(dialect *d.Dialect, table, orderBy string) *Table {
	return &Table{dialect: dialect, table: table, orderBy: orderBy}
}

func (t *Table) Save(ctx context.Context, tbl *d.DF, tier Tier, _ string) error {
	if tier != Gold {
		return nil
	}

	return t.dialect.Save(ctx, t.table, t.orderBy, true, tbl)
}

func (t *Table) Close() error {
	return t.dialect.Close()
}

// OpenDB connects to a ClickHouse (native port 9000) or Postgres (port 5432) server.
func OpenDB(ctx context.Context, dialect, host, user, password, dbName string) (*sql.DB, error) {
	var (
		db *sql.DB
		e  error
	)
	switch dialect {
	case "clickhouse":
		db = clickhouse.OpenDB(
			&clickhouse.Options{
				Addr: []string{host + ":9000"},
				Auth: clickhouse.Auth{
					Database: dbName,
					Username: user,
					Password: password,
				},
				DialTimeout: 30 * time.Second,
				Compression: &clickhouse.Compression{
					Method: clickhouse.CompressionLZ4,
				},
			})
	case "postgres":
		connectionStr := fmt.Sprintf("postgres://%s:%s@%s:5432/%s", user, password, host, dbName)
		if db, e = sql.Open("pgx", connectionStr); e != nil {
			return nil, e
		}
	default:
		return nil, fmt.Errorf("unknown database %s", dialect)
	}

	if e = db.PingContext(ctx); e != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s at %s: %w", dialect, host, e)
	}

	return db, nil
}

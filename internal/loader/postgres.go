package loader

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/ledger-analytics/pkg/models"
	"github.com/lib/pq"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Database types the decoder understands. An empty name means the driver did not report one.
var (
	dayColumnTypes = map[string]bool{
		"": true, "TEXT": true, "VARCHAR": true, "BPCHAR": true,
		"DATE": true, "TIMESTAMP": true, "TIMESTAMPTZ": true,
	}
	moneyColumnTypes = map[string]bool{
		"": true, "TEXT": true, "VARCHAR": true, "BPCHAR": true, "MONEY": true, "NUMERIC": true,
		"INT2": true, "INT4": true, "INT8": true, "FLOAT4": true, "FLOAT8": true,
	}
)

// PostgresLoader reads the ledger from a PostgreSQL table, one row per bet
type PostgresLoader struct {
	db          *sql.DB
	table       string
	orderColumn string
	year        int
}

// OpenPostgres opens a pooled connection for the ledger loader
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// NewPostgresLoader creates a loader over table ordered by orderColumn.
// Both names must be plain SQL identifiers.
func NewPostgresLoader(db *sql.DB, table, orderColumn string, year int) (*PostgresLoader, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if !identifierPattern.MatchString(orderColumn) {
		return nil, fmt.Errorf("invalid order column %q", orderColumn)
	}

	return &PostgresLoader{
		db:          db,
		table:       table,
		orderColumn: orderColumn,
		year:        year,
	}, nil
}

// Source implements Loader
func (p *PostgresLoader) Source() string {
	return "postgres"
}

// Location is the ledger table
func (p *PostgresLoader) Location() string {
	return p.table
}

// Ping checks database connectivity
func (p *PostgresLoader) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Load implements Loader. Every table column becomes a ledger column.
func (p *PostgresLoader) Load(ctx context.Context) (*models.Ledger, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s",
		pq.QuoteIdentifier(p.table), pq.QuoteIdentifier(p.orderColumn))

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrLedgerUnavailable, p.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns: %w", ErrLedgerUnavailable, err)
	}

	decoder := newRowDecoder(columns, p.year)
	ledger := &models.Ledger{Columns: columns, Records: []models.BetRecord{}}

	for seq := 0; rows.Next(); seq++ {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: scan row %d: %w", ErrLedgerUnavailable, seq+1, err)
		}

		raw := make([]string, len(values))
		for i, v := range values {
			raw[i] = displayValue(v)
		}

		ledger.Records = append(ledger.Records, decoder.decode(seq, values, raw))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %w", ErrLedgerUnavailable, err)
	}

	ledger.Stats = decoder.stats
	return ledger, nil
}

// CheckColumns verifies the table's Day and numeric columns have types the decoder
// can read, so a mismatched schema fails at startup instead of on every request.
func (p *PostgresLoader) CheckColumns(ctx context.Context) error {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT 0", pq.QuoteIdentifier(p.table))

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query %s: %w", p.table, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("column types: %w", err)
	}

	names := make([]string, len(types))
	for i, ct := range types {
		names[i] = ct.Name()
	}

	idx := indexColumns(names)
	checks := []struct {
		column  int
		allowed map[string]bool
	}{
		{idx.day, dayColumnTypes},
		{idx.odds, moneyColumnTypes},
		{idx.stake, moneyColumnTypes},
		{idx.balance, moneyColumnTypes},
	}

	for _, c := range checks {
		if c.column < 0 {
			continue
		}
		dbType := strings.ToUpper(types[c.column].DatabaseTypeName())
		if !c.allowed[dbType] {
			return fmt.Errorf("column %s of %s has unsupported type %s", names[c.column], p.table, dbType)
		}
	}

	return rows.Err()
}

// Close closes the database connection
func (p *PostgresLoader) Close() error {
	return p.db.Close()
}

// displayValue renders a scanned driver value the way the sheet would show it
func displayValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("02/01/2006")
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"
)

// Querier is the subset of pgxpool.Pool used by PostgresSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// TableConfig describes where a collaborator's rows live.
type TableConfig struct {
	Table           string
	TimestampColumn string
	AmountColumn    string
	StatusColumn    string
	Statuses        []string
	// Location is the zone of a timestamp column without time zone. pgx
	// returns such values as UTC wall clocks. Nil means UTC.
	Location *time.Location
}

// PostgresSource reads records directly from a read replica of the backend
// database. Rows are keyed by column name so a FieldAccessor can read them.
type PostgresSource struct {
	name  string
	db    Querier
	cfg   TableConfig
	since func() time.Time
}

// NewPostgresSource creates a source. since returns the lower bound on the
// timestamp column; nil scans the whole table.
func NewPostgresSource(name string, db Querier, cfg TableConfig, since func() time.Time) *PostgresSource {
	return &PostgresSource{name: name, db: db, cfg: cfg, since: since}
}

// Name returns the source name.
func (s *PostgresSource) Name() string { return s.name }

// Query returns the SQL text and arguments the source will run.
func (s *PostgresSource) Query() (string, []any) {
	ts := pgx.Identifier{s.cfg.TimestampColumn}.Sanitize()
	amount := "NULL::text"
	if s.cfg.AmountColumn != "" {
		amount = pgx.Identifier{s.cfg.AmountColumn}.Sanitize() + "::text"
	}
	table := pgx.Identifier(strings.Split(s.cfg.Table, ".")).Sanitize()

	since := time.Time{}
	if s.since != nil {
		since = s.since()
	}
	args := []any{since}
	query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s >= $1", ts, amount, table, ts)

	if s.cfg.StatusColumn != "" && len(s.cfg.Statuses) > 0 {
		query += fmt.Sprintf(" AND %s = ANY($2)", pgx.Identifier{s.cfg.StatusColumn}.Sanitize())
		args = append(args, pq.Array(s.cfg.Statuses))
	}
	return query, args
}

// Fetch runs the query and converts each row into a Record.
func (s *PostgresSource) Fetch(ctx context.Context) ([]Record, error) {
	if s.db == nil || s.cfg.Table == "" || s.cfg.TimestampColumn == "" {
		return nil, fmt.Errorf("%s: %w", s.name, ErrNotConfigured)
	}

	query, args := s.Query()
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", s.name, err)
	}
	defer rows.Close()

	naive := false
	if fields := rows.FieldDescriptions(); len(fields) > 0 {
		naive = fields[0].DataTypeOID == pgtype.TimestampOID || fields[0].DataTypeOID == pgtype.DateOID
	}

	var records []Record
	for rows.Next() {
		var (
			ts     *time.Time
			amount *string
		)
		if err := rows.Scan(&ts, &amount); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", s.name, err)
		}

		rec := Record{}
		if ts != nil {
			t := *ts
			if naive {
				t = inLocation(t, s.cfg.Location)
			}
			rec[s.cfg.TimestampColumn] = t
		}
		if amount != nil && s.cfg.AmountColumn != "" {
			rec[s.cfg.AmountColumn] = *amount
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", s.name, err)
	}

	return records, nil
}

// inLocation reads the wall clock of t as a time in loc.
func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

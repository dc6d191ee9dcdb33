package source

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishdesk/reporting/internal/report"
	"github.com/parishdesk/reporting/internal/testutil"
)

func TestPostgresSource_Query(t *testing.T) {
	t.Parallel()

	since := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	src := NewPostgresSource("donations", nil, TableConfig{
		Table:           "finance.donations",
		TimestampColumn: "created_at",
		AmountColumn:    "amount",
		StatusColumn:    "status",
		Statuses:        []string{"completed", "settled"},
	}, func() time.Time { return since })

	query, args := src.Query()
	assert.Equal(t,
		`SELECT "created_at", "amount"::text FROM "finance"."donations" WHERE "created_at" >= $1 AND "status" = ANY($2)`,
		query)
	require.Len(t, args, 2)
	assert.Equal(t, since, args[0])
	assert.Equal(t, pq.Array([]string{"completed", "settled"}), args[1])
}

func TestPostgresSource_QueryCountOnly(t *testing.T) {
	t.Parallel()

	src := NewPostgresSource("users", nil, TableConfig{
		Table:           `users"; DROP TABLE users; --`,
		TimestampColumn: "joined_at",
	}, nil)

	query, args := src.Query()
	assert.Equal(t,
		`SELECT "joined_at", NULL::text FROM "users""; DROP TABLE users; --" WHERE "joined_at" >= $1`,
		query)
	require.Len(t, args, 1)
	assert.True(t, args[0].(time.Time).IsZero())
}

func TestPostgresSource_NotConfigured(t *testing.T) {
	t.Parallel()

	_, err := NewPostgresSource("users", nil, TableConfig{}, nil).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// fakeRows serves one timestamp column and one amount column.
type fakeRows struct {
	oid  uint32
	rows [][2]any
	i    int
}

func (r *fakeRows) Close()                        {}
func (r *fakeRows) Err() error                    { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) Values() ([]any, error)        { return r.rows[r.i-1][:], nil }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	return []pgconn.FieldDescription{{Name: "created_at", DataTypeOID: r.oid}, {Name: "amount", DataTypeOID: pgtype.TextOID}}
}

func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.i-1]
	if ts, ok := row[0].(time.Time); ok {
		*dest[0].(**time.Time) = &ts
	}
	if amount, ok := row[1].(string); ok {
		*dest[1].(**string) = &amount
	}
	return nil
}

type fakeQuerier struct{ rows *fakeRows }

func (q fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) { return q.rows, nil }

func TestPostgresSource_FetchZoneHandling(t *testing.T) {
	t.Parallel()

	manila, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)

	// Late on the last day of March, Manila wall clock.
	wall := time.Date(2025, time.March, 31, 20, 0, 0, 0, time.UTC)
	instant := time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC) // 20:00 in Manila

	tests := []struct {
		name string
		oid  uint32
		ts   time.Time
	}{
		{"timestamp without time zone", pgtype.TimestampOID, wall},
		{"timestamptz", pgtype.TimestamptzOID, instant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := &fakeRows{oid: tt.oid, rows: [][2]any{{tt.ts, "12.50"}}}
			src := NewPostgresSource("donations", fakeQuerier{rows}, TableConfig{
				Table:           "donations",
				TimestampColumn: "created_at",
				AmountColumn:    "amount",
				Location:        manila,
			}, nil)

			records, err := src.Fetch(context.Background())
			require.NoError(t, err)
			require.Len(t, records, 1)

			acc := FieldAccessor{TimestampFields: []string{"created_at"}, AmountField: "amount", Location: manila}
			got, ok := acc.Timestamp(records[0])
			require.True(t, ok)
			assert.Equal(t, "2025-03", report.KeyOf(got).String())
			assert.Equal(t, 20, got.Hour())

			amount, ok := acc.Amount(records[0])
			require.True(t, ok)
			assert.Equal(t, "12.5", amount.String())
		})
	}

	// A REST record with the same wall clock lands in the same month.
	rest := FieldAccessor{TimestampFields: []string{"created_at"}, Location: manila}
	got, ok := rest.Timestamp(Record{"created_at": "2025-03-31 20:00:00"})
	require.True(t, ok)
	assert.Equal(t, "2025-03", report.KeyOf(got).String())
}

func TestPostgresSource_FetchIntegration(t *testing.T) {
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()

	// Temp tables are per connection, so seed and read through the same one.
	_, err = conn.Exec(ctx, `CREATE TEMP TABLE report_donations (created_at timestamptz, amount numeric(12,2), status text)`)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `INSERT INTO report_donations VALUES
		('2025-03-15T10:00:00Z', 100.00, 'completed'),
		('2025-03-20T10:00:00Z', 50.50, 'completed'),
		('2025-03-21T10:00:00Z', 75.00, 'refunded'),
		('2023-01-01T10:00:00Z', 10.00, 'completed')`)
	require.NoError(t, err)

	src := NewPostgresSource("donations", conn, TableConfig{
		Table:           "report_donations",
		TimestampColumn: "created_at",
		AmountColumn:    "amount",
		StatusColumn:    "status",
		Statuses:        []string{"completed"},
	}, func() time.Time { return time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC) })

	records, err := src.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	acc := FieldAccessor{TimestampFields: []string{"created_at"}, AmountField: "amount"}
	total, ok := acc.Amount(records[0])
	require.True(t, ok)
	assert.False(t, total.IsZero())
	_, ok = acc.Timestamp(records[1])
	assert.True(t, ok)
}

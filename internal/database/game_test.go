package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRows serves fixed round_results rows.
type fakeRows struct {
	rows   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d targets for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = row[i].(uuid.UUID)
		case *int:
			*p = row[i].(int)
		case *time.Time:
			*p = row[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported target %T", d)
		}
	}
	return nil
}

// fakeDB records the last query and answers it with rows.
type fakeDB struct {
	rows     *fakeRows
	queryErr error
	sql      string
	args     []any
}

func (f *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("exec not supported")
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.sql, f.args = sql, args
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeDB) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func TestTopScoresScansRowsInOrder(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	ended := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := &fakeRows{rows: [][]any{
		{first, 2, 27, 9, 0, ended},
		{second, 1, 12, 5, 1, ended.Add(time.Minute)},
	}}
	db := &fakeDB{rows: rows}

	got, err := NewStore(db).TopScores(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, first, got[0].GameID)
	assert.Equal(t, 2, got[0].Round)
	assert.Equal(t, 27, got[0].Score)
	assert.Equal(t, 9, got[0].SetsFound)
	assert.Equal(t, 0, got[0].Mismatches)
	assert.Equal(t, ended, got[0].EndedAt)
	assert.Equal(t, second, got[1].GameID)
	assert.Equal(t, 12, got[1].Score)

	assert.Contains(t, db.sql, "ORDER BY score DESC, ended_at ASC")
	assert.Contains(t, db.sql, "LIMIT $1")
	assert.Equal(t, []any{2}, db.args)
	assert.True(t, rows.closed)
}

func TestTopScoresErrors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		db := &fakeDB{queryErr: errors.New("conn refused")}
		_, err := NewStore(db).TopScores(context.Background(), 5)
		require.Error(t, err)
		assert.ErrorIs(t, err, db.queryErr)
	})

	t.Run("rows", func(t *testing.T) {
		rowsErr := errors.New("connection reset")
		db := &fakeDB{rows: &fakeRows{err: rowsErr}}
		got, err := NewStore(db).TopScores(context.Background(), 5)
		assert.ErrorIs(t, err, rowsErr)
		assert.Empty(t, got)
	})

	t.Run("scan", func(t *testing.T) {
		db := &fakeDB{rows: &fakeRows{rows: [][]any{{uuid.New(), 1}}}}
		_, err := NewStore(db).TopScores(context.Background(), 5)
		assert.Error(t, err)
	})
}

func TestMigrateWrapsExecError(t *testing.T) {
	err := NewStore(&fakeDB{}).Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate schema")
}

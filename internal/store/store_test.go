package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/joestump/lela/internal/config"
)

func testConfig(t *testing.T) config.Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lela.db")
	return config.Database{
		URI:   "file:" + path + "?cache=shared",
		Flags: config.OpenFlags{Create: true, ReadWrite: true},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	s := New(config.Database{
		URI:   "file:" + path + "?cache=shared",
		Flags: config.OpenFlags{Create: true, ReadWrite: true},
	}, zaptest.NewLogger(t))
	require.NoError(t, s.Open(context.Background()))
	defer s.Close()

	require.NoError(t, s.Exec(context.Background(), Schema))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenIsNoOpWhenOpen(t *testing.T) {
	s := openTestStore(t)
	conn := s.Conn()

	require.NoError(t, s.Open(context.Background()))
	assert.Same(t, conn, s.Conn())
}

func TestOpenWithoutURI(t *testing.T) {
	s := New(config.Database{}, nil)
	err := s.Open(context.Background())
	assert.ErrorIs(t, err, ErrNoURI)
	assert.False(t, s.IsOpen())
}

func TestOpenRejectedByEngine(t *testing.T) {
	dir := t.TempDir()
	s := New(config.Database{
		URI:   "file:" + filepath.Join(dir, "missing", "lela.db"),
		Flags: config.OpenFlags{Create: true, ReadWrite: true},
	}, nil)

	err := s.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open lela database")
	assert.False(t, s.IsOpen())
}

func TestCloseIsIdempotent(t *testing.T) {
	s := New(testConfig(t), nil)
	assert.NoError(t, s.Close())

	require.NoError(t, s.Open(context.Background()))
	assert.NoError(t, s.Close())
	assert.False(t, s.IsOpen())
	assert.NoError(t, s.Close())
}

func TestSchemaIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Exec(ctx, Schema))
	require.NoError(t, s.Exec(ctx, Schema))

	var count int
	err := s.Conn().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='profile'`,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestQueryOpensLazily(t *testing.T) {
	s := New(testConfig(t), zaptest.NewLogger(t))
	t.Cleanup(func() { s.Close() })

	var got []string
	err := s.Query(context.Background(), `SELECT 'a' AS v UNION ALL SELECT 'b'`, func(r Row) error {
		v, ok := r.Value("v")
		require.True(t, ok)
		got = append(got, v.String)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, s.IsOpen())
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestQueryRowsCarryNulls(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Exec(ctx, Schema))
	require.NoError(t, s.Exec(ctx, `INSERT INTO profile (id, name, age) VALUES (1, 'Al', 17)`))

	var rows []Row
	err := s.Query(ctx, `SELECT name, gender, age FROM profile`, func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, []string{"name", "gender", "age"}, rows[0].Columns)
	name, _ := rows[0].Value("name")
	gender, _ := rows[0].Value("gender")
	age, _ := rows[0].Value("age")
	assert.Equal(t, "Al", name.String)
	assert.False(t, gender.Valid)
	assert.Equal(t, "17", age.String)

	_, ok := rows[0].Value("missing")
	assert.False(t, ok)
}

func TestQueryStopsOnErrStop(t *testing.T) {
	s := openTestStore(t)

	calls := 0
	err := s.Query(context.Background(), `SELECT 1 UNION ALL SELECT 2 UNION ALL SELECT 3`, func(Row) error {
		calls++
		return ErrStop
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestQueryPropagatesCallbackError(t *testing.T) {
	s := openTestStore(t)
	boom := errors.New("boom")

	err := s.Query(context.Background(), `SELECT 1`, func(Row) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestQueryReportsEngineError(t *testing.T) {
	s := openTestStore(t)

	err := s.Query(context.Background(), `SELECT * FROM no_such_table`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sql error")
	assert.Contains(t, err.Error(), "no_such_table")
}

func TestExecReportsEngineError(t *testing.T) {
	s := openTestStore(t)

	err := s.Exec(context.Background(), `CREATE TABLE`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sql error")
}

func TestDSN(t *testing.T) {
	rwc := config.OpenFlags{Create: true, ReadWrite: true}

	assert.Equal(t,
		"file:lela.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)",
		DSN(config.Database{URI: config.DefaultDatabaseURI, Flags: rwc}))
	assert.Equal(t,
		"file:lela.db?mode=ro&_pragma=busy_timeout(5000)",
		DSN(config.Database{URI: "file:lela.db?mode=ro", Flags: rwc}))
	assert.Equal(t,
		"/tmp/lela.db?_pragma=busy_timeout(5000)",
		DSN(config.Database{URI: "/tmp/lela.db", Flags: rwc}))
}

package profile

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joestump/lela/internal/config"
	"github.com/joestump/lela/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(config.Database{
		URI:   "file:" + filepath.Join(t.TempDir(), "lela.db"),
		Flags: config.OpenFlags{Create: true, ReadWrite: true},
	}, nil)
	require.NoError(t, s.Exec(context.Background(), store.Schema))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRestoreEmptyStore(t *testing.T) {
	s := openTestStore(t)

	var p Profile
	require.NoError(t, Restore(context.Background(), s, &p))
	assert.False(t, p.Known())
	assert.Equal(t, Profile{}, p)
}

func TestSaveThenRestore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, Save(ctx, s, Profile{Name: "Al", Gender: "male", Age: 17}))

	var p Profile
	require.NoError(t, Restore(ctx, s, &p))
	assert.True(t, p.Known())
	assert.Equal(t, Profile{Name: "Al", Gender: "male", Age: 17}, p)
}

func TestSaveKeepsSingleRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, Save(ctx, s, Profile{Name: "Al", Age: 17}))
	require.NoError(t, Save(ctx, s, Profile{Name: "Zachariah", Gender: "nonbinary", Age: 30}))

	var count int
	require.NoError(t, s.Conn().QueryRow(`SELECT COUNT(*) FROM profile`).Scan(&count))
	assert.Equal(t, 1, count)

	var p Profile
	require.NoError(t, Restore(ctx, s, &p))
	assert.Equal(t, "Zachariah", p.Name)
	assert.Equal(t, 30, p.Age)
}

func TestAssign(t *testing.T) {
	var p Profile
	assert.True(t, p.Assign("name", sql.NullString{String: "Al", Valid: true}))
	assert.True(t, p.Assign("gender", sql.NullString{}))
	assert.True(t, p.Assign("age", sql.NullString{String: "17", Valid: true}))
	assert.False(t, p.Assign("created_at", sql.NullString{String: "now", Valid: true}))

	assert.Equal(t, Profile{Name: "Al", Age: 17}, p)
}

func TestParseAge(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"17", 17, true},
		{"200", 200, true},
		{"  42 ", 42, true},
		{"+5", 5, true},
		{"17abc", 17, false},
		{"abc", 0, false},
		{"", 0, false},
		{"-5", 0, false},
		{"-0", 0, true},
	}
	for _, tc := range cases {
		got, ok := ParseAge(tc.in)
		assert.Equal(t, tc.want, got, "ParseAge(%q)", tc.in)
		assert.Equal(t, tc.ok, ok, "ParseAge(%q) ok", tc.in)
	}
}

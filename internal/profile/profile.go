// Package profile holds what lela has learned about its user and the
// statements that restore and persist it.
package profile

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/joestump/lela/internal/store"
)

const (
	restoreStmt = `SELECT name, gender, age FROM profile WHERE id = 1`

	saveStmt = `INSERT INTO profile (id, name, gender, age) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			gender = excluded.gender,
			age = excluded.age,
			updated_at = datetime('now')`
)

// Profile is the user record. An empty Name means the user has not been
// onboarded yet.
type Profile struct {
	Name   string
	Gender string
	Age    int
}

// Known reports whether onboarding has already produced a name.
func (p *Profile) Known() bool {
	return p.Name != ""
}

// Assign copies a named column into the matching field. Unknown columns are
// ignored and reported as false. NULL values leave the field untouched.
func (p *Profile) Assign(column string, value sql.NullString) bool {
	switch column {
	case "name":
		if value.Valid {
			p.Name = value.String
		}
	case "gender":
		if value.Valid {
			p.Gender = value.String
		}
	case "age":
		if value.Valid {
			p.Age, _ = ParseAge(value.String)
		}
	default:
		return false
	}
	return true
}

// Restore loads the persisted profile into p. When no row exists p is left
// unchanged.
func Restore(ctx context.Context, q store.Querier, p *Profile) error {
	return q.Query(ctx, restoreStmt, func(row store.Row) error {
		for i, column := range row.Columns {
			p.Assign(column, row.Values[i])
		}
		return nil
	})
}

// Save upserts p as the single profile row.
func Save(ctx context.Context, q store.Querier, p Profile) error {
	if err := q.Exec(ctx, saveStmt, nullable(p.Name), nullable(p.Gender), p.Age); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ParseAge converts input the way C's atoi does: leading whitespace, an
// optional sign, then as many digits as are present. Anything unparseable
// yields 0 and negative values clamp to 0. ok is false whenever the input was
// coerced.
func ParseAge(input string) (age int, ok bool) {
	s := strings.TrimLeftFunc(input, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	if neg && n != 0 {
		return 0, false
	}
	return n, end == len(strings.TrimRightFunc(s, unicode.IsSpace))
}

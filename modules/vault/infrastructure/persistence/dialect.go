package persistence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Dialect holds the statements that differ between backends. Shared statements are
// written with ? placeholders and passed through Rebind.
type Dialect interface {
	Name() string
	Rebind(query string) string
	// InsertIgnore inserts one row and silently skips rows whose key already exists.
	InsertIgnore(table string, columns []string) string
	// MergeCustomField takes (key, json value, external id).
	MergeCustomField(table string) string
	// BackfillCustomField takes (key, json value) and touches rows lacking key.
	BackfillCustomField(table string) string
	JSONType() string
	BoolType() string
	DecimalType() string
	TimestampType() string
}

type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Rebind(query string) string { return sqlx.Rebind(sqlx.DOLLAR, query) }

func (Postgres) InsertIgnore(table string, columns []string) string {
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		table, strings.Join(columns, ", "), numbered(len(columns)),
	)
}

func (Postgres) MergeCustomField(table string) string {
	return fmt.Sprintf(
		"UPDATE %s SET custom_fields = COALESCE(custom_fields, '{}'::jsonb) || jsonb_build_object($1::text, $2::jsonb) WHERE external_id = $3",
		table,
	)
}

func (Postgres) BackfillCustomField(table string) string {
	return fmt.Sprintf(
		"UPDATE %s SET custom_fields = COALESCE(custom_fields, '{}'::jsonb) || jsonb_build_object($1::text, $2::jsonb) WHERE NOT jsonb_exists(COALESCE(custom_fields, '{}'::jsonb), $1::text)",
		table,
	)
}

func (Postgres) JSONType() string      { return "JSONB" }
func (Postgres) BoolType() string      { return "BOOLEAN" }
func (Postgres) DecimalType() string   { return "NUMERIC(12,4)" }
func (Postgres) TimestampType() string { return "TIMESTAMPTZ" }

type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Rebind(query string) string { return query }

func (SQLite) InsertIgnore(table string, columns []string) string {
	return fmt.Sprintf(
		"INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
	)
}

// Custom field keys are quoted in the JSON path so dots and spaces stay literal.
func (SQLite) MergeCustomField(table string) string {
	return fmt.Sprintf(
		`UPDATE %s SET custom_fields = json_set(COALESCE(custom_fields, '{}'), '$."' || ? || '"', json(?)) WHERE external_id = ?`,
		table,
	)
}

func (SQLite) BackfillCustomField(table string) string {
	return fmt.Sprintf(
		`UPDATE %[1]s SET custom_fields = json_set(COALESCE(custom_fields, '{}'), '$."' || ?1 || '"', json(?2)) WHERE json_type(COALESCE(custom_fields, '{}'), '$."' || ?1 || '"') IS NULL`,
		table,
	)
}

func (SQLite) JSONType() string      { return "TEXT" }
func (SQLite) BoolType() string      { return "INTEGER" }
func (SQLite) DecimalType() string   { return "TEXT" }
func (SQLite) TimestampType() string { return "TEXT" }

func numbered(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(i+1)
	}
	return strings.Join(parts, ", ")
}

// DialectFor returns the dialect registered under driver.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres{}, nil
	case "sqlite":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

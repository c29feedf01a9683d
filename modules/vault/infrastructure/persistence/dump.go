package persistence

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
)

const dumpFormat = "vault-backup/v1"

type dumpHeader struct {
	Format    string    `json:"format"`
	Dialect   string    `json:"dialect"`
	CreatedAt time.Time `json:"created_at"`
}

// Dump writes every table as JSON lines: a header line, then one line per table
// of the form {"table": name, "rows": [...]}.
func (s *SQLStore) Dump(ctx context.Context, w io.Writer) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(dumpHeader{Format: dumpFormat, Dialect: s.dialect.Name(), CreatedAt: time.Now().UTC()}); err != nil {
		return err
	}
	for _, table := range Tables() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, err := s.dumpTable(ctx, table)
		if err != nil {
			return err
		}
		if err := enc.Encode(struct {
			Table string           `json:"table"`
			Rows  []map[string]any `json:"rows"`
		}{table, rows}); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) dumpTable(ctx context.Context, table string) ([]map[string]any, error) {
	rows, err := s.q(ctx).QueryContext(ctx, "SELECT * FROM "+table+" ORDER BY 1")
	if err != nil {
		return nil, wrap("dump "+table, err)
	}
	defer rows.Close()
	out := []map[string]any{}
	for rows.Next() {
		row := make(map[string]any)
		if err := sqlx.MapScan(rows, row); err != nil {
			return nil, wrap("dump "+table, err)
		}
		for c, v := range row {
			if b, ok := v.([]byte); ok {
				row[c] = string(b)
			}
		}
		out = append(out, row)
	}
	return out, wrap("dump "+table, rows.Err())
}

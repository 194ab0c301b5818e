package mpd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrUnsupportedType is returned for a column whose source type has no coercion.
var ErrUnsupportedType = errors.New("unsupported column type")

// DBSource reads an MPD schema over a database/sql connection.
type DBSource struct {
	db    *sql.DB
	owned bool

	mu   sync.Mutex
	meta map[string][]columnMeta
}

type columnMeta struct {
	name     string
	typeCode string
}

// NewDBSource wraps a connection owned by the caller; Release leaves it open.
func NewDBSource(db *sql.DB) *DBSource {
	return &DBSource{db: db, meta: map[string][]columnMeta{}}
}

// OpenDB opens an MPD file read-only with the sqlite driver. The connection is
// owned by the returned source and closed by Release.
func OpenDB(path string) (*DBSource, error) {
	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("open mpd database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open mpd database: %w", err)
	}
	src := NewDBSource(conn)
	src.owned = true
	return src, nil
}

// DB exposes the underlying connection.
func (s *DBSource) DB() *sql.DB { return s.db }

// Owned reports whether Release closes the connection.
func (s *DBSource) Owned() bool { return s.owned }

// Release closes the connection if this source opened it.
func (s *DBSource) Release() error {
	if !s.owned || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *DBSource) HasTable(ctx context.Context, name string) (bool, error) {
	if s.db == nil {
		return false, errors.New("source released")
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ? COLLATE NOCASE`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("probe table %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *DBSource) Rows(ctx context.Context, q Query) ([]Row, error) {
	if s.db == nil {
		return nil, errors.New("source released")
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	query, args := buildSelect(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}
	defer rows.Close()

	meta, err := s.columns(query, rows)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}

	var out []Row
	for rows.Next() {
		raw := make([]any, len(meta))
		ptrs := make([]any, len(meta))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Table, err)
		}
		row, err := newCursorRow(meta, raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", q.Table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", q.Table, err)
	}
	return out, nil
}

// columns returns the metadata for a query, captured from the first result
// set of that query and reused afterwards.
func (s *DBSource) columns(query string, rows *sql.Rows) ([]columnMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if meta, ok := s.meta[query]; ok {
		return meta, nil
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	meta := make([]columnMeta, len(types))
	for i, t := range types {
		meta[i] = columnMeta{name: t.Name(), typeCode: normalizeTypeCode(t.DatabaseTypeName())}
	}
	s.meta[query] = meta
	return meta, nil
}

func buildSelect(q Query) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(q.Table)
	args := make([]any, 0, len(q.Filters))
	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(f.Column)
		b.WriteString("=?")
		args = append(args, f.Value)
	}
	return b.String(), args
}

func normalizeTypeCode(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	return name
}

// cursorRow is a Row decoded from a live result set using column metadata.
type cursorRow struct {
	*MapRow
}

func newCursorRow(meta []columnMeta, raw []any) (*cursorRow, error) {
	values := make(map[string]any, len(meta))
	for i, m := range meta {
		v, err := coerce(m.typeCode, raw[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", m.name, err)
		}
		values[m.name] = v
	}
	return &cursorRow{MapRow: NewMapRow(values)}, nil
}

// coerce converts a scanned value according to the declared column type.
// SQL NULL stays nil whatever the type.
func coerce(typeCode string, v any) (any, error) {
	switch typeCode {
	case "BIT", "BOOLEAN", "BOOL":
		if v == nil {
			return nil, nil
		}
		return toBool(v)
	case "CHAR", "VARCHAR", "NCHAR", "NVARCHAR", "TEXT", "LONGVARCHAR", "LONGNVARCHAR", "CLOB", "MEMO":
		if v == nil {
			return nil, nil
		}
		return toString(v)
	case "DATE":
		if v == nil {
			return nil, nil
		}
		t, err := toTime(v)
		if err != nil {
			return nil, err
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
	case "TIMESTAMP", "DATETIME", "TIME":
		if v == nil {
			return nil, nil
		}
		return toTime(v)
	case "DOUBLE", "FLOAT", "REAL", "NUMERIC", "DECIMAL", "CURRENCY":
		if v == nil {
			return nil, nil
		}
		return toFloat(v)
	case "INTEGER", "INT", "SMALLINT", "TINYINT":
		if v == nil {
			return nil, nil
		}
		return toInt(v)
	case "BIGINT":
		if v == nil {
			return nil, nil
		}
		n, err := toInt(v)
		return int64(n), err
	case "BINARY", "VARBINARY", "LONGVARBINARY", "BLOB":
		if v == nil {
			return nil, nil
		}
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
		return nil, fmt.Errorf("%T is not binary", v)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, typeCode)
}

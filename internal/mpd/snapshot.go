package mpd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SnapshotSource serves the tables of an MPD schema from a YAML document of
// the form {tables: {NAME: [{COLUMN: value}]}}.
type SnapshotSource struct {
	tables map[string][]map[string]any
}

type snapshotDoc struct {
	Tables map[string][]map[string]any `yaml:"tables"`
}

// NewSnapshotSource serves tables held in memory.
func NewSnapshotSource(tables map[string][]map[string]any) *SnapshotSource {
	if tables == nil {
		tables = map[string][]map[string]any{}
	}
	return &SnapshotSource{tables: tables}
}

func LoadSnapshot(r io.Reader) (*SnapshotSource, error) {
	var doc snapshotDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return NewSnapshotSource(doc.Tables), nil
}

func OpenSnapshot(path string) (*SnapshotSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return LoadSnapshot(f)
}

func (s *SnapshotSource) HasTable(_ context.Context, name string) (bool, error) {
	_, ok := s.tables[name]
	return ok, nil
}

func (s *SnapshotSource) Rows(_ context.Context, q Query) ([]Row, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	records, ok := s.tables[q.Table]
	if !ok {
		return nil, fmt.Errorf("no such table: %s", q.Table)
	}
	var out []Row
	for _, rec := range records {
		match, err := matches(rec, q.Filters)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.Table, err)
		}
		if match {
			out = append(out, NewMapRow(rec))
		}
	}
	return out, nil
}

func matches(rec map[string]any, filters []Filter) (bool, error) {
	for _, f := range filters {
		v, ok := rec[f.Column]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrUnknownColumn, f.Column)
		}
		if !equalValues(v, f.Value) {
			return false, nil
		}
	}
	return true, nil
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, errA := toFloat(a)
	fb, errB := toFloat(b)
	if errA == nil && errB == nil {
		return fa == fb
	}
	sa, errA := toString(a)
	sb, errB := toString(b)
	return errA == nil && errB == nil && sa == sb
}

// ExportSnapshot writes the rows of projectID held by src as a snapshot
// document. Tables missing from src are left out.
func ExportSnapshot(ctx context.Context, src Source, projectID int, w io.Writer) error {
	doc := snapshotDoc{Tables: map[string][]map[string]any{}}
	project := []Filter{{Column: "PROJ_ID", Value: projectID}}
	var codeUIDs []int

	for _, table := range Tables {
		if table == TableOutlineCodes {
			continue
		}
		ok, err := src.HasTable(ctx, table)
		if err != nil {
			return fmt.Errorf("export snapshot: %w", err)
		}
		if !ok {
			continue
		}
		rows, err := src.Rows(ctx, Query{Table: table, Filters: project})
		if err != nil {
			return fmt.Errorf("export snapshot: %w", err)
		}
		records := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			rec, err := exportRecord(row)
			if err != nil {
				return fmt.Errorf("export snapshot: %s: %w", table, err)
			}
			records = append(records, rec)
			if table == TableCodeFields {
				if uid := row.Integer("CODE_UID"); uid != nil {
					codeUIDs = append(codeUIDs, *uid)
				}
				if err := row.Err(); err != nil {
					return fmt.Errorf("export snapshot: %s: %w", table, err)
				}
			}
		}
		doc.Tables[table] = records
	}

	if ok, err := src.HasTable(ctx, TableOutlineCodes); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	} else if ok {
		records := []map[string]any{}
		seen := map[int]bool{}
		for _, uid := range codeUIDs {
			if seen[uid] {
				continue
			}
			seen[uid] = true
			rows, err := src.Rows(ctx, Query{Table: TableOutlineCodes, Filters: []Filter{{Column: "CODE_UID", Value: uid}}})
			if err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}
			for _, row := range rows {
				rec, err := exportRecord(row)
				if err != nil {
					return fmt.Errorf("export snapshot: %s: %w", TableOutlineCodes, err)
				}
				records = append(records, rec)
			}
		}
		doc.Tables[TableOutlineCodes] = records
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	return enc.Close()
}

type valuer interface {
	Values() map[string]any
}

func exportRecord(row Row) (map[string]any, error) {
	v, ok := row.(valuer)
	if !ok {
		return nil, fmt.Errorf("row %T does not expose its values", row)
	}
	rec := make(map[string]any, len(v.Values()))
	for k, val := range v.Values() {
		switch t := val.(type) {
		case time.Time:
			val = t.Format(time.RFC3339Nano)
		case []byte:
			val = string(t)
		}
		rec[k] = val
	}
	return rec, nil
}

package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mpdimport/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// ImportFilters narrows ListImports. Cursor fields page backwards from the
// last row of the previous page.
type ImportFilters struct {
	Status          string
	Source          string
	ProjectID       *int
	Limit           int
	CursorStartedAt string
	CursorID        string
}

type EventFilters struct {
	ImportID   string
	Type       string
	EntityKind string
	After      int64
	Limit      int
}

const importColumns = `id,source,source_kind,project_id,COALESCE(project_name,''),status,COALESCE(error,''),counts_json,actor_id,started_at,finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanImport(s scanner) (domain.ImportRun, error) {
	var (
		run      domain.ImportRun
		counts   string
		finished sql.NullString
	)
	if err := s.Scan(&run.ID, &run.Source, &run.SourceKind, &run.ProjectID, &run.ProjectName, &run.Status, &run.Error, &counts, &run.ActorID, &run.StartedAt, &finished); err != nil {
		return run, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.String
	}
	if err := json.Unmarshal([]byte(counts), &run.Counts); err != nil {
		return run, fmt.Errorf("decode import counts: %w", err)
	}
	return run, nil
}

func (r Repo) InsertImport(ctx context.Context, tx *sql.Tx, run domain.ImportRun) error {
	counts, err := json.Marshal(run.Counts)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO imports(id,source,source_kind,project_id,project_name,status,error,counts_json,actor_id,started_at,finished_at) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Source, run.SourceKind, run.ProjectID, nullable(run.ProjectName), run.Status, nullable(run.Error), string(counts), run.ActorID, run.StartedAt, nullableStringPtr(run.FinishedAt))
	return err
}

// FinishImport records the outcome of a run that is still running.
func (r Repo) FinishImport(ctx context.Context, tx *sql.Tx, run domain.ImportRun) error {
	counts, err := json.Marshal(run.Counts)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE imports SET status=?, error=?, project_name=?, counts_json=?, finished_at=? WHERE id=? AND status='running'`,
		run.Status, nullable(run.Error), nullable(run.ProjectName), string(counts), nullableStringPtr(run.FinishedAt), run.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetImport(ctx context.Context, id string) (domain.ImportRun, error) {
	run, err := scanImport(r.DB.QueryRowContext(ctx, `SELECT `+importColumns+` FROM imports WHERE id=?`, id))
	if err == sql.ErrNoRows {
		return run, ErrNotFound
	}
	return run, err
}

// ListImports returns runs newest first.
func (r Repo) ListImports(ctx context.Context, f ImportFilters) ([]domain.ImportRun, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Source != "" {
		clauses = append(clauses, "source=?")
		args = append(args, f.Source)
	}
	if f.ProjectID != nil {
		clauses = append(clauses, "project_id=?")
		args = append(args, *f.ProjectID)
	}
	if f.CursorStartedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(started_at < ? OR (started_at = ? AND id < ?))")
		args = append(args, f.CursorStartedAt, f.CursorStartedAt, f.CursorID)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT ` + importColumns + ` FROM imports ` + where + ` ORDER BY started_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ImportRun
	for rows.Next() {
		run, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, run)
	}
	return res, rows.Err()
}

// ListImportEvents returns the events of a run in the order they were
// appended, starting after f.After.
func (r Repo) ListImportEvents(ctx context.Context, f EventFilters) ([]domain.ImportEvent, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	clauses := []string{"import_id=?"}
	args := []any{f.ImportID}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.EntityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, f.EntityKind)
	}
	if f.After > 0 {
		clauses = append(clauses, "id>?")
		args = append(args, f.After)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,import_id,entity_kind,COALESCE(entity_id,''),payload_json FROM import_events %s ORDER BY id ASC LIMIT ?`, where)
	args = append(args, f.Limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ImportEvent
	for rows.Next() {
		var (
			e       domain.ImportEvent
			payload string
		)
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.ImportID, &e.EntityKind, &e.EntityID, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, fmt.Errorf("decode event %d payload: %w", e.ID, err)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

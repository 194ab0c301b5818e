package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mpdimport/internal/app"
	"mpdimport/internal/config"
	"mpdimport/internal/domain"
	"mpdimport/internal/engine/auth"
	"mpdimport/internal/events"
	"mpdimport/internal/mpd"
	"mpdimport/internal/repo"
)

// Source kinds recorded on an import run.
const (
	KindDatabase = "database"
	KindSnapshot = "snapshot"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Logger *slog.Logger
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Auth returns the permission checker for the engine's roles.
func (e Engine) Auth() auth.Service {
	return auth.Service{Config: e.Config}
}

// SourceKind classifies a source path: YAML files are snapshots, anything
// else is an MPD database.
func SourceKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return KindSnapshot
	}
	return KindDatabase
}

func (e Engine) sourcePath(path string) (string, error) {
	if path == "" && e.Config != nil {
		path = e.Config.Source.Path
	}
	if path == "" {
		return "", errors.New("source is required")
	}
	return path, nil
}

// OpenSource opens path as a record source.
func (e Engine) OpenSource(path string) (mpd.Source, error) {
	path, err := e.sourcePath(path)
	if err != nil {
		return nil, err
	}
	if SourceKind(path) == KindSnapshot {
		return mpd.OpenSnapshot(path)
	}
	return mpd.OpenDB(path)
}

func (e Engine) release(src mpd.Source) {
	if rel, ok := src.(mpd.Releaser); ok {
		if err := rel.Release(); err != nil {
			e.logger().Warn("release source", "error", err)
		}
	}
}

// ListSourceProjects lists the projects held by the source at path.
func (e Engine) ListSourceProjects(ctx context.Context, path string) ([]domain.SourceProject, error) {
	src, err := e.OpenSource(path)
	if err != nil {
		return nil, err
	}
	defer e.release(src)
	return mpd.ListProjects(ctx, src)
}

// ImportOptions are parameters for an import run.
type ImportOptions struct {
	Source                 string
	ProjectID              int
	PreserveNoteFormatting *bool
	ActorID                string
	Listeners              []domain.Listener
}

// ImportResult is a recorded run and, when it succeeded, the imported project.
type ImportResult struct {
	Run     domain.ImportRun
	Project *domain.Project
}

// Import reads one project from a source and records the run. A run that
// fails while reading is still recorded, with status failed, and its error
// is returned alongside the result.
func (e Engine) Import(ctx context.Context, opts ImportOptions) (ImportResult, error) {
	path, err := e.sourcePath(opts.Source)
	if err != nil {
		return ImportResult{}, err
	}
	src, err := e.OpenSource(path)
	if err != nil {
		return ImportResult{}, err
	}
	override := opts.ProjectID
	if override == 0 && e.Config != nil {
		override = e.Config.Source.ProjectID
	}
	projectID, err := app.ResolveProjectID(ctx, override, app.ListerFunc(func(ctx context.Context) ([]domain.SourceProject, error) {
		return mpd.ListProjects(ctx, src)
	}))
	if err != nil {
		e.release(src)
		return ImportResult{}, err
	}

	actorID := opts.ActorID
	if actorID == "" {
		actorID = "local-user"
	}
	run := domain.ImportRun{
		ID:         uuid.NewString(),
		Source:     path,
		SourceKind: SourceKind(path),
		ProjectID:  projectID,
		Status:     StatusRunning,
		ActorID:    actorID,
		StartedAt:  e.now().UTC().Format(time.RFC3339),
	}
	if err := e.begin(ctx, run); err != nil {
		e.release(src)
		return ImportResult{}, err
	}

	cfg := mpd.ReaderConfig{
		ProjectID: projectID,
		Logger:    e.logger(),
		Listeners: opts.Listeners,
	}
	if e.Config != nil {
		cfg.PreserveNoteFormatting = e.Config.Import.PreserveNoteFormatting
	}
	if opts.PreserveNoteFormatting != nil {
		cfg.PreserveNoteFormatting = *opts.PreserveNoteFormatting
	}
	recorder := &events.Recorder{}
	if e.Config == nil || e.Config.Import.RecordEvents {
		cfg.Listeners = append([]domain.Listener{recorder}, cfg.Listeners...)
	}

	e.logger().Info("import started", "import_id", run.ID, "source", path, "project_id", projectID)
	project, readErr := mpd.NewReader(cfg).Read(ctx, src)

	finished := e.now().UTC().Format(time.RFC3339)
	run.FinishedAt = &finished
	if readErr != nil {
		run.Status = StatusFailed
		run.Error = readErr.Error()
		// the partial event log of a failed read is kept
	} else {
		run.Status = StatusSucceeded
		run.Counts = domain.CountProject(project)
		if project.Properties.Name != nil {
			run.ProjectName = *project.Properties.Name
		}
	}
	if err := e.finish(ctx, run, recorder); err != nil {
		return ImportResult{Run: run, Project: project}, fmt.Errorf("record import %s: %w", run.ID, err)
	}
	if readErr != nil {
		e.logger().Error("import failed", "import_id", run.ID, "error", readErr)
		return ImportResult{Run: run}, readErr
	}
	e.logger().Info("import finished", "import_id", run.ID, "tasks", run.Counts.Tasks, "resources", run.Counts.Resources)
	return ImportResult{Run: run, Project: project}, nil
}

func (e Engine) begin(ctx context.Context, run domain.ImportRun) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertImport(ctx, tx, run); err != nil {
		return fmt.Errorf("insert import: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "import.started", run.ID, "import", run.ID, events.EventPayload{
		"source":     run.Source,
		"project_id": run.ProjectID,
		"actor_id":   run.ActorID,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

func (e Engine) finish(ctx context.Context, run domain.ImportRun, recorder *events.Recorder) error {
	// the caller's context may already be cancelled when the read failed on it
	ctx = context.WithoutCancel(ctx)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := recorder.Flush(ctx, tx, e.Events, run.ID); err != nil {
		return fmt.Errorf("append entity events: %w", err)
	}
	if err := e.Repo.FinishImport(ctx, tx, run); err != nil {
		return fmt.Errorf("finish import: %w", err)
	}
	payload := events.EventPayload{"status": run.Status, "counts": run.Counts}
	if run.Error != "" {
		payload["error"] = run.Error
	}
	if err := e.Events.Append(ctx, tx, "import."+run.Status, run.ID, "import", run.ID, payload); err != nil {
		return err
	}
	return tx.Commit()
}

// ExportSnapshot writes one project of the source at path as a snapshot document.
func (e Engine) ExportSnapshot(ctx context.Context, path string, projectID int, w io.Writer) error {
	src, err := e.OpenSource(path)
	if err != nil {
		return err
	}
	defer e.release(src)
	projectID, err = app.ResolveProjectID(ctx, projectID, app.ListerFunc(func(ctx context.Context) ([]domain.SourceProject, error) {
		return mpd.ListProjects(ctx, src)
	}))
	if err != nil {
		return err
	}
	return mpd.ExportSnapshot(ctx, src, projectID, w)
}

func (e Engine) ListImports(ctx context.Context, f repo.ImportFilters) ([]domain.ImportRun, error) {
	return e.Repo.ListImports(ctx, f)
}

func (e Engine) GetImport(ctx context.Context, id string) (domain.ImportRun, error) {
	return e.Repo.GetImport(ctx, id)
}

// ImportEvents returns the event log of one run.
func (e Engine) ImportEvents(ctx context.Context, f repo.EventFilters) ([]domain.ImportEvent, error) {
	if _, err := e.Repo.GetImport(ctx, f.ImportID); err != nil {
		return nil, err
	}
	return e.Repo.ListImportEvents(ctx, f)
}

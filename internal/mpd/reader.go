package mpd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mpdimport/internal/domain"
)

// ErrReadFailed wraps every error that aborts an import session.
var ErrReadFailed = errors.New("read failed")

// ReaderConfig selects the project to read and how notes are treated.
type ReaderConfig struct {
	ProjectID              int
	PreserveNoteFormatting bool
	Logger                 *slog.Logger
	Listeners              []domain.Listener
}

type phase int

const (
	phaseEmpty phase = iota
	phaseProperties
	phaseCalendars
	phaseCalendarHours
	phaseResources
	phaseResourceBaselines
	phaseTasks
	phaseTaskBaselines
	phaseLinks
	phaseAssignments
	phaseAssignmentBaselines
	phaseExtendedAttributes
	phaseSubProjects
	phaseResolving
	phaseFinalized
)

var phaseNames = [...]string{
	phaseEmpty:               "empty",
	phaseProperties:          "properties",
	phaseCalendars:           "calendars",
	phaseCalendarHours:       "calendar-hours",
	phaseResources:           "resources",
	phaseResourceBaselines:   "resource-baselines",
	phaseTasks:               "tasks",
	phaseTaskBaselines:       "task-baselines",
	phaseLinks:               "links",
	phaseAssignments:         "assignments",
	phaseAssignmentBaselines: "assignment-baselines",
	phaseExtendedAttributes:  "extended-attributes",
	phaseSubProjects:         "subprojects",
	phaseResolving:           "resolving",
	phaseFinalized:           "finalized",
}

func (p phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

type baseRef struct {
	calendar *domain.Calendar
	baseID   int
}

// Reader imports one project from a Source per call to Read. It keeps
// session state between phases and is not safe for concurrent use.
type Reader struct {
	cfg    ReaderConfig
	logger *slog.Logger

	phase   phase
	project *domain.Project
	events  domain.EventManager

	calendars         map[int]*domain.Calendar
	resourceCalendars map[int]*domain.Calendar
	assignments       map[int]*domain.Assignment
	baseRefs          []baseRef
	autoWBS           bool

	hasResourceBaselines   bool
	hasTaskBaselines       bool
	hasAssignmentBaselines bool
}

func NewReader(cfg ReaderConfig) *Reader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reader{cfg: cfg, logger: logger}
	r.Reset()
	return r
}

// Reset discards everything built by a previous session.
func (r *Reader) Reset() {
	r.phase = phaseEmpty
	r.project = nil
	r.calendars = map[int]*domain.Calendar{}
	r.resourceCalendars = map[int]*domain.Calendar{}
	r.assignments = map[int]*domain.Assignment{}
	r.baseRefs = nil
	r.autoWBS = true
	r.hasResourceBaselines = false
	r.hasTaskBaselines = false
	r.hasAssignmentBaselines = false
}

func (r *Reader) advance(next phase) error {
	if next != r.phase+1 {
		return fmt.Errorf("phase %s cannot follow %s", next, r.phase)
	}
	r.phase = next
	r.logger.Debug("import phase", "project_id", r.cfg.ProjectID, "phase", next.String())
	return nil
}

// Read imports the configured project from src. On failure the error wraps
// ErrReadFailed and no project is returned. Sources implementing Releaser are
// released before Read returns.
func (r *Reader) Read(ctx context.Context, src Source) (*domain.Project, error) {
	if rel, ok := src.(Releaser); ok {
		defer func() {
			if err := rel.Release(); err != nil {
				r.logger.Warn("release source", "error", err)
			}
		}()
	}
	r.Reset()
	defer r.Reset()

	r.project = domain.NewProject()
	r.project.DisableAutoNumbering()
	r.project.Properties.FileApplication = "Microsoft"
	r.project.Properties.FileType = "MPD"
	r.events = domain.EventManager{Listeners: r.cfg.Listeners, Logger: r.logger}
	r.probe(ctx, src)

	steps := []struct {
		phase phase
		run   func(context.Context, Source) error
	}{
		{phaseProperties, r.readProperties},
		{phaseCalendars, r.readCalendars},
		{phaseCalendarHours, r.readCalendarHours},
		{phaseResources, r.readResources},
		{phaseResourceBaselines, r.readResourceBaselines},
		{phaseTasks, r.readTasks},
		{phaseTaskBaselines, r.readTaskBaselines},
		{phaseLinks, r.readLinks},
		{phaseAssignments, r.readAssignments},
		{phaseAssignmentBaselines, r.readAssignmentBaselines},
		{phaseExtendedAttributes, r.readExtendedAttributes},
		{phaseSubProjects, r.readSubProjects},
		{phaseResolving, r.resolve},
		{phaseFinalized, r.finalize},
	}
	for _, step := range steps {
		if err := r.advance(step.phase); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}
		if err := step.run(ctx, src); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrReadFailed, step.phase, err)
		}
	}
	return r.project, nil
}

// probe checks for the optional baseline tables. A probe that fails counts
// as the table being absent.
func (r *Reader) probe(ctx context.Context, src Source) {
	has := func(table string) bool {
		ok, err := src.HasTable(ctx, table)
		if err != nil {
			r.logger.Debug("table probe failed", "table", table, "error", err)
			return false
		}
		return ok
	}
	r.hasResourceBaselines = has(TableResourceBaselines)
	r.hasTaskBaselines = has(TableTaskBaselines)
	r.hasAssignmentBaselines = has(TableAssignmentBaselines)
}

func (r *Reader) rows(ctx context.Context, src Source, table string, filters ...Filter) ([]Row, error) {
	q := Query{Table: table, Filters: append([]Filter{{Column: "PROJ_ID", Value: r.cfg.ProjectID}}, filters...)}
	return src.Rows(ctx, q)
}

// each applies fn to every row of table and stops at the first error.
func (r *Reader) each(ctx context.Context, src Source, table string, fn func(Row) error, filters ...Filter) error {
	rows, err := r.rows(ctx, src, table, filters...)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := fn(row); err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
	}
	return nil
}

func (r *Reader) resolve(context.Context, Source) error {
	for _, ref := range r.baseRefs {
		base := r.calendars[ref.baseID]
		if base == nil || base == ref.calendar {
			r.logger.Debug("unresolved base calendar", "calendar", ref.calendar.UniqueID, "base", ref.baseID)
			continue
		}
		ref.calendar.Parent = base
	}
	return nil
}

func (r *Reader) finalize(context.Context, Source) error {
	cfg := &r.project.Config
	cfg.AutoWBS = r.autoWBS
	cfg.AutoOutlineNumber = true
	r.project.UpdateStructure()
	cfg.AutoOutlineNumber = false

	for _, t := range r.project.Tasks {
		t.Summary = t.HasChildTasks()
	}
	r.project.UpdateUniqueCounters()
	return nil
}

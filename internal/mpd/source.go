package mpd

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"mpdimport/internal/domain"
)

// Filter is one equality predicate on a column.
type Filter struct {
	Column string
	Value  any
}

// Query selects every column of Table for rows matching all Filters.
type Query struct {
	Table   string
	Filters []Filter
}

func (q Query) validate() error {
	if !identifier.MatchString(q.Table) {
		return fmt.Errorf("invalid table name %q", q.Table)
	}
	for _, f := range q.Filters {
		if !identifier.MatchString(f.Column) {
			return fmt.Errorf("invalid column name %q", f.Column)
		}
	}
	return nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Source produces the records of an MPD schema.
type Source interface {
	// Rows drains every record matching q.
	Rows(ctx context.Context, q Query) ([]Row, error)
	// HasTable reports whether the named table exists.
	HasTable(ctx context.Context, name string) (bool, error)
}

// Releaser is implemented by sources that hold resources for one session.
type Releaser interface {
	Release() error
}

// Schema table names.
const (
	TableProjects            = "MSP_PROJECTS"
	TableCalendars           = "MSP_CALENDARS"
	TableCalendarData        = "MSP_CALENDAR_DATA"
	TableResources           = "MSP_RESOURCES"
	TableResourceBaselines   = "MSP_RESOURCE_BASELINES"
	TableTasks               = "MSP_TASKS"
	TableTaskBaselines       = "MSP_TASK_BASELINES"
	TableLinks               = "MSP_LINKS"
	TableAssignments         = "MSP_ASSIGNMENTS"
	TableAssignmentBaselines = "MSP_ASSIGNMENT_BASELINES"
	TableTextFields          = "MSP_TEXT_FIELDS"
	TableNumberFields        = "MSP_NUMBER_FIELDS"
	TableFlagFields          = "MSP_FLAG_FIELDS"
	TableDurationFields      = "MSP_DURATION_FIELDS"
	TableDateFields          = "MSP_DATE_FIELDS"
	TableCodeFields          = "MSP_CODE_FIELDS"
	TableOutlineCodes        = "MSP_OUTLINE_CODES"
)

// Tables lists every table the reader may query, in read order.
var Tables = []string{
	TableProjects,
	TableCalendars,
	TableCalendarData,
	TableResources,
	TableResourceBaselines,
	TableTasks,
	TableTaskBaselines,
	TableLinks,
	TableAssignments,
	TableAssignmentBaselines,
	TableTextFields,
	TableNumberFields,
	TableFlagFields,
	TableDurationFields,
	TableDateFields,
	TableCodeFields,
	TableOutlineCodes,
}

// ListProjects returns the projects held by src ordered by id.
func ListProjects(ctx context.Context, src Source) ([]domain.SourceProject, error) {
	rows, err := src.Rows(ctx, Query{Table: TableProjects})
	if err != nil {
		return nil, fmt.Errorf("%w: list projects: %w", ErrReadFailed, err)
	}
	var out []domain.SourceProject
	for _, row := range rows {
		id := row.Integer("PROJ_ID")
		name := row.String("PROJ_NAME")
		if err := row.Err(); err != nil {
			return nil, fmt.Errorf("%w: list projects: %w", ErrReadFailed, err)
		}
		if id == nil {
			continue
		}
		p := domain.SourceProject{ID: *id}
		if name != nil {
			p.Name = *name
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

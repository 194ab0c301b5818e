package mpd_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpdimport/internal/domain"
	"mpdimport/internal/mpd"
	"mpdimport/internal/msp/msptest"
)

func readProject(t *testing.T, src mpd.Source, cfg mpd.ReaderConfig) *domain.Project {
	t.Helper()
	if cfg.ProjectID == 0 {
		cfg.ProjectID = 1
	}
	project, err := mpd.NewReader(cfg).Read(context.Background(), src)
	require.NoError(t, err)
	require.NotNil(t, project)
	return project
}

func taskByName(t *testing.T, p *domain.Project, name string) *domain.Task {
	t.Helper()
	for _, task := range p.Tasks {
		if task.Name != nil && *task.Name == name {
			return task
		}
	}
	t.Fatalf("task %q not found", name)
	return nil
}

func calendar(t *testing.T, p *domain.Project, uid int) *domain.Calendar {
	t.Helper()
	c := p.CalendarByUniqueID(&uid)
	require.NotNil(t, c, "calendar %d", uid)
	return c
}

func TestReadProperties(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})

	props := p.Properties
	require.NotNil(t, props.Name)
	assert.Equal(t, "Bridge", *props.Name)
	assert.Equal(t, "Bridge rebuild", *props.Title)
	assert.Equal(t, "Microsoft", props.FileApplication)
	assert.Equal(t, "MPD", props.FileType)
	assert.Equal(t, "$", *props.CurrencySymbol)
	assert.Equal(t, domain.SymbolAfter, props.SymbolPosition)
	assert.Equal(t, 2, *props.CurrencyDigits)
	assert.Equal(t, domain.Days, props.DefaultDurationUnits)
	assert.Equal(t, domain.Hours, props.DefaultWorkUnits)
	assert.Equal(t, 480, props.MinutesPerDay)
	assert.Equal(t, domain.Rate{Amount: 25, Units: domain.Hours}, props.DefaultStandardRate)
	assert.Equal(t, domain.ScheduleFromStart, props.ScheduleFrom)
	assert.Equal(t, domain.Monday, props.WeekStartDay)
	assert.True(t, props.HonorConstraints)
	require.NotNil(t, props.StartDate)
	assert.True(t, props.StartDate.Equal(day(4)))
}

func TestReadCalendars(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})

	require.Len(t, p.Calendars, 3, "placeholder calendar 0 is skipped")

	standard := calendar(t, p, 1)
	assert.True(t, standard.Base)
	assert.Equal(t, "Standard", *standard.Name)
	assert.Nil(t, standard.Parent)

	derived := calendar(t, p, 2)
	assert.False(t, derived.Base)
	assert.Nil(t, derived.Name)
	assert.Equal(t, 1, *derived.ResourceUniqueID)
	assert.Equal(t, 1, *derived.BaseUniqueID)
	assert.Same(t, standard, derived.Parent, "base read after the derived calendar still resolves")
	assert.Same(t, standard, derived.Root())

	dangling := calendar(t, p, 3)
	assert.Equal(t, 99, *dangling.BaseUniqueID)
	assert.Nil(t, dangling.Parent)
}

func TestReadCalendarHours(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})
	standard := calendar(t, p, 1)

	assert.Equal(t, domain.Working, standard.DayType(domain.Monday))
	assert.Equal(t, domain.NonWorking, standard.DayType(domain.Sunday))
	assert.Equal(t, domain.DefaultDay, standard.DayType(domain.Tuesday), "rows from project 2 are not read")

	monday := standard.Hours[domain.Monday]
	require.Len(t, monday, 2, "a range with only one end is dropped")
	assert.Equal(t, 8, monday[0].Start.UTC().Hour())
	assert.Equal(t, 12, monday[0].End.UTC().Hour())
	assert.Equal(t, 13, monday[1].Start.UTC().Hour())
	assert.Equal(t, 17, monday[1].End.UTC().Hour())
	assert.Empty(t, standard.Hours[domain.Sunday])

	require.Len(t, standard.Exceptions, 1)
	ex := standard.Exceptions[0]
	assert.True(t, ex.Working)
	assert.True(t, ex.From.Equal(day(16)))
	assert.True(t, ex.To.Equal(day(17)))
	require.Len(t, ex.Ranges, 1)
	assert.Equal(t, 9, ex.Ranges[0].Start.UTC().Hour())

	assert.Empty(t, calendar(t, p, 2).Days)
}

func TestReadResources(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})

	require.Len(t, p.Resources, 1, "negative unique ids are skipped")
	crane := p.Resources[0]
	assert.Equal(t, 1, crane.UniqueID)
	assert.Equal(t, "Crane", *crane.Name)
	assert.Equal(t, domain.ResourceWork, crane.Type)
	assert.Equal(t, "Heavy lift", *crane.Notes)
	assert.Equal(t, 100.0, crane.MaxUnits)
	assert.Equal(t, 150.0, crane.PeakUnits)
	assert.True(t, crane.OverAllocated)
	assert.Nil(t, crane.Objects)
	assert.Equal(t, domain.Rate{Amount: 80, Units: domain.Hours}, crane.StandardRate)
	assert.Equal(t, domain.Hours, crane.StandardRateUnits)

	require.NotNil(t, crane.Cost)
	assert.Equal(t, 0.0, *crane.Cost, "null cost reads as zero")
	assert.Equal(t, 100.0, *crane.BaselineCost)
	assert.Equal(t, -100.0, *crane.CostVariance)
	assert.Equal(t, domain.Duration{Value: 16, Units: domain.Hours}, *crane.Work)
	assert.Equal(t, domain.Duration{Value: 8, Units: domain.Hours}, *crane.WorkVariance)

	assert.Same(t, calendar(t, p, 2), crane.Calendar, "falls back to the calendar naming the resource")

	base := crane.Baselines[0]
	require.NotNil(t, base.Work)
	assert.Equal(t, 8.0, base.Work.Value)
	require.Len(t, crane.Assignments, 1)
}

func TestReadTasks(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})

	require.Len(t, p.Tasks, 4)
	design := taskByName(t, p, "Design")
	assert.Equal(t, "Check load limits", *design.Notes)
	assert.Equal(t, domain.Duration{Value: 10, Units: domain.Days}, *design.Duration)
	assert.Equal(t, domain.Duration{Value: 1, Units: domain.Days}, *design.FreeSlack)
	assert.Equal(t, 5000.0, *design.Cost)
	assert.Equal(t, 1000.0, *design.CostVariance)
	assert.Equal(t, domain.PriorityHigher, design.Priority)
	assert.Same(t, calendar(t, p, 1), design.Calendar)
	assert.True(t, design.Expanded)
	assert.False(t, design.Null)

	build := taskByName(t, p, "Build")
	assert.False(t, build.Expanded)
	assert.Equal(t, domain.Duration{Value: 16, Units: domain.Hours}, *build.Duration)

	var placeholder *domain.Task
	for _, task := range p.Tasks {
		if task.UniqueID == 3 {
			placeholder = task
		}
	}
	require.NotNil(t, placeholder)
	assert.True(t, placeholder.Null)

	for _, task := range p.Tasks {
		for i := 0; i < 10; i++ {
			require.NotNil(t, task.Attributes.Flag[i], "flag %d of task %d", i+1, task.UniqueID)
		}
	}
}

func TestReadTaskBaselines(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})

	design := taskByName(t, p, "Design")
	b := design.Baselines[1]
	require.NotNil(t, b.Duration)
	assert.Equal(t, domain.Duration{Value: 2, Units: domain.Days}, *b.Duration)
	assert.Equal(t, 100.0, *b.Cost)
	assert.True(t, b.Start.Equal(day(4)))
	for i, slot := range design.Baselines {
		if i == 1 {
			continue
		}
		assert.Nil(t, slot.Cost, "baseline %d", i)
	}
}

func TestReadStructure(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})

	design := taskByName(t, p, "Design")
	drawings := taskByName(t, p, "Drawings")
	build := taskByName(t, p, "Build")

	assert.Same(t, design, drawings.Parent)
	assert.True(t, design.Summary)
	assert.False(t, drawings.Summary)
	assert.False(t, build.Summary)

	assert.Equal(t, "1", *design.OutlineNumber)
	assert.Equal(t, "1.1", *drawings.OutlineNumber)
	assert.Equal(t, "3", *build.OutlineNumber)
	assert.True(t, p.Config.AutoWBS)
	assert.Equal(t, "1.1", *drawings.WBS)
	assert.False(t, p.Config.AutoOutlineNumber)

	assert.Equal(t, 5, p.Config.NextTaskUniqueID)
	assert.Equal(t, 4, p.Config.NextCalendarUniqueID)
	assert.Equal(t, 2, p.Config.NextResourceUniqueID)
	assert.Equal(t, 4, p.Config.NextAssignmentUniqueID)
	assert.Equal(t, 11, p.Config.NextRelationUniqueID)
}

func TestReadKeepsSourceWBS(t *testing.T) {
	db, _ := newFixtureDB(t)
	_, err := db.Exec(`UPDATE MSP_TASKS SET TASK_WBS='A' WHERE PROJ_ID=1 AND TASK_UID=1`)
	require.NoError(t, err)

	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})
	assert.False(t, p.Config.AutoWBS)
	assert.Equal(t, "A", *taskByName(t, p, "Design").WBS)
	assert.Nil(t, taskByName(t, p, "Build").WBS)
	assert.Equal(t, "3", *taskByName(t, p, "Build").OutlineNumber)
}

func TestReadLinks(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})

	require.Len(t, p.Relations, 1, "links to unknown tasks are skipped")
	rel := p.Relations[0]
	assert.Equal(t, 10, *rel.UniqueID)
	assert.Equal(t, domain.FinishStart, rel.Type)
	assert.Equal(t, domain.Duration{Value: 1, Units: domain.Days}, rel.Lag)
	assert.Same(t, taskByName(t, p, "Design"), rel.Predecessor)
	assert.Same(t, taskByName(t, p, "Build"), rel.Successor)
	assert.Len(t, rel.Successor.Predecessors, 1)
	assert.Len(t, rel.Predecessor.Successors, 1)
}

func TestReadAssignments(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})

	require.Len(t, p.Assignments, 2, "assignments to unknown tasks are skipped")
	first := p.Assignments[0]
	assert.Equal(t, 1, *first.UniqueID)
	assert.Equal(t, 100.0, first.Units)
	assert.Same(t, taskByName(t, p, "Design"), first.Task)
	assert.Same(t, p.Resources[0], first.Resource)
	assert.Equal(t, domain.Duration{Value: 2, Units: domain.Hours}, *first.Delay)
	assert.Equal(t, domain.Duration{Value: 1, Units: domain.Days}, *first.StartVariance)
	assert.Equal(t, 320.0, *first.Cost)
	assert.Equal(t, 25.0, *first.Baselines[2].Cost)

	unassigned := p.Assignments[1]
	assert.Equal(t, 3, *unassigned.UniqueID)
	assert.Nil(t, unassigned.Resource)
	assert.Equal(t, 50.0, unassigned.Units)
	assert.Same(t, taskByName(t, p, "Build"), unassigned.Task)
}

func TestReadExtendedAttributes(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})

	design := taskByName(t, p, "Design")
	drawings := taskByName(t, p, "Drawings")
	build := taskByName(t, p, "Build")

	assert.Equal(t, "north span", *design.Attributes.Text[4])
	assert.Equal(t, 123.45, *design.Attributes.Cost[0])
	assert.Equal(t, domain.Duration{Value: 2, Units: domain.Days}, *design.Attributes.Duration[0])
	assert.Equal(t, "EU", *design.Attributes.OutlineCode[0])
	assert.Equal(t, "Check load limits", *design.Notes, "notes are never overwritten by extended attributes")

	assert.Equal(t, 7.5, *drawings.Attributes.Number[0])
	assert.True(t, drawings.Attributes.Date[0].Equal(day(20)))

	assert.True(t, *build.Attributes.Flag[0])
	assert.False(t, *design.Attributes.Flag[0])

	assert.Equal(t, "yard 3", *p.Resources[0].Attributes.Text[0])
	assert.Equal(t, "night shift", *p.Assignments[0].Attributes.Text[0])
}

func TestReadSubProjects(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})

	require.Len(t, p.SubProjects, 1)
	sp := p.SubProjects[0]
	assert.Equal(t, `C:\plans\sub.mpp`, sp.FullPath)
	assert.Equal(t, "sub.mpp", sp.FileName)
	assert.Equal(t, 4, sp.TaskUniqueID)
	assert.Equal(t, 0x01400000, sp.UniqueIDOffset)
	assert.Same(t, sp, taskByName(t, p, "Build").SubProject)
}

func TestReadPreservesNoteFormatting(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{PreserveNoteFormatting: true})
	assert.Equal(t, `{\rtf1\ansi Heavy lift\par}`, *p.Resources[0].Notes)
}

func TestReadOtherProject(t *testing.T) {
	db, _ := newFixtureDB(t)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{ProjectID: 2})

	assert.Equal(t, "Other", *p.Properties.Name)
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, "Elsewhere", *p.Tasks[0].Name)
	require.Len(t, p.Calendars, 1)
	assert.Equal(t, domain.NonWorking, p.Calendars[0].DayType(domain.Tuesday))
	assert.Empty(t, p.Resources)
}

func TestReadIsRepeatable(t *testing.T) {
	db, _ := newFixtureDB(t)
	src := mpd.NewDBSource(db)
	reader := mpd.NewReader(mpd.ReaderConfig{ProjectID: 1})

	first, err := reader.Read(context.Background(), src)
	require.NoError(t, err)
	second, err := reader.Read(context.Background(), src)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
	assert.NotSame(t, first, second)
}

func TestReadMissingBaselineTables(t *testing.T) {
	db, _ := newFixtureDB(t, mpd.TableTaskBaselines, mpd.TableResourceBaselines, mpd.TableAssignmentBaselines)
	p := readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{})

	design := taskByName(t, p, "Design")
	assert.Nil(t, design.Baselines[1].Cost)
	assert.Nil(t, p.Resources[0].Baselines[0].Work)
	assert.Len(t, p.Tasks, 4)
}

type probeFailSource struct {
	mpd.Source
	queried map[string]int
}

func (s *probeFailSource) HasTable(ctx context.Context, name string) (bool, error) {
	return false, errors.New("catalog unavailable")
}

func (s *probeFailSource) Rows(ctx context.Context, q mpd.Query) ([]mpd.Row, error) {
	s.queried[q.Table]++
	return s.Source.Rows(ctx, q)
}

func TestReadProbeFailureMeansAbsent(t *testing.T) {
	db, _ := newFixtureDB(t)
	src := &probeFailSource{Source: mpd.NewDBSource(db), queried: map[string]int{}}
	p := readProject(t, src, mpd.ReaderConfig{})

	assert.Zero(t, src.queried[mpd.TableTaskBaselines])
	assert.Zero(t, src.queried[mpd.TableResourceBaselines])
	assert.Zero(t, src.queried[mpd.TableAssignmentBaselines])
	assert.Equal(t, 3, src.queried[mpd.TableCalendarData], "calendar data is read once per calendar")
	assert.Nil(t, taskByName(t, p, "Design").Baselines[1].Cost)
}

func TestReadUnknownColumnFails(t *testing.T) {
	db, _ := newFixtureDB(t, mpd.TableLinks)
	_, err := db.Exec(`CREATE TABLE MSP_LINKS (PROJ_ID INTEGER, LINK_UID INTEGER, LINK_PRED_UID INTEGER, LINK_SUCC_UID INTEGER, LINK_TYPE SMALLINT, LINK_LAG_FMT SMALLINT)`)
	require.NoError(t, err)
	insert(t, db, "MSP_LINKS", record{"PROJ_ID": 1, "LINK_UID": 1, "LINK_PRED_UID": 1, "LINK_SUCC_UID": 4})

	p, err := mpd.NewReader(mpd.ReaderConfig{ProjectID: 1}).Read(context.Background(), mpd.NewDBSource(db))
	require.Error(t, err)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, mpd.ErrReadFailed)
	assert.ErrorIs(t, err, mpd.ErrUnknownColumn)
	assert.Contains(t, err.Error(), "links")
}

func TestReadUnsupportedColumnTypeFails(t *testing.T) {
	db, _ := newFixtureDB(t, mpd.TableLinks)
	_, err := db.Exec(`CREATE TABLE MSP_LINKS (PROJ_ID INTEGER, LINK_UID INTEGER, LINK_PRED_UID INTEGER, LINK_SUCC_UID INTEGER, LINK_TYPE SMALLINT, LINK_LAG_FMT SMALLINT, LINK_LAG GEOMETRY)`)
	require.NoError(t, err)
	insert(t, db, "MSP_LINKS", record{"PROJ_ID": 1, "LINK_UID": 1, "LINK_PRED_UID": 1, "LINK_SUCC_UID": 4})

	_, err = mpd.NewReader(mpd.ReaderConfig{ProjectID: 1}).Read(context.Background(), mpd.NewDBSource(db))
	assert.ErrorIs(t, err, mpd.ErrReadFailed)
	assert.ErrorIs(t, err, mpd.ErrUnsupportedType)
}

func TestReadReleasesOwnedSource(t *testing.T) {
	_, path := newFixtureDB(t)
	src, err := mpd.OpenDB(path)
	require.NoError(t, err)
	require.True(t, src.Owned())

	readProject(t, src, mpd.ReaderConfig{})

	_, err = src.Rows(context.Background(), mpd.Query{Table: mpd.TableProjects})
	assert.Error(t, err)
}

func TestReadLeavesExternalConnectionOpen(t *testing.T) {
	db, _ := newFixtureDB(t)
	src := mpd.NewDBSource(db)
	readProject(t, src, mpd.ReaderConfig{})
	assert.NoError(t, db.Ping())
	assert.Same(t, db, src.DB())
}

type recordingListener struct {
	calendars, resources, tasks, relations, assignments int
}

func (l *recordingListener) CalendarRead(*domain.Calendar) error { l.calendars++; return nil }
func (l *recordingListener) ResourceRead(*domain.Resource) error { l.resources++; return nil }
func (l *recordingListener) TaskRead(*domain.Task) error {
	l.tasks++
	return errors.New("listener rejected task")
}
func (l *recordingListener) RelationRead(*domain.Relation) error     { l.relations++; return nil }
func (l *recordingListener) AssignmentRead(*domain.Assignment) error { l.assignments++; return nil }

func TestReadNotifiesListeners(t *testing.T) {
	db, _ := newFixtureDB(t)
	l := &recordingListener{}
	readProject(t, mpd.NewDBSource(db), mpd.ReaderConfig{Listeners: []domain.Listener{l}})

	assert.Equal(t, 3, l.calendars)
	assert.Equal(t, 1, l.resources)
	assert.Equal(t, 4, l.tasks, "a failing listener does not stop the import")
	assert.Equal(t, 1, l.relations)
	assert.Equal(t, 2, l.assignments)
}

func TestListProjects(t *testing.T) {
	db, _ := newFixtureDB(t)
	projects, err := mpd.ListProjects(context.Background(), mpd.NewDBSource(db))
	require.NoError(t, err)
	assert.Equal(t, []domain.SourceProject{{ID: 1, Name: "Bridge"}, {ID: 2, Name: "Other"}}, projects)
}

func TestSnapshotMatchesDatabase(t *testing.T) {
	db, _ := newFixtureDB(t)
	src := mpd.NewDBSource(db)

	var buf bytes.Buffer
	require.NoError(t, mpd.ExportSnapshot(context.Background(), src, 1, &buf))
	snap, err := mpd.LoadSnapshot(&buf)
	require.NoError(t, err)

	fromDB := readProject(t, src, mpd.ReaderConfig{})
	fromSnapshot := readProject(t, snap, mpd.ReaderConfig{})

	a, err := json.Marshal(fromDB)
	require.NoError(t, err)
	b, err := json.Marshal(fromSnapshot)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestSnapshotExportsOneProject(t *testing.T) {
	db, _ := newFixtureDB(t)
	var buf bytes.Buffer
	require.NoError(t, mpd.ExportSnapshot(context.Background(), mpd.NewDBSource(db), 2, &buf))
	snap, err := mpd.LoadSnapshot(&buf)
	require.NoError(t, err)

	rows, err := snap.Rows(context.Background(), mpd.Query{Table: mpd.TableTasks})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Elsewhere", *rows[0].String("TASK_NAME"))

	codes, err := snap.Rows(context.Background(), mpd.Query{Table: mpd.TableOutlineCodes})
	require.NoError(t, err)
	assert.Empty(t, codes)
}

var _ mpd.Source = (*mpd.DBSource)(nil)
var _ mpd.Releaser = (*mpd.DBSource)(nil)

func TestReadTaskWithOneDateIsNotPlaceholder(t *testing.T) {
	path := msptest.NewDB(t, func(db *sql.DB) {
		msptest.Bridge(t)(db)
		insert(t, db, "MSP_TASKS", record{"PROJ_ID": 1, "TASK_UID": 10, "TASK_ID": 10, "TASK_START_DATE": day(4)})
		insert(t, db, "MSP_TASKS", record{"PROJ_ID": 1, "TASK_UID": 11, "TASK_ID": 11, "TASK_FINISH_DATE": day(8)})
		insert(t, db, "MSP_TASKS", record{"PROJ_ID": 1, "TASK_UID": 12, "TASK_ID": 12})
	})
	src, err := mpd.OpenDB(path)
	require.NoError(t, err)
	p := readProject(t, src, mpd.ReaderConfig{})

	tests := []struct {
		name string
		uid  int
		null bool
	}{
		{"start only", 10, false},
		{"finish only", 11, false},
		{"no name or dates", 12, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var task *domain.Task
			for _, candidate := range p.Tasks {
				if candidate.UniqueID == tt.uid {
					task = candidate
				}
			}
			require.NotNil(t, task)
			assert.Nil(t, task.Name)
			assert.Equal(t, tt.null, task.Null)
		})
	}
}

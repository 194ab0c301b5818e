package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Properties are the schedule-wide settings of a project.
type Properties struct {
	Name                          *string                `json:"name,omitempty"`
	Title                         *string                `json:"title,omitempty"`
	Subject                       *string                `json:"subject,omitempty"`
	Author                        *string                `json:"author,omitempty"`
	Company                       *string                `json:"company,omitempty"`
	Manager                       *string                `json:"manager,omitempty"`
	Keywords                      *string                `json:"keywords,omitempty"`
	Category                      *string                `json:"category,omitempty"`
	FileApplication               string                 `json:"file_application"`
	FileType                      string                 `json:"file_type"`
	CurrencySymbol                *string                `json:"currency_symbol,omitempty"`
	SymbolPosition                CurrencySymbolPosition `json:"symbol_position"`
	CurrencyDigits                *int                   `json:"currency_digits,omitempty"`
	DefaultDurationUnits          TimeUnit               `json:"default_duration_units"`
	DefaultWorkUnits              TimeUnit               `json:"default_work_units"`
	MinutesPerDay                 int                    `json:"minutes_per_day"`
	MinutesPerWeek                int                    `json:"minutes_per_week"`
	DaysPerMonth                  int                    `json:"days_per_month"`
	DefaultStandardRate           Rate                   `json:"default_standard_rate"`
	DefaultOvertimeRate           Rate                   `json:"default_overtime_rate"`
	DefaultStartTime              *time.Time             `json:"default_start_time,omitempty"`
	DefaultEndTime                *time.Time             `json:"default_end_time,omitempty"`
	DefaultCalendarName           *string                `json:"default_calendar_name,omitempty"`
	DefaultTaskType               TaskType               `json:"default_task_type"`
	DefaultFixedCostAccrual       AccrueType             `json:"default_fixed_cost_accrual"`
	StartDate                     *time.Time             `json:"start_date,omitempty"`
	FinishDate                    *time.Time             `json:"finish_date,omitempty"`
	CurrentDate                   *time.Time             `json:"current_date,omitempty"`
	StatusDate                    *time.Time             `json:"status_date,omitempty"`
	CreationDate                  *time.Time             `json:"creation_date,omitempty"`
	LastSaved                     *time.Time             `json:"last_saved,omitempty"`
	ScheduleFrom                  ScheduleFrom           `json:"schedule_from"`
	WeekStartDay                  Day                    `json:"week_start_day"`
	FiscalYearStart               bool                   `json:"fiscal_year_start"`
	FiscalYearStartMonth          *int                   `json:"fiscal_year_start_month,omitempty"`
	CriticalSlackLimit            *int                   `json:"critical_slack_limit,omitempty"`
	UpdatingTaskStatusUpdatesRes  bool                   `json:"updating_task_status_updates_resource_status"`
	SplitInProgressTasks          bool                   `json:"split_in_progress_tasks"`
	ExternallyEdited              bool                   `json:"externally_edited"`
	NewTasksEstimated             bool                   `json:"new_tasks_estimated"`
	NewTasksEffortDriven          bool                   `json:"new_tasks_effort_driven"`
	SpreadActualCost              bool                   `json:"spread_actual_cost"`
	SpreadPercentComplete         bool                   `json:"spread_percent_complete"`
	MultipleCriticalPaths         bool                   `json:"multiple_critical_paths"`
	HonorConstraints              bool                   `json:"honor_constraints"`
}

// Config holds the automatic numbering switches and the next free unique ids.
type Config struct {
	AutoWBS                bool `json:"auto_wbs"`
	AutoOutlineLevel       bool `json:"auto_outline_level"`
	AutoOutlineNumber      bool `json:"auto_outline_number"`
	AutoTaskID             bool `json:"auto_task_id"`
	AutoTaskUniqueID       bool `json:"auto_task_unique_id"`
	AutoResourceID         bool `json:"auto_resource_id"`
	AutoResourceUniqueID   bool `json:"auto_resource_unique_id"`
	AutoCalendarUniqueID   bool `json:"auto_calendar_unique_id"`
	AutoAssignmentUniqueID bool `json:"auto_assignment_unique_id"`

	NextTaskUniqueID       int `json:"next_task_unique_id"`
	NextResourceUniqueID   int `json:"next_resource_unique_id"`
	NextCalendarUniqueID   int `json:"next_calendar_unique_id"`
	NextAssignmentUniqueID int `json:"next_assignment_unique_id"`
	NextRelationUniqueID   int `json:"next_relation_unique_id"`
}

// Project is the in-memory schedule produced by an import.
type Project struct {
	Properties  Properties    `json:"properties"`
	Config      Config        `json:"config"`
	Calendars   []*Calendar   `json:"calendars"`
	Resources   []*Resource   `json:"resources"`
	Tasks       []*Task       `json:"tasks"`
	Relations   []*Relation   `json:"relations"`
	Assignments []*Assignment `json:"assignments"`
	SubProjects []*SubProject `json:"subprojects,omitempty"`

	calendarsByUID map[int]*Calendar
	resourcesByUID map[int]*Resource
	tasksByUID     map[int]*Task
}

// NewProject returns an empty project with default working-time settings.
func NewProject() *Project {
	return &Project{
		Properties: Properties{
			MinutesPerDay:  480,
			MinutesPerWeek: 2400,
			DaysPerMonth:   20,
			WeekStartDay:   Monday,
		},
		Config: Config{
			AutoWBS:                true,
			AutoOutlineLevel:       true,
			AutoOutlineNumber:      true,
			AutoTaskID:             true,
			AutoTaskUniqueID:       true,
			AutoResourceID:         true,
			AutoResourceUniqueID:   true,
			AutoCalendarUniqueID:   true,
			AutoAssignmentUniqueID: true,
		},
		calendarsByUID: map[int]*Calendar{},
		resourcesByUID: map[int]*Resource{},
		tasksByUID:     map[int]*Task{},
	}
}

// DisableAutoNumbering turns off every automatic numbering switch.
func (p *Project) DisableAutoNumbering() {
	p.Config.AutoWBS = false
	p.Config.AutoOutlineLevel = false
	p.Config.AutoOutlineNumber = false
	p.Config.AutoTaskID = false
	p.Config.AutoTaskUniqueID = false
	p.Config.AutoResourceID = false
	p.Config.AutoResourceUniqueID = false
	p.Config.AutoCalendarUniqueID = false
	p.Config.AutoAssignmentUniqueID = false
}

func (p *Project) AddCalendar(c *Calendar) {
	p.Calendars = append(p.Calendars, c)
	p.calendarsByUID[c.UniqueID] = c
}

func (p *Project) AddResource(r *Resource) {
	p.Resources = append(p.Resources, r)
	p.resourcesByUID[r.UniqueID] = r
}

func (p *Project) AddTask(t *Task) {
	p.Tasks = append(p.Tasks, t)
	p.tasksByUID[t.UniqueID] = t
}

func (p *Project) AddRelation(r *Relation) {
	p.Relations = append(p.Relations, r)
}

func (p *Project) AddAssignment(a *Assignment) {
	p.Assignments = append(p.Assignments, a)
}

// CalendarByUniqueID returns nil for a nil or unknown id.
func (p *Project) CalendarByUniqueID(id *int) *Calendar {
	if id == nil {
		return nil
	}
	return p.calendarsByUID[*id]
}

func (p *Project) ResourceByUniqueID(id *int) *Resource {
	if id == nil {
		return nil
	}
	return p.resourcesByUID[*id]
}

func (p *Project) TaskByUniqueID(id *int) *Task {
	if id == nil {
		return nil
	}
	return p.tasksByUID[*id]
}

// ChildTasks returns the top-level tasks once UpdateStructure has run.
func (p *Project) ChildTasks() []*Task {
	var roots []*Task
	for _, t := range p.Tasks {
		if t.Parent == nil {
			roots = append(roots, t)
		}
	}
	return roots
}

// UpdateStructure orders tasks by display id and rebuilds the hierarchy from
// outline levels. Missing outline numbers and WBS codes are generated when the
// matching automatic switch is on.
func (p *Project) UpdateStructure() {
	sort.SliceStable(p.Tasks, func(i, j int) bool {
		return taskID(p.Tasks[i]) < taskID(p.Tasks[j])
	})
	for _, t := range p.Tasks {
		t.Parent = nil
		t.Children = nil
	}

	var stack []*Task
	for _, t := range p.Tasks {
		level := 1
		if t.OutlineLevel != nil && *t.OutlineLevel > 0 {
			level = *t.OutlineLevel
		}
		if len(stack) >= level {
			stack = stack[:level-1]
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			t.Parent = parent
			parent.Children = append(parent.Children, t)
		}
		stack = append(stack, t)
	}

	if p.Config.AutoOutlineNumber || p.Config.AutoWBS {
		p.numberTasks(p.ChildTasks(), "")
	}
}

func (p *Project) numberTasks(tasks []*Task, prefix string) {
	for i, t := range tasks {
		number := strconv.Itoa(i + 1)
		if prefix != "" {
			number = prefix + "." + number
		}
		if p.Config.AutoOutlineNumber && (t.OutlineNumber == nil || strings.TrimSpace(*t.OutlineNumber) == "") {
			n := number
			t.OutlineNumber = &n
		}
		if p.Config.AutoWBS && t.WBS == nil {
			n := number
			t.WBS = &n
		}
		p.numberTasks(t.Children, number)
	}
}

func taskID(t *Task) int {
	if t.ID == nil {
		return int(^uint(0) >> 1)
	}
	return *t.ID
}

// UpdateUniqueCounters sets every next-unique-id counter to one past the highest id in use.
func (p *Project) UpdateUniqueCounters() {
	next := func(ids []int) int {
		maxID := 0
		for _, id := range ids {
			if id > maxID {
				maxID = id
			}
		}
		return maxID + 1
	}
	var cal, res, task, asg, rel []int
	for _, c := range p.Calendars {
		cal = append(cal, c.UniqueID)
	}
	for _, r := range p.Resources {
		res = append(res, r.UniqueID)
	}
	for _, t := range p.Tasks {
		task = append(task, t.UniqueID)
	}
	for _, a := range p.Assignments {
		if a.UniqueID != nil {
			asg = append(asg, *a.UniqueID)
		}
	}
	for _, r := range p.Relations {
		if r.UniqueID != nil {
			rel = append(rel, *r.UniqueID)
		}
	}
	p.Config.NextCalendarUniqueID = next(cal)
	p.Config.NextResourceUniqueID = next(res)
	p.Config.NextTaskUniqueID = next(task)
	p.Config.NextAssignmentUniqueID = next(asg)
	p.Config.NextRelationUniqueID = next(rel)
}

package domain

import "time"

// Baseline is one numbered snapshot of schedule and cost values.
type Baseline struct {
	Start    *time.Time `json:"start,omitempty"`
	Finish   *time.Time `json:"finish,omitempty"`
	Duration *Duration  `json:"duration,omitempty"`
	Work     *Duration  `json:"work,omitempty"`
	Cost     *float64   `json:"cost,omitempty"`
}

// BaselineCount is the number of baseline slots: the unnumbered baseline (0) plus 1..10.
const BaselineCount = 11

// Baselines is indexed by baseline number.
type Baselines [BaselineCount]Baseline

// Slot returns the baseline for number n, or nil when n is out of range.
func (b *Baselines) Slot(n int) *Baseline {
	if n < 0 || n >= BaselineCount {
		return nil
	}
	return &b[n]
}

type Resource struct {
	UniqueID              int                `json:"unique_id"`
	ID                    *int               `json:"id,omitempty"`
	Name                  *string            `json:"name,omitempty"`
	Initials              *string            `json:"initials,omitempty"`
	Phonetics             *string            `json:"phonetics,omitempty"`
	MaterialLabel         *string            `json:"material_label,omitempty"`
	Type                  ResourceType       `json:"type"`
	Notes                 *string            `json:"notes,omitempty"`
	AccrueAt              AccrueType         `json:"accrue_at"`
	WorkGroup             WorkGroup          `json:"work_group"`
	CanLevel              bool               `json:"can_level"`
	OverAllocated         bool               `json:"over_allocated"`
	AvailableFrom         *time.Time         `json:"available_from,omitempty"`
	AvailableTo           *time.Time         `json:"available_to,omitempty"`
	MaxUnits              float64            `json:"max_units"`
	PeakUnits             float64            `json:"peak_units"`
	Objects               *int               `json:"objects,omitempty"`
	StandardRate          Rate               `json:"standard_rate"`
	StandardRateUnits     TimeUnit           `json:"standard_rate_units"`
	OvertimeRate          Rate               `json:"overtime_rate"`
	OvertimeRateUnits     TimeUnit           `json:"overtime_rate_units"`
	CostPerUse            *float64           `json:"cost_per_use,omitempty"`
	Cost                  *float64           `json:"cost,omitempty"`
	ActualCost            *float64           `json:"actual_cost,omitempty"`
	ActualOvertimeCost    *float64           `json:"actual_overtime_cost,omitempty"`
	BaselineCost          *float64           `json:"baseline_cost,omitempty"`
	RemainingCost         *float64           `json:"remaining_cost,omitempty"`
	RemainingOvertimeCost *float64           `json:"remaining_overtime_cost,omitempty"`
	OvertimeCost          *float64           `json:"overtime_cost,omitempty"`
	CostVariance          *float64           `json:"cost_variance,omitempty"`
	ACWP                  *float64           `json:"acwp,omitempty"`
	BCWP                  *float64           `json:"bcwp,omitempty"`
	BCWS                  *float64           `json:"bcws,omitempty"`
	Work                  *Duration          `json:"work,omitempty"`
	ActualWork            *Duration          `json:"actual_work,omitempty"`
	ActualOvertimeWork    *Duration          `json:"actual_overtime_work,omitempty"`
	BaselineWork          *Duration          `json:"baseline_work,omitempty"`
	RegularWork           *Duration          `json:"regular_work,omitempty"`
	OvertimeWork          *Duration          `json:"overtime_work,omitempty"`
	RemainingWork         *Duration          `json:"remaining_work,omitempty"`
	RemainingOvertimeWork *Duration          `json:"remaining_overtime_work,omitempty"`
	WorkVariance          *Duration          `json:"work_variance,omitempty"`
	Calendar              *Calendar          `json:"-"`
	Baselines             Baselines          `json:"baselines"`
	Attributes            ExtendedAttributes `json:"attributes"`
	Assignments           []*Assignment      `json:"-"`
}

type Task struct {
	UniqueID               int                `json:"unique_id"`
	ID                     *int               `json:"id,omitempty"`
	Name                   *string            `json:"name,omitempty"`
	WBS                    *string            `json:"wbs,omitempty"`
	OutlineLevel           *int               `json:"outline_level,omitempty"`
	OutlineNumber          *string            `json:"outline_number,omitempty"`
	Notes                  *string            `json:"notes,omitempty"`
	Type                   TaskType           `json:"type"`
	Priority               Priority           `json:"priority"`
	ConstraintType         ConstraintType     `json:"constraint_type"`
	ConstraintDate         *time.Time         `json:"constraint_date,omitempty"`
	Start                  *time.Time         `json:"start,omitempty"`
	Finish                 *time.Time         `json:"finish,omitempty"`
	ActualStart            *time.Time         `json:"actual_start,omitempty"`
	ActualFinish           *time.Time         `json:"actual_finish,omitempty"`
	BaselineStart          *time.Time         `json:"baseline_start,omitempty"`
	BaselineFinish         *time.Time         `json:"baseline_finish,omitempty"`
	EarlyStart             *time.Time         `json:"early_start,omitempty"`
	EarlyFinish            *time.Time         `json:"early_finish,omitempty"`
	LateStart              *time.Time         `json:"late_start,omitempty"`
	LateFinish             *time.Time         `json:"late_finish,omitempty"`
	PreleveledStart        *time.Time         `json:"preleveled_start,omitempty"`
	PreleveledFinish       *time.Time         `json:"preleveled_finish,omitempty"`
	Resume                 *time.Time         `json:"resume,omitempty"`
	Stop                   *time.Time         `json:"stop,omitempty"`
	Deadline               *time.Time         `json:"deadline,omitempty"`
	CreateDate             *time.Time         `json:"create_date,omitempty"`
	Duration               *Duration          `json:"duration,omitempty"`
	ActualDuration         *Duration          `json:"actual_duration,omitempty"`
	BaselineDuration       *Duration          `json:"baseline_duration,omitempty"`
	RemainingDuration      *Duration          `json:"remaining_duration,omitempty"`
	DurationVariance       *Duration          `json:"duration_variance,omitempty"`
	FreeSlack              *Duration          `json:"free_slack,omitempty"`
	LevelingDelay          *Duration          `json:"leveling_delay,omitempty"`
	LevelingDelayFormat    TimeUnit           `json:"leveling_delay_format"`
	Work                   *Duration          `json:"work,omitempty"`
	ActualWork             *Duration          `json:"actual_work,omitempty"`
	ActualOvertimeWork     *Duration          `json:"actual_overtime_work,omitempty"`
	BaselineWork           *Duration          `json:"baseline_work,omitempty"`
	RegularWork            *Duration          `json:"regular_work,omitempty"`
	RemainingWork          *Duration          `json:"remaining_work,omitempty"`
	RemainingOvertimeWork  *Duration          `json:"remaining_overtime_work,omitempty"`
	WorkVariance           *Duration          `json:"work_variance,omitempty"`
	Cost                   *float64           `json:"cost,omitempty"`
	ActualCost             *float64           `json:"actual_cost,omitempty"`
	ActualOvertimeCost     *float64           `json:"actual_overtime_cost,omitempty"`
	BaselineCost           *float64           `json:"baseline_cost,omitempty"`
	FixedCost              *float64           `json:"fixed_cost,omitempty"`
	FixedCostAccrual       AccrueType         `json:"fixed_cost_accrual"`
	OvertimeCost           *float64           `json:"overtime_cost,omitempty"`
	RemainingCost          *float64           `json:"remaining_cost,omitempty"`
	RemainingOvertimeCost  *float64           `json:"remaining_overtime_cost,omitempty"`
	CostVariance           *float64           `json:"cost_variance,omitempty"`
	ACWP                   *float64           `json:"acwp,omitempty"`
	PercentComplete        *float64           `json:"percent_complete,omitempty"`
	PercentWorkComplete    *float64           `json:"percent_work_complete,omitempty"`
	Objects                *int               `json:"objects,omitempty"`
	EffortDriven           bool               `json:"effort_driven"`
	Estimated              bool               `json:"estimated"`
	Expanded               bool               `json:"expanded"`
	External               bool               `json:"external"`
	HideBar                bool               `json:"hide_bar"`
	IgnoreResourceCalendar bool               `json:"ignore_resource_calendar"`
	LevelAssignments       bool               `json:"level_assignments"`
	LevelingCanSplit       bool               `json:"leveling_can_split"`
	Marked                 bool               `json:"marked"`
	Milestone              bool               `json:"milestone"`
	OverAllocated          bool               `json:"over_allocated"`
	Recurring              bool               `json:"recurring"`
	Rollup                 bool               `json:"rollup"`
	Summary                bool               `json:"summary"`
	// Null marks a placeholder row left by sparse display numbering.
	Null           bool               `json:"null"`
	SubprojectFile *string            `json:"subproject_file,omitempty"`
	SubProject     *SubProject        `json:"subproject,omitempty"`
	Calendar       *Calendar          `json:"-"`
	Baselines      Baselines          `json:"baselines"`
	Attributes     ExtendedAttributes `json:"attributes"`
	Parent         *Task              `json:"-"`
	Children       []*Task            `json:"-"`
	Predecessors   []*Relation        `json:"-"`
	Successors     []*Relation        `json:"-"`
	Assignments    []*Assignment      `json:"-"`
}

// Relation links a predecessor task to a successor task.
type Relation struct {
	UniqueID    *int         `json:"unique_id,omitempty"`
	Predecessor *Task        `json:"-"`
	Successor   *Task        `json:"-"`
	Type        RelationType `json:"type"`
	Lag         Duration     `json:"lag"`
}

// Assignment allocates at most one resource to a task.
type Assignment struct {
	UniqueID              *int               `json:"unique_id,omitempty"`
	Task                  *Task              `json:"-"`
	Resource              *Resource          `json:"-"`
	Units                 float64            `json:"units"`
	WorkContour           WorkContour        `json:"work_contour"`
	CostRateTableIndex    int                `json:"cost_rate_table_index"`
	Notes                 *string            `json:"notes,omitempty"`
	Start                 *time.Time         `json:"start,omitempty"`
	Finish                *time.Time         `json:"finish,omitempty"`
	ActualStart           *time.Time         `json:"actual_start,omitempty"`
	ActualFinish          *time.Time         `json:"actual_finish,omitempty"`
	BaselineStart         *time.Time         `json:"baseline_start,omitempty"`
	BaselineFinish        *time.Time         `json:"baseline_finish,omitempty"`
	StartVariance         *Duration          `json:"start_variance,omitempty"`
	FinishVariance        *Duration          `json:"finish_variance,omitempty"`
	Delay                 *Duration          `json:"delay,omitempty"`
	LevelingDelay         *Duration          `json:"leveling_delay,omitempty"`
	Work                  *Duration          `json:"work,omitempty"`
	ActualWork            *Duration          `json:"actual_work,omitempty"`
	ActualOvertimeWork    *Duration          `json:"actual_overtime_work,omitempty"`
	BaselineWork          *Duration          `json:"baseline_work,omitempty"`
	OvertimeWork          *Duration          `json:"overtime_work,omitempty"`
	RegularWork           *Duration          `json:"regular_work,omitempty"`
	RemainingWork         *Duration          `json:"remaining_work,omitempty"`
	RemainingOvertimeWork *Duration          `json:"remaining_overtime_work,omitempty"`
	Cost                  *float64           `json:"cost,omitempty"`
	ActualCost            *float64           `json:"actual_cost,omitempty"`
	ActualOvertimeCost    *float64           `json:"actual_overtime_cost,omitempty"`
	BaselineCost          *float64           `json:"baseline_cost,omitempty"`
	RemainingCost         *float64           `json:"remaining_cost,omitempty"`
	RemainingOvertimeCost *float64           `json:"remaining_overtime_cost,omitempty"`
	ACWP                  *float64           `json:"acwp,omitempty"`
	BCWP                  *float64           `json:"bcwp,omitempty"`
	BCWS                  *float64           `json:"bcws,omitempty"`
	LinkedFields          bool               `json:"linked_fields"`
	ResponsePending       bool               `json:"response_pending"`
	TeamStatusPending     bool               `json:"team_status_pending"`
	UpdateNeeded          bool               `json:"update_needed"`
	Baselines             Baselines          `json:"baselines"`
	Attributes            ExtendedAttributes `json:"attributes"`
}

// SubProject describes an inserted project file referenced by a task.
type SubProject struct {
	FullPath       string `json:"full_path"`
	FileName       string `json:"file_name"`
	TaskUniqueID   int    `json:"task_unique_id"`
	UniqueIDOffset int    `json:"unique_id_offset"`
}

// HasChildTasks reports whether any task names t as its parent.
func (t *Task) HasChildTasks() bool { return len(t.Children) > 0 }

// AddPredecessor links pred -> t and returns the new relation.
func (t *Task) AddPredecessor(pred *Task, typ RelationType, lag Duration) *Relation {
	rel := &Relation{Predecessor: pred, Successor: t, Type: typ, Lag: lag}
	t.Predecessors = append(t.Predecessors, rel)
	pred.Successors = append(pred.Successors, rel)
	return rel
}

// AddAssignment attaches a to t and to its resource, if any.
func (t *Task) AddAssignment(a *Assignment) {
	a.Task = t
	t.Assignments = append(t.Assignments, a)
	if a.Resource != nil {
		a.Resource.Assignments = append(a.Resource.Assignments, a)
	}
}

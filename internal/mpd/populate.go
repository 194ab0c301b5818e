package mpd

import (
	"context"
	"strconv"
	"strings"

	"mpdimport/internal/domain"
	"mpdimport/internal/rtf"
)

func (r *Reader) notes(row Row, column string) *string {
	s := row.String(column)
	if s == nil || r.cfg.PreserveNoteFormatting {
		return s
	}
	plain := rtf.Strip(*s)
	return &plain
}

func (r *Reader) adjusted(row Row, column string, units domain.TimeUnit) *domain.Duration {
	d := AdjustedDuration(&r.project.Properties, row.Int(column), units)
	return &d
}

func (r *Reader) readProperties(ctx context.Context, src Source) error {
	rows, err := r.rows(ctx, src, TableProjects)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		r.logger.Debug("no project row", "project_id", r.cfg.ProjectID)
		return nil
	}
	return r.processProperties(rows[0])
}

func (r *Reader) processProperties(row Row) error {
	p := &r.project.Properties
	p.Name = row.String("PROJ_NAME")
	p.CurrencySymbol = row.String("PROJ_OPT_CURRENCY_SYMBOL")
	p.SymbolPosition = SymbolPosition(row.Int("PROJ_OPT_CURRENCY_POSITION"))
	p.CurrencyDigits = row.Integer("PROJ_OPT_CURRENCY_DIGITS")
	p.DefaultDurationUnits = DurationUnits(row.Int("PROJ_OPT_DUR_ENTRY_FMT"))
	p.DefaultWorkUnits = DurationUnits(row.Int("PROJ_OPT_WORK_ENTRY_FMT"))
	if v := row.Integer("PROJ_OPT_MINUTES_PER_DAY"); v != nil {
		p.MinutesPerDay = *v
	}
	if v := row.Integer("PROJ_OPT_MINUTES_PER_WEEK"); v != nil {
		p.MinutesPerWeek = *v
	}
	if v := row.Integer("PROJ_OPT_DAYS_PER_MONTH"); v != nil {
		p.DaysPerMonth = *v
	}
	p.DefaultStandardRate = RatePerHour(row.Double("PROJ_OPT_DEF_STD_RATE"))
	p.DefaultOvertimeRate = RatePerHour(row.Double("PROJ_OPT_DEF_OVT_RATE"))
	p.UpdatingTaskStatusUpdatesRes = row.Bool("PROJ_OPT_TASK_UPDATES_RES")
	p.SplitInProgressTasks = row.Bool("PROJ_OPT_SPLIT_IN_PROGRESS")
	p.DefaultStartTime = row.Date("PROJ_OPT_DEF_START_TIME")
	p.DefaultEndTime = row.Date("PROJ_OPT_DEF_FINISH_TIME")
	p.Title = row.String("PROJ_PROP_TITLE")
	p.Company = row.String("PROJ_PROP_COMPANY")
	p.Manager = row.String("PROJ_PROP_MANAGER")
	p.Subject = row.String("PROJ_PROP_SUBJECT")
	p.Author = row.String("PROJ_PROP_AUTHOR")
	p.Keywords = row.String("PROJ_PROP_KEYWORDS")
	p.Category = row.String("PROJ_PROP_CATEGORY")
	p.DefaultCalendarName = row.String("PROJ_INFO_CAL_NAME")
	p.StartDate = row.Date("PROJ_INFO_START_DATE")
	p.FinishDate = row.Date("PROJ_INFO_FINISH_DATE")
	p.CurrentDate = row.Date("PROJ_INFO_CURRENT_DATE")
	p.StatusDate = row.Date("PROJ_INFO_STATUS_DATE")
	p.ScheduleFrom = ScheduleFrom(row.Int("PROJ_INFO_SCHED_FROM"))
	p.ExternallyEdited = row.Bool("PROJ_EXT_EDITED_FLAG")
	p.FiscalYearStart = row.Bool("PROJ_OPT_FY_USE_START_YR")
	p.FiscalYearStartMonth = row.Integer("PROJ_OPT_FY_START_MONTH")
	p.NewTasksEstimated = row.Bool("PROJ_OPT_NEW_TASK_EST")
	p.NewTasksEffortDriven = row.Bool("PROJ_OPT_NEW_ARE_EFFORT_DRIVEN")
	p.SpreadActualCost = row.Bool("PROJ_OPT_SPREAD_ACT_COSTS")
	p.SpreadPercentComplete = row.Bool("PROJ_OPT_SPREAD_PCT_COMP")
	p.MultipleCriticalPaths = row.Bool("PROJ_OPT_MULT_CRITICAL_PATHS")
	p.HonorConstraints = row.Bool("PROJ_OPT_HONOR_CONSTRAINTS")
	p.DefaultTaskType = domain.TaskTypeFromCode(row.Int("PROJ_OPT_DEF_TASK_TYPE"))
	p.DefaultFixedCostAccrual = domain.AccrueTypeFromCode(row.Int("PROJ_OPT_DEF_FIX_COST_ACCRUAL"))
	p.CriticalSlackLimit = row.Integer("PROJ_OPT_CRITICAL_SLACK_LIMIT")
	p.WeekStartDay = WeekDay(row.Int("PROJ_OPT_WEEK_START_DAY"))
	p.CreationDate = row.Date("PROJ_CREATION_DATE")
	p.LastSaved = row.Date("PROJ_LAST_SAVED")
	return row.Err()
}

func (r *Reader) readCalendars(ctx context.Context, src Source) error {
	return r.each(ctx, src, TableCalendars, r.processCalendar)
}

func (r *Reader) processCalendar(row Row) error {
	uid := row.Integer("CAL_UID")
	isBase := row.Bool("CAL_IS_BASE_CAL")
	name := row.String("CAL_NAME")
	resourceID := row.Integer("RES_UID")
	baseID := row.Integer("CAL_BASE_UID")
	if err := row.Err(); err != nil {
		return err
	}
	if uid == nil || *uid <= 0 {
		r.logger.Debug("skip placeholder calendar")
		return nil
	}

	cal := domain.NewCalendar(*uid)
	if isBase {
		cal.Base = true
		cal.Name = name
	} else {
		cal.ResourceUniqueID = resourceID
		cal.BaseUniqueID = baseID
		if baseID != nil {
			r.baseRefs = append(r.baseRefs, baseRef{calendar: cal, baseID: *baseID})
		}
		if resourceID != nil {
			r.resourceCalendars[*resourceID] = cal
		}
	}
	r.project.AddCalendar(cal)
	r.calendars[cal.UniqueID] = cal
	r.events.FireCalendarRead(cal)
	return nil
}

func (r *Reader) readCalendarHours(ctx context.Context, src Source) error {
	for _, cal := range r.project.Calendars {
		err := r.each(ctx, src, TableCalendarData, func(row Row) error {
			return r.processCalendarData(cal, row)
		}, Filter{Column: "CAL_UID", Value: cal.UniqueID})
		if err != nil {
			return err
		}
	}
	return nil
}

const calendarRangeSlots = 5

func (r *Reader) processCalendarData(cal *domain.Calendar, row Row) error {
	dayIndex := row.Int("CD_DAY_OR_EXCEPTION")
	working := row.Int("CD_WORKING") != 0
	from := row.Date("CD_FROM_DATE")
	to := row.Date("CD_TO_DATE")
	var ranges []domain.DateRange
	for i := 1; i <= calendarRangeSlots; i++ {
		start := row.Date(rangeColumn("CD_FROM_TIME", i))
		end := row.Date(rangeColumn("CD_TO_TIME", i))
		if start != nil && end != nil {
			ranges = append(ranges, domain.DateRange{Start: *start, End: *end})
		}
	}
	if err := row.Err(); err != nil {
		return err
	}

	if dayIndex == 0 {
		ex := cal.AddException(from, to)
		ex.Working = working
		if working {
			ex.Ranges = append(ex.Ranges, ranges...)
		}
		return nil
	}

	day := domain.DayFromCode(dayIndex)
	if !day.Valid() {
		r.logger.Debug("skip calendar day", "calendar", cal.UniqueID, "day", dayIndex)
		return nil
	}
	cal.SetWorkingDay(day, working)
	if working {
		for _, rg := range ranges {
			cal.AddHours(day, rg)
		}
	}
	return nil
}

func rangeColumn(prefix string, n int) string {
	return prefix + strconv.Itoa(n)
}

func (r *Reader) readResources(ctx context.Context, src Source) error {
	return r.each(ctx, src, TableResources, r.processResource)
}

func (r *Reader) processResource(row Row) error {
	uid := row.Integer("RES_UID")
	res := &domain.Resource{
		ID:                    row.Integer("RES_ID"),
		Name:                  row.String("RES_NAME"),
		Initials:              row.String("RES_INITIALS"),
		Phonetics:             row.String("RES_PHONETICS"),
		MaterialLabel:         row.String("RES_MATERIAL_LABEL"),
		AccrueAt:              domain.AccrueTypeFromCode(row.Int("RES_ACCRUE_AT")),
		WorkGroup:             domain.WorkGroupFromCode(row.Int("RES_WORKGROUP_MESSAGING")),
		CanLevel:              row.Bool("RES_CAN_LEVEL"),
		OverAllocated:         row.Bool("RES_IS_OVERALLOCATED"),
		AvailableFrom:         row.Date("RES_AVAIL_FROM"),
		AvailableTo:           row.Date("RES_AVAIL_TO"),
		MaxUnits:              Percent(row.Double("RES_MAX_UNITS")),
		PeakUnits:             Percent(row.Double("RES_PEAK")),
		Objects:               nullIfZero(row.Integer("RES_NUM_OBJECTS")),
		StandardRate:          RatePerHour(row.Double("RES_STD_RATE")),
		StandardRateUnits:     RateUnits(row.Int("RES_STD_RATE_FMT")),
		OvertimeRate:          RatePerHour(row.Double("RES_OVT_RATE")),
		OvertimeRateUnits:     RateUnits(row.Int("RES_OVT_RATE_FMT")),
		CostPerUse:            row.Currency("RES_COST_PER_USE"),
		Cost:                  zeroIfNull(row.Currency("RES_COST")),
		ActualCost:            zeroIfNull(row.Currency("RES_ACT_COST")),
		ActualOvertimeCost:    row.Currency("RES_ACT_OVT_COST"),
		BaselineCost:          zeroIfNull(row.Currency("RES_BASE_COST")),
		RemainingCost:         zeroIfNull(row.Currency("RES_REM_COST")),
		RemainingOvertimeCost: row.Currency("RES_REM_OVT_COST"),
		OvertimeCost:          row.Currency("RES_OVT_COST"),
		ACWP:                  row.Currency("RES_ACWP"),
		BCWP:                  row.Currency("RES_BCWP"),
		BCWS:                  row.Currency("RES_BCWS"),
		Work:                  row.Duration("RES_WORK"),
		ActualWork:            row.Duration("RES_ACT_WORK"),
		ActualOvertimeWork:    row.Duration("RES_ACT_OVT_WORK"),
		BaselineWork:          row.Duration("RES_BASE_WORK"),
		RegularWork:           row.Duration("RES_REG_WORK"),
		OvertimeWork:          row.Duration("RES_OVT_WORK"),
		RemainingWork:         row.Duration("RES_REM_WORK"),
		RemainingOvertimeWork: row.Duration("RES_REM_OVT_WORK"),
		Notes:                 r.notes(row, "RES_RTF_NOTES"),
	}
	if row.Bool("RES_TYPE") {
		res.Type = domain.ResourceWork
	} else {
		res.Type = domain.ResourceMaterial
	}
	calendarID := row.Integer("RES_CAL_UID")
	if err := row.Err(); err != nil {
		return err
	}
	if uid == nil || *uid < 0 {
		r.logger.Debug("skip placeholder resource")
		return nil
	}
	res.UniqueID = *uid

	res.Calendar = r.project.CalendarByUniqueID(calendarID)
	if res.Calendar == nil {
		res.Calendar = r.resourceCalendars[res.UniqueID]
	}
	if res.Cost != nil && res.BaselineCost != nil {
		v := *res.Cost - *res.BaselineCost
		res.CostVariance = &v
	}
	if res.Work != nil && res.BaselineWork != nil {
		res.WorkVariance = domain.NewDuration(res.Work.Value-res.BaselineWork.Value, domain.Hours)
	}
	res.OverAllocated = res.PeakUnits > res.MaxUnits

	r.project.AddResource(res)
	r.events.FireResourceRead(res)
	return nil
}

func (r *Reader) readResourceBaselines(ctx context.Context, src Source) error {
	if !r.hasResourceBaselines {
		r.logger.Debug("resource baselines absent")
		return nil
	}
	return r.each(ctx, src, TableResourceBaselines, r.processResourceBaseline)
}

func (r *Reader) processResourceBaseline(row Row) error {
	uid := row.Integer("RES_UID")
	n := row.Int("RB_BASE_NUM")
	work := row.Duration("RB_BASE_WORK")
	cost := row.Currency("RB_BASE_COST")
	if err := row.Err(); err != nil {
		return err
	}
	res := r.project.ResourceByUniqueID(uid)
	if res == nil {
		return nil
	}
	slot := res.Baselines.Slot(n)
	if slot == nil {
		r.logger.Debug("skip baseline", "resource", res.UniqueID, "baseline", n)
		return nil
	}
	slot.Work = work
	slot.Cost = cost
	return nil
}

func (r *Reader) readTasks(ctx context.Context, src Source) error {
	return r.each(ctx, src, TableTasks, r.processTask)
}

func (r *Reader) processTask(row Row) error {
	props := &r.project.Properties
	uid := row.Integer("TASK_UID")
	durFmt := DurationUnits(row.Int("TASK_DUR_FMT"))
	delayFmt := DurationUnits(row.Int("TASK_LEVELING_DELAY_FMT"))

	t := &domain.Task{
		ID:                     row.Integer("TASK_ID"),
		Name:                   row.String("TASK_NAME"),
		WBS:                    row.String("TASK_WBS"),
		OutlineLevel:           row.Integer("TASK_OUTLINE_LEVEL"),
		OutlineNumber:          row.String("TASK_OUTLINE_NUM"),
		Notes:                  r.notes(row, "TASK_RTF_NOTES"),
		Type:                   domain.TaskTypeFromCode(row.Int("TASK_TYPE")),
		Priority:               domain.PriorityFromCode(row.Int("TASK_PRIORITY")),
		ConstraintType:         domain.ConstraintTypeFromCode(row.Int("TASK_CONSTRAINT_TYPE")),
		ConstraintDate:         row.Date("TASK_CONSTRAINT_DATE"),
		Start:                  row.Date("TASK_START_DATE"),
		Finish:                 row.Date("TASK_FINISH_DATE"),
		ActualStart:            row.Date("TASK_ACT_START"),
		ActualFinish:           row.Date("TASK_ACT_FINISH"),
		BaselineStart:          row.Date("TASK_BASE_START"),
		BaselineFinish:         row.Date("TASK_BASE_FINISH"),
		EarlyStart:             row.Date("TASK_EARLY_START"),
		EarlyFinish:            row.Date("TASK_EARLY_FINISH"),
		LateStart:              row.Date("TASK_LATE_START"),
		LateFinish:             row.Date("TASK_LATE_FINISH"),
		PreleveledStart:        row.Date("TASK_PRELEVELED_START"),
		PreleveledFinish:       row.Date("TASK_PRELEVELED_FINISH"),
		Resume:                 row.Date("TASK_RESUME_DATE"),
		Stop:                   row.Date("TASK_STOP_DATE"),
		Deadline:               row.Date("TASK_DEADLINE"),
		CreateDate:             row.Date("TASK_CREATION_DATE"),
		Duration:               r.adjusted(row, "TASK_DUR", durFmt),
		ActualDuration:         r.adjusted(row, "TASK_ACT_DUR", durFmt),
		BaselineDuration:       r.adjusted(row, "TASK_BASE_DUR", durFmt),
		RemainingDuration:      r.adjusted(row, "TASK_REM_DUR", durFmt),
		DurationVariance:       r.adjusted(row, "TASK_DUR_VAR", durFmt),
		LevelingDelay:          r.adjusted(row, "TASK_LEVELING_DELAY", delayFmt),
		LevelingDelayFormat:    delayFmt,
		Work:                   row.Duration("TASK_WORK"),
		ActualWork:             row.Duration("TASK_ACT_WORK"),
		ActualOvertimeWork:     row.Duration("TASK_ACT_OVT_WORK"),
		BaselineWork:           row.Duration("TASK_BASE_WORK"),
		RegularWork:            row.Duration("TASK_REG_WORK"),
		RemainingWork:          row.Duration("TASK_REM_WORK"),
		RemainingOvertimeWork:  row.Duration("TASK_REM_OVT_WORK"),
		Cost:                   row.Currency("TASK_COST"),
		ActualCost:             row.Currency("TASK_ACT_COST"),
		ActualOvertimeCost:     row.Currency("TASK_ACT_OVT_COST"),
		BaselineCost:           row.Currency("TASK_BASE_COST"),
		FixedCost:              row.Currency("TASK_FIXED_COST"),
		FixedCostAccrual:       domain.AccrueTypeFromCode(row.Int("TASK_FIXED_COST_ACCRUAL")),
		OvertimeCost:           row.Currency("TASK_OVT_COST"),
		RemainingCost:          row.Currency("TASK_REM_COST"),
		RemainingOvertimeCost:  row.Currency("TASK_REM_OVT_COST"),
		ACWP:                   row.Currency("TASK_ACWP"),
		PercentComplete:        row.Double("TASK_PCT_COMP"),
		PercentWorkComplete:    row.Double("TASK_PCT_WORK_COMP"),
		Objects:                nullIfZero(row.Integer("TASK_NUM_OBJECTS")),
		EffortDriven:           row.Bool("TASK_IS_EFFORT_DRIVEN"),
		Estimated:              row.Bool("TASK_DUR_IS_EST"),
		Expanded:               !row.Bool("TASK_IS_COLLAPSED"),
		External:               row.Bool("TASK_IS_EXTERNAL"),
		HideBar:                row.Bool("TASK_BAR_IS_HIDDEN"),
		IgnoreResourceCalendar: row.Bool("TASK_IGNORES_RES_CAL"),
		LevelAssignments:       row.Bool("TASK_LEVELING_ADJUSTS_ASSN"),
		LevelingCanSplit:       row.Bool("TASK_LEVELING_CAN_SPLIT"),
		Marked:                 row.Bool("TASK_IS_MARKED"),
		Milestone:              row.Bool("TASK_IS_MILESTONE"),
		OverAllocated:          row.Bool("TASK_IS_OVERALLOCATED"),
		Recurring:              row.Bool("TASK_IS_RECURRING"),
		Rollup:                 row.Bool("TASK_IS_ROLLED_UP"),
		Summary:                row.Bool("TASK_IS_SUMMARY"),
	}
	if slack := row.Duration("TASK_FREE_SLACK"); slack != nil {
		v := slack.ConvertUnits(durFmt, props)
		t.FreeSlack = &v
	}
	calendarID := row.Integer("TASK_CAL_UID")
	if err := row.Err(); err != nil {
		return err
	}
	if uid == nil || *uid < 0 {
		r.logger.Debug("skip placeholder task")
		return nil
	}
	t.UniqueID = *uid
	t.Calendar = r.project.CalendarByUniqueID(calendarID)

	if t.Cost != nil && t.BaselineCost != nil {
		v := *t.Cost - *t.BaselineCost
		t.CostVariance = &v
	}
	if t.Work != nil && t.BaselineWork != nil {
		t.WorkVariance = domain.NewDuration(t.Work.Value-t.BaselineWork.Value, domain.Hours)
	}
	t.Attributes.ResetFlags(10)
	if t.WBS != nil {
		r.autoWBS = false
	}
	t.Null = t.Name == nil && t.Start == nil && t.Finish == nil

	r.project.AddTask(t)
	r.events.FireTaskRead(t)
	return nil
}

func (r *Reader) readTaskBaselines(ctx context.Context, src Source) error {
	if !r.hasTaskBaselines {
		r.logger.Debug("task baselines absent")
		return nil
	}
	return r.each(ctx, src, TableTaskBaselines, r.processTaskBaseline)
}

func (r *Reader) processTaskBaseline(row Row) error {
	uid := row.Integer("TASK_UID")
	n := row.Int("TB_BASE_NUM")
	b := domain.Baseline{
		Duration: r.adjusted(row, "TB_BASE_DUR", DurationUnits(row.Int("TB_BASE_DUR_FMT"))),
		Start:    row.Date("TB_BASE_START"),
		Finish:   row.Date("TB_BASE_FINISH"),
		Work:     row.Duration("TB_BASE_WORK"),
		Cost:     row.Currency("TB_BASE_COST"),
	}
	if err := row.Err(); err != nil {
		return err
	}
	t := r.project.TaskByUniqueID(uid)
	if t == nil {
		return nil
	}
	slot := t.Baselines.Slot(n)
	if slot == nil {
		r.logger.Debug("skip baseline", "task", t.UniqueID, "baseline", n)
		return nil
	}
	*slot = b
	return nil
}

func (r *Reader) readLinks(ctx context.Context, src Source) error {
	return r.each(ctx, src, TableLinks, r.processLink)
}

func (r *Reader) processLink(row Row) error {
	pred := r.project.TaskByUniqueID(row.Integer("LINK_PRED_UID"))
	succ := r.project.TaskByUniqueID(row.Integer("LINK_SUCC_UID"))
	typ := domain.RelationTypeFromCode(row.Int("LINK_TYPE"))
	units := DurationUnits(row.Int("LINK_LAG_FMT"))
	lag := row.Double("LINK_LAG")
	uid := row.Integer("LINK_UID")
	if err := row.Err(); err != nil {
		return err
	}
	if pred == nil || succ == nil {
		r.logger.Debug("skip dangling link", "link", uid)
		return nil
	}
	var raw float64
	if lag != nil {
		raw = *lag
	}
	rel := succ.AddPredecessor(pred, typ, FixedDuration(raw, units))
	rel.UniqueID = uid
	r.project.AddRelation(rel)
	r.events.FireRelationRead(rel)
	return nil
}

func (r *Reader) readAssignments(ctx context.Context, src Source) error {
	return r.each(ctx, src, TableAssignments, r.processAssignment)
}

func (r *Reader) processAssignment(row Row) error {
	task := r.project.TaskByUniqueID(row.Integer("TASK_UID"))
	a := &domain.Assignment{
		UniqueID:              row.Integer("ASSN_UID"),
		Resource:              r.project.ResourceByUniqueID(row.Integer("RES_UID")),
		Units:                 Percent(row.Double("ASSN_UNITS")),
		WorkContour:           domain.WorkContourFromCode(row.Int("ASSN_WORK_CONTOUR")),
		CostRateTableIndex:    row.Int("ASSN_COST_RATE_TABLE"),
		Notes:                 r.notes(row, "ASSN_RTF_NOTES"),
		Start:                 row.Date("ASSN_START_DATE"),
		Finish:                row.Date("ASSN_FINISH_DATE"),
		ActualStart:           row.Date("ASSN_ACT_START"),
		ActualFinish:          row.Date("ASSN_ACT_FINISH"),
		BaselineStart:         row.Date("ASSN_BASE_START"),
		BaselineFinish:        row.Date("ASSN_BASE_FINISH"),
		StartVariance:         r.adjusted(row, "ASSN_START_VAR", domain.Days),
		FinishVariance:        r.adjusted(row, "ASSN_FINISH_VAR", domain.Days),
		Delay:                 row.Duration("ASSN_DELAY"),
		LevelingDelay:         r.adjusted(row, "ASSN_LEVELING_DELAY", DurationUnits(row.Int("ASSN_DELAY_FMT"))),
		Work:                  row.Duration("ASSN_WORK"),
		ActualWork:            row.Duration("ASSN_ACT_WORK"),
		ActualOvertimeWork:    row.Duration("ASSN_ACT_OVT_WORK"),
		BaselineWork:          row.Duration("ASSN_BASE_WORK"),
		OvertimeWork:          row.Duration("ASSN_OVT_WORK"),
		RegularWork:           row.Duration("ASSN_REG_WORK"),
		RemainingWork:         row.Duration("ASSN_REM_WORK"),
		RemainingOvertimeWork: row.Duration("ASSN_REM_OVT_WORK"),
		Cost:                  row.Currency("ASSN_COST"),
		ActualCost:            row.Currency("ASSN_ACT_COST"),
		ActualOvertimeCost:    row.Currency("ASSN_ACT_OVT_COST"),
		BaselineCost:          row.Currency("ASSN_BASE_COST"),
		RemainingCost:         row.Currency("ASSN_REM_COST"),
		RemainingOvertimeCost: row.Currency("ASSN_REM_OVT_COST"),
		ACWP:                  row.Currency("ASSN_ACWP"),
		BCWP:                  row.Currency("ASSN_BCWP"),
		BCWS:                  row.Currency("ASSN_BCWS"),
		LinkedFields:          row.Bool("ASSN_HAS_LINKED_FIELDS"),
		ResponsePending:       row.Bool("ASSN_RESPONSE_PENDING"),
		TeamStatusPending:     row.Bool("ASSN_TEAM_STATUS_PENDING"),
		UpdateNeeded:          row.Bool("ASSN_UPDATE_NEEDED"),
	}
	if err := row.Err(); err != nil {
		return err
	}
	if task == nil {
		r.logger.Debug("skip dangling assignment", "assignment", a.UniqueID)
		return nil
	}
	task.AddAssignment(a)
	if a.UniqueID != nil {
		r.assignments[*a.UniqueID] = a
	}
	r.project.AddAssignment(a)
	r.events.FireAssignmentRead(a)
	return nil
}

func (r *Reader) readAssignmentBaselines(ctx context.Context, src Source) error {
	if !r.hasAssignmentBaselines {
		r.logger.Debug("assignment baselines absent")
		return nil
	}
	return r.each(ctx, src, TableAssignmentBaselines, r.processAssignmentBaseline)
}

func (r *Reader) processAssignmentBaseline(row Row) error {
	uid := row.Integer("ASSN_UID")
	n := row.Int("AB_BASE_NUM")
	b := domain.Baseline{
		Start:  row.Date("AB_BASE_START"),
		Finish: row.Date("AB_BASE_FINISH"),
		Work:   row.Duration("AB_BASE_WORK"),
		Cost:   row.Currency("AB_BASE_COST"),
	}
	if err := row.Err(); err != nil {
		return err
	}
	if uid == nil {
		return nil
	}
	a := r.assignments[*uid]
	if a == nil {
		return nil
	}
	slot := a.Baselines.Slot(n)
	if slot == nil {
		r.logger.Debug("skip baseline", "assignment", *uid, "baseline", n)
		return nil
	}
	*slot = b
	return nil
}

func (r *Reader) readExtendedAttributes(ctx context.Context, src Source) error {
	rt := Router{Project: r.project, Assignments: r.assignments}
	route := func(fieldColumn, entityColumn string, value func(Row) any) func(Row) error {
		return func(row Row) error {
			v := value(row)
			entity := row.Integer(entityColumn)
			if err := row.Err(); err != nil {
				return err
			}
			rt.Route(row, fieldColumn, entity, v)
			return row.Err()
		}
	}
	props := &r.project.Properties
	passes := []struct {
		table string
		fn    func(Row) error
	}{
		{TableTextFields, route("TEXT_FIELD_ID", "TEXT_REF_UID", func(row Row) any {
			return row.String("TEXT_VALUE")
		})},
		{TableNumberFields, route("NUM_FIELD_ID", "NUM_REF_UID", func(row Row) any {
			return row.Double("NUM_VALUE")
		})},
		{TableFlagFields, route("FLAG_FIELD_ID", "FLAG_REF_UID", func(row Row) any {
			return row.Bool("FLAG_VALUE")
		})},
		{TableDurationFields, route("DUR_FIELD_ID", "DUR_REF_UID", func(row Row) any {
			return AdjustedDuration(props, row.Int("DUR_VALUE"), DurationUnits(row.Int("DUR_FMT")))
		})},
		{TableDateFields, route("DATE_FIELD_ID", "DATE_REF_UID", func(row Row) any {
			return row.Date("DATE_VALUE")
		})},
	}
	for _, p := range passes {
		if err := r.each(ctx, src, p.table, p.fn); err != nil {
			return err
		}
	}
	return r.each(ctx, src, TableCodeFields, func(row Row) error {
		entity := row.Integer("CODE_REF_UID")
		code := row.Integer("CODE_UID")
		if err := row.Err(); err != nil {
			return err
		}
		if code == nil {
			return nil
		}
		codes, err := src.Rows(ctx, Query{Table: TableOutlineCodes, Filters: []Filter{{Column: "CODE_UID", Value: *code}}})
		if err != nil {
			return err
		}
		for _, oc := range codes {
			name := oc.String("OC_NAME")
			rt.Route(oc, "OC_FIELD_ID", entity, name)
			if err := oc.Err(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Subproject unique id ranges start above the host project's own ids.
const (
	subprojectBaseOffset = 0x01000000
	subprojectIDSpan     = 0x00400000
)

func (r *Reader) readSubProjects(context.Context, Source) error {
	index := 1
	for _, t := range r.project.Tasks {
		if t.SubprojectFile == nil {
			continue
		}
		full := *t.SubprojectFile
		name := full
		if i := strings.LastIndexByte(full, '\\'); i >= 0 {
			name = full[i+1:]
		}
		sp := &domain.SubProject{
			FullPath:       full,
			FileName:       name,
			TaskUniqueID:   t.UniqueID,
			UniqueIDOffset: subprojectBaseOffset + index*subprojectIDSpan,
		}
		t.SubProject = sp
		r.project.SubProjects = append(r.project.SubProjects, sp)
		index++
	}
	return nil
}

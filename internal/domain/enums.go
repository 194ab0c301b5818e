package domain

import "strconv"

// TimeUnit is the unit attached to a Duration or a rate.
type TimeUnit int

const (
	Minutes TimeUnit = iota
	Hours
	Days
	Weeks
	Months
	Percent
	Years
	ElapsedMinutes
	ElapsedHours
	ElapsedDays
	ElapsedWeeks
	ElapsedMonths
	ElapsedYears
	ElapsedPercent
)

var timeUnitNames = [...]string{
	"m", "h", "d", "w", "mo", "%", "y",
	"em", "eh", "ed", "ew", "emo", "ey", "e%",
}

// TimeUnitFromCode maps a stored unit ordinal; unknown values fall back to Days.
func TimeUnitFromCode(code int) TimeUnit {
	if code < int(Minutes) || code > int(ElapsedPercent) {
		return Days
	}
	return TimeUnit(code)
}

func (u TimeUnit) String() string {
	if u < Minutes || u > ElapsedPercent {
		return "TimeUnit(" + strconv.Itoa(int(u)) + ")"
	}
	return timeUnitNames[u]
}

// Elapsed reports whether the unit measures clock time rather than working time.
func (u TimeUnit) Elapsed() bool {
	return u >= ElapsedMinutes
}

// Day is a weekday, Sunday=1 through Saturday=7.
type Day int

const (
	Sunday Day = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DayFromCode returns the weekday for a 1-based code, or 0 when out of range.
func DayFromCode(code int) Day {
	if code < int(Sunday) || code > int(Saturday) {
		return 0
	}
	return Day(code)
}

func (d Day) Valid() bool { return d >= Sunday && d <= Saturday }

func (d Day) String() string {
	switch d {
	case Sunday:
		return "sunday"
	case Monday:
		return "monday"
	case Tuesday:
		return "tuesday"
	case Wednesday:
		return "wednesday"
	case Thursday:
		return "thursday"
	case Friday:
		return "friday"
	case Saturday:
		return "saturday"
	}
	return "day(" + strconv.Itoa(int(d)) + ")"
}

type DayType int

const (
	NonWorking DayType = iota
	Working
	DefaultDay
)

func (t DayType) String() string {
	switch t {
	case NonWorking:
		return "non_working"
	case Working:
		return "working"
	}
	return "default"
}

type WorkContour int

const (
	ContourFlat WorkContour = iota
	ContourBackLoaded
	ContourFrontLoaded
	ContourDoublePeak
	ContourEarlyPeak
	ContourLatePeak
	ContourBell
	ContourTurtle
	ContourContoured
)

func WorkContourFromCode(code int) WorkContour {
	if code < int(ContourFlat) || code > int(ContourContoured) {
		return ContourFlat
	}
	return WorkContour(code)
}

type ConstraintType int

const (
	AsSoonAsPossible ConstraintType = iota
	AsLateAsPossible
	MustStartOn
	MustFinishOn
	StartNoEarlierThan
	StartNoLaterThan
	FinishNoEarlierThan
	FinishNoLaterThan
)

func ConstraintTypeFromCode(code int) ConstraintType {
	if code < int(AsSoonAsPossible) || code > int(FinishNoLaterThan) {
		return AsSoonAsPossible
	}
	return ConstraintType(code)
}

// Priority is stored as its numeric value (100..1000 in steps of 100).
type Priority int

const (
	PriorityLowest     Priority = 100
	PriorityVeryLow    Priority = 200
	PriorityLower      Priority = 300
	PriorityLow        Priority = 400
	PriorityMedium     Priority = 500
	PriorityHigh       Priority = 600
	PriorityHigher     Priority = 700
	PriorityVeryHigh   Priority = 800
	PriorityHighest    Priority = 900
	PriorityDoNotLevel Priority = 1000
)

func PriorityFromCode(code int) Priority {
	if code < 100 || code > 1000 || code%100 != 0 {
		return PriorityMedium
	}
	return Priority(code)
}

type AccrueType int

const (
	AccrueStart AccrueType = iota + 1
	AccrueEnd
	AccrueProrated
)

func AccrueTypeFromCode(code int) AccrueType {
	if code < int(AccrueStart) || code > int(AccrueProrated) {
		return AccrueProrated
	}
	return AccrueType(code)
}

type TaskType int

const (
	FixedUnits TaskType = iota
	FixedDuration
	FixedWork
)

func TaskTypeFromCode(code int) TaskType {
	if code < int(FixedUnits) || code > int(FixedWork) {
		return FixedUnits
	}
	return TaskType(code)
}

type ScheduleFrom int

const (
	ScheduleFromStart ScheduleFrom = iota
	ScheduleFromFinish
)

func ScheduleFromCode(code int) ScheduleFrom {
	if code == int(ScheduleFromFinish) {
		return ScheduleFromFinish
	}
	return ScheduleFromStart
}

type WorkGroup int

const (
	WorkGroupDefault WorkGroup = iota
	WorkGroupNone
	WorkGroupEmail
	WorkGroupWeb
)

func WorkGroupFromCode(code int) WorkGroup {
	if code < int(WorkGroupDefault) || code > int(WorkGroupWeb) {
		return WorkGroupDefault
	}
	return WorkGroup(code)
}

type RelationType int

const (
	FinishFinish RelationType = iota
	FinishStart
	StartFinish
	StartStart
)

func RelationTypeFromCode(code int) RelationType {
	if code < int(FinishFinish) || code > int(StartStart) {
		return FinishStart
	}
	return RelationType(code)
}

func (t RelationType) String() string {
	switch t {
	case FinishFinish:
		return "FF"
	case StartFinish:
		return "SF"
	case StartStart:
		return "SS"
	}
	return "FS"
}

type ResourceType int

const (
	ResourceWork ResourceType = iota
	ResourceMaterial
)

func (t ResourceType) String() string {
	if t == ResourceMaterial {
		return "material"
	}
	return "work"
}

type CurrencySymbolPosition int

const (
	SymbolBefore CurrencySymbolPosition = iota
	SymbolAfter
	SymbolBeforeWithSpace
	SymbolAfterWithSpace
)

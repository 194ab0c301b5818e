package domain

import (
	"fmt"
	"time"
)

// Duration is an amount of time in a given unit.
type Duration struct {
	Value float64  `json:"value"`
	Units TimeUnit `json:"units"`
}

func NewDuration(value float64, units TimeUnit) *Duration {
	return &Duration{Value: value, Units: units}
}

func (d Duration) String() string {
	return fmt.Sprintf("%g%s", d.Value, d.Units)
}

// ConvertUnits expresses d in the target unit using the project's working-time
// settings. Percent units are never converted.
func (d Duration) ConvertUnits(target TimeUnit, props *Properties) Duration {
	if d.Units == target || d.Units == Percent || d.Units == ElapsedPercent ||
		target == Percent || target == ElapsedPercent {
		return Duration{Value: d.Value, Units: target}
	}
	from := minutesPerUnit(d.Units, props)
	to := minutesPerUnit(target, props)
	if to == 0 {
		return Duration{Value: 0, Units: target}
	}
	return Duration{Value: d.Value * from / to, Units: target}
}

func minutesPerUnit(u TimeUnit, props *Properties) float64 {
	minutesPerDay, minutesPerWeek, daysPerMonth := 480.0, 2400.0, 20.0
	if props != nil {
		minutesPerDay = float64(props.MinutesPerDay)
		minutesPerWeek = float64(props.MinutesPerWeek)
		daysPerMonth = float64(props.DaysPerMonth)
	}
	switch u {
	case Minutes, ElapsedMinutes:
		return 1
	case Hours, ElapsedHours:
		return 60
	case Days:
		return minutesPerDay
	case Weeks:
		return minutesPerWeek
	case Months:
		return minutesPerDay * daysPerMonth
	case Years:
		return minutesPerWeek * 52
	case ElapsedDays:
		return 24 * 60
	case ElapsedWeeks:
		return 7 * 24 * 60
	case ElapsedMonths:
		return 30 * 24 * 60
	case ElapsedYears:
		return 365 * 24 * 60
	}
	return 0
}

// Rate is a monetary amount per time unit.
type Rate struct {
	Amount float64  `json:"amount"`
	Units  TimeUnit `json:"units"`
}

// DateRange is a closed interval; for working hours only the time of day is meaningful.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

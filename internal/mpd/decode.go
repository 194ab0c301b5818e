package mpd

import (
	"mpdimport/internal/domain"
)

// durationUnitMask strips the flag bits of a packed duration format code.
const durationUnitMask = 0x1F

// DurationUnits decodes a packed duration format code. Unknown codes are days.
func DurationUnits(code int) domain.TimeUnit {
	switch code & durationUnitMask {
	case 3:
		return domain.Minutes
	case 4:
		return domain.ElapsedMinutes
	case 5:
		return domain.Hours
	case 6:
		return domain.ElapsedHours
	case 7:
		return domain.Days
	case 8:
		return domain.ElapsedDays
	case 9:
		return domain.Weeks
	case 10:
		return domain.ElapsedWeeks
	case 11:
		return domain.Months
	case 12:
		return domain.ElapsedMonths
	}
	return domain.Days
}

// AdjustedDuration decodes a raw schedule duration. Day and week units depend on
// the project's minutes per day and per week; a zero setting yields zero.
func AdjustedDuration(props *domain.Properties, raw int, units domain.TimeUnit) domain.Duration {
	value := float64(raw)
	switch units {
	case domain.Minutes, domain.ElapsedMinutes:
		value /= 10
	case domain.Hours, domain.ElapsedHours:
		value /= 600
	case domain.Days:
		perDay := 0.0
		if props != nil {
			perDay = float64(props.MinutesPerDay)
		}
		if perDay == 0 {
			value = 0
		} else {
			value /= perDay * 10
		}
	case domain.ElapsedDays:
		value /= 24 * 600
	case domain.Weeks:
		perWeek := 0.0
		if props != nil {
			perWeek = float64(props.MinutesPerWeek)
		}
		if perWeek == 0 {
			value = 0
		} else {
			value /= perWeek * 10
		}
	case domain.ElapsedWeeks:
		value /= 7 * 24 * 600
	case domain.Months:
		value /= 96000
	case domain.ElapsedMonths:
		value /= 30 * 24 * 600
	}
	return domain.Duration{Value: value, Units: units}
}

// FixedDuration decodes a value held in tenths of a minute into units using
// fixed working-time ratios.
func FixedDuration(value float64, units domain.TimeUnit) domain.Duration {
	switch units {
	case domain.Minutes, domain.ElapsedMinutes:
		value /= 10
	case domain.Hours, domain.ElapsedHours:
		value /= 600
	case domain.Days:
		value /= 4800
	case domain.ElapsedDays:
		value /= 14400
	case domain.Weeks:
		value /= 24000
	case domain.ElapsedWeeks:
		value /= 100800
	case domain.Months:
		value /= 96000
	case domain.ElapsedMonths:
		value /= 432000
	}
	return domain.Duration{Value: value, Units: units}
}

// Currency descales a stored money value. Null stays null.
func Currency(raw *float64) *float64 {
	if raw == nil {
		return nil
	}
	v := *raw / 100
	return &v
}

// SymbolPosition decodes the currency symbol placement code.
func SymbolPosition(code int) domain.CurrencySymbolPosition {
	switch code {
	case 1:
		return domain.SymbolAfter
	case 2:
		return domain.SymbolBeforeWithSpace
	case 3:
		return domain.SymbolAfterWithSpace
	}
	return domain.SymbolBefore
}

// WeekDay converts a 0-based source weekday offset to a Day.
func WeekDay(offset int) domain.Day {
	return domain.DayFromCode(offset + 1)
}

// ScheduleFrom decodes the inverted schedule direction flag.
func ScheduleFrom(code int) domain.ScheduleFrom {
	return domain.ScheduleFromCode(1 - code)
}

// RateUnits decodes a 1-based rate format code.
func RateUnits(code int) domain.TimeUnit {
	return domain.TimeUnitFromCode(code - 1)
}

// RatePerHour wraps an hourly amount; null is a zero rate.
func RatePerHour(amount *float64) domain.Rate {
	r := domain.Rate{Units: domain.Hours}
	if amount != nil {
		r.Amount = *amount
	}
	return r
}

// Percent scales a 0..1 fraction to a percentage; null is 0.
func Percent(fraction *float64) float64 {
	if fraction == nil {
		return 0
	}
	return *fraction * 100
}

func nullIfZero(v *int) *int {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

func zeroIfNull(v *float64) *float64 {
	if v != nil {
		return v
	}
	z := 0.0
	return &z
}

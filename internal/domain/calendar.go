package domain

import "time"

// Calendar describes working time. Parent is only linked once every calendar
// of a project has been read; until then BaseUniqueID carries the raw reference.
type Calendar struct {
	UniqueID         int                  `json:"unique_id"`
	Name             *string              `json:"name,omitempty"`
	Base             bool                 `json:"base"`
	ResourceUniqueID *int                 `json:"resource_unique_id,omitempty"`
	BaseUniqueID     *int                 `json:"base_unique_id,omitempty"`
	Parent           *Calendar            `json:"-"`
	Days             map[Day]DayType      `json:"days,omitempty"`
	Hours            map[Day][]DateRange  `json:"hours,omitempty"`
	Exceptions       []*CalendarException `json:"exceptions,omitempty"`
}

type CalendarException struct {
	From    *time.Time  `json:"from,omitempty"`
	To      *time.Time  `json:"to,omitempty"`
	Working bool        `json:"working"`
	Ranges  []DateRange `json:"ranges,omitempty"`
}

func NewCalendar(uniqueID int) *Calendar {
	return &Calendar{
		UniqueID: uniqueID,
		Days:     map[Day]DayType{},
		Hours:    map[Day][]DateRange{},
	}
}

// SetWorkingDay records whether day is a working day.
func (c *Calendar) SetWorkingDay(day Day, working bool) {
	if working {
		c.Days[day] = Working
	} else {
		c.Days[day] = NonWorking
	}
}

// DayType returns the recorded type of day, DefaultDay when nothing was read.
func (c *Calendar) DayType(day Day) DayType {
	if t, ok := c.Days[day]; ok {
		return t
	}
	return DefaultDay
}

func (c *Calendar) AddHours(day Day, r DateRange) {
	c.Hours[day] = append(c.Hours[day], r)
}

func (c *Calendar) AddException(from, to *time.Time) *CalendarException {
	ex := &CalendarException{From: from, To: to}
	c.Exceptions = append(c.Exceptions, ex)
	return ex
}

// Root walks the parent chain to the calendar that has no parent.
func (c *Calendar) Root() *Calendar {
	cur := c
	seen := map[*Calendar]bool{}
	for cur.Parent != nil && !seen[cur] {
		seen[cur] = true
		cur = cur.Parent
	}
	return cur
}

// ParentUniqueID exposes the linked parent for serialization.
func (c *Calendar) ParentUniqueID() *int {
	if c.Parent == nil {
		return nil
	}
	id := c.Parent.UniqueID
	return &id
}

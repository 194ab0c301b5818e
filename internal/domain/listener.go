package domain

import (
	"log/slog"
)

// Listener is notified as each entity of an import is read.
type Listener interface {
	CalendarRead(*Calendar) error
	ResourceRead(*Resource) error
	TaskRead(*Task) error
	RelationRead(*Relation) error
	AssignmentRead(*Assignment) error
}

// EventManager fans notifications out to listeners. A failing listener is
// logged and never stops the import.
type EventManager struct {
	Listeners []Listener
	Logger    *slog.Logger
}

func (m EventManager) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func (m EventManager) fire(kind string, id any, call func(Listener) error) {
	for _, l := range m.Listeners {
		if err := call(l); err != nil {
			m.logger().Warn("listener failed", "entity", kind, "unique_id", id, "error", err)
		}
	}
}

func (m EventManager) FireCalendarRead(c *Calendar) {
	m.fire("calendar", c.UniqueID, func(l Listener) error { return l.CalendarRead(c) })
}

func (m EventManager) FireResourceRead(r *Resource) {
	m.fire("resource", r.UniqueID, func(l Listener) error { return l.ResourceRead(r) })
}

func (m EventManager) FireTaskRead(t *Task) {
	m.fire("task", t.UniqueID, func(l Listener) error { return l.TaskRead(t) })
}

func (m EventManager) FireRelationRead(r *Relation) {
	m.fire("relation", intOrNil(r.UniqueID), func(l Listener) error { return l.RelationRead(r) })
}

func (m EventManager) FireAssignmentRead(a *Assignment) {
	m.fire("assignment", intOrNil(a.UniqueID), func(l Listener) error { return l.AssignmentRead(a) })
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

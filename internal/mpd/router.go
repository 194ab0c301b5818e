package mpd

import (
	"mpdimport/internal/domain"
)

// Router assigns extended attribute values to the entity that owns them.
type Router struct {
	Project     *domain.Project
	Assignments map[int]*domain.Assignment
}

// Route reads the packed field id from fieldIDColumn and stores value on the
// entity identified by entityID. It reports whether anything was assigned;
// unknown namespaces, protected fields and missing owners are ignored.
func (rt Router) Route(row Row, fieldIDColumn string, entityID *int, value any) bool {
	fieldID := row.Int(fieldIDColumn)
	kind, field, ok := LookupField(fieldID)
	if !ok || field.Protected() {
		return false
	}

	var attrs *domain.ExtendedAttributes
	var task *domain.Task
	switch kind {
	case EntityTask:
		task = rt.Project.TaskByUniqueID(entityID)
		if task != nil {
			attrs = &task.Attributes
		}
	case EntityResource:
		if r := rt.Project.ResourceByUniqueID(entityID); r != nil {
			attrs = &r.Attributes
		}
	case EntityAssignment:
		if entityID != nil {
			if a := rt.Assignments[*entityID]; a != nil {
				attrs = &a.Attributes
			}
		}
	}
	if attrs == nil {
		return false
	}

	if field.Kind.Currency() {
		value = descale(value)
	}
	if field.Kind == domain.FieldSubprojectFile {
		if task == nil {
			return false
		}
		s, ok := value.(*string)
		if !ok {
			return false
		}
		task.SubprojectFile = s
		return true
	}
	return attrs.Set(field.Kind, field.Slot, value)
}

func descale(value any) any {
	switch v := value.(type) {
	case *float64:
		return Currency(v)
	case float64:
		return v / 100
	}
	return value
}

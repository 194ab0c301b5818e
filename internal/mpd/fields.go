package mpd

import (
	"fmt"

	"mpdimport/internal/domain"
)

// Field id namespaces, held in the bits above the low 16 of a packed field id.
const (
	TaskNamespace       = 0x0B400000
	ResourceNamespace   = 0x0C400000
	ConstraintNamespace = 0x0D400000
	AssignmentNamespace = 0x0F400000

	namespaceMask = -0x10000
	indexMask     = 0x0000FFFF
)

// EntityKind is the owner type a namespace routes to.
type EntityKind int

const (
	EntityTask EntityKind = iota + 1
	EntityResource
	EntityAssignment
)

func (k EntityKind) String() string {
	switch k {
	case EntityTask:
		return "task"
	case EntityResource:
		return "resource"
	case EntityAssignment:
		return "assignment"
	}
	return "unknown"
}

// Field is one routable attribute: a kind and, for numbered families, a 1-based slot.
type Field struct {
	Kind domain.FieldKind
	Slot int
}

func (f Field) String() string {
	if f.Slot == 0 {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s%d", f.Kind, f.Slot)
}

// Protected fields have dedicated columns and are never set by the router.
func (f Field) Protected() bool { return f.Kind == domain.FieldNotes }

// SplitFieldID separates a packed field id into namespace prefix and index.
func SplitFieldID(fieldID int) (prefix, index int) {
	return fieldID & namespaceMask, fieldID & indexMask
}

// LookupField resolves a packed field id. ok is false for namespaces and
// indices that are not routed.
func LookupField(fieldID int) (EntityKind, Field, bool) {
	prefix, index := SplitFieldID(fieldID)
	var (
		kind  EntityKind
		table map[int]Field
	)
	switch prefix {
	case TaskNamespace:
		kind, table = EntityTask, taskFields
	case ResourceNamespace:
		kind, table = EntityResource, resourceFields
	case AssignmentNamespace:
		kind, table = EntityAssignment, assignmentFields
	default:
		return 0, Field{}, false
	}
	f, ok := table[index]
	return kind, f, ok
}

// FieldID returns the packed id of f in the namespace of kind.
func FieldID(kind EntityKind, f Field) (int, bool) {
	var (
		table     map[int]Field
		namespace int
	)
	switch kind {
	case EntityTask:
		table, namespace = taskFields, TaskNamespace
	case EntityResource:
		table, namespace = resourceFields, ResourceNamespace
	case EntityAssignment:
		table, namespace = assignmentFields, AssignmentNamespace
	default:
		return 0, false
	}
	for index, candidate := range table {
		if candidate == f {
			return namespace | index, true
		}
	}
	return 0, false
}

type slotRun struct {
	kind      domain.FieldKind
	firstSlot int
	indices   []int
}

func run(kind domain.FieldKind, firstSlot int, indices ...int) slotRun {
	return slotRun{kind: kind, firstSlot: firstSlot, indices: indices}
}

func seq(start, count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = start + i
	}
	return out
}

func step(start, count, stride int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = start + i*stride
	}
	return out
}

func buildTable(singles map[int]domain.FieldKind, runs ...slotRun) map[int]Field {
	table := map[int]Field{}
	for index, kind := range singles {
		table[index] = Field{Kind: kind}
	}
	for _, r := range runs {
		for i, index := range r.indices {
			if _, dup := table[index]; dup {
				panic(fmt.Sprintf("mpd: field index %d mapped twice", index))
			}
			table[index] = Field{Kind: r.kind, Slot: r.firstSlot + i}
		}
	}
	return table
}

// The numbered families 4+ share one layout across the three namespaces.
func extendedRuns() []slotRun {
	return []slotRun{
		run(domain.FieldCost, 4, seq(258, 7)...),
		run(domain.FieldDate, 1, seq(265, 10)...),
		run(domain.FieldDuration, 4, seq(275, 7)...),
		run(domain.FieldStart, 6, seq(282, 5)...),
		run(domain.FieldFinish, 6, seq(287, 5)...),
		run(domain.FieldFlag, 11, seq(292, 10)...),
		run(domain.FieldNumber, 6, seq(302, 15)...),
		run(domain.FieldText, 11, seq(317, 20)...),
	}
}

var taskFields = buildTable(
	map[int]domain.FieldKind{
		15: domain.FieldNotes,
		97: domain.FieldSubprojectFile,
	},
	append([]slotRun{
		run(domain.FieldText, 1, 51, 54, 57, 60, 63, 66, 67, 68, 69, 70),
		run(domain.FieldStart, 1, 52, 55, 58, 61, 64),
		run(domain.FieldFinish, 1, 53, 56, 59, 62, 65),
		run(domain.FieldFlag, 1, seq(72, 10)...),
		run(domain.FieldNumber, 1, seq(87, 5)...),
		run(domain.FieldDuration, 1, seq(103, 3)...),
		run(domain.FieldCost, 1, seq(106, 3)...),
		run(domain.FieldOutlineCode, 1, step(416, 10, 2)...),
	}, extendedRuns()...)...,
)

var resourceFields = buildTable(
	map[int]domain.FieldKind{
		20: domain.FieldNotes,
	},
	append([]slotRun{
		run(domain.FieldText, 1, 8, 9, 30, 31, 32, 51, 52, 53, 54, 55),
		run(domain.FieldStart, 1, seq(102, 5)...),
		run(domain.FieldFinish, 1, seq(107, 5)...),
		run(domain.FieldNumber, 1, seq(112, 5)...),
		run(domain.FieldDuration, 1, seq(117, 3)...),
		run(domain.FieldCost, 1, seq(123, 3)...),
		run(domain.FieldFlag, 1, seq(127, 10)...),
		run(domain.FieldOutlineCode, 1, step(416, 10, 2)...),
	}, extendedRuns()...)...,
)

var assignmentFields = buildTable(
	map[int]domain.FieldKind{
		71: domain.FieldNotes,
	},
	append([]slotRun{
		run(domain.FieldText, 1, seq(8, 10)...),
		run(domain.FieldStart, 1, seq(18, 5)...),
		run(domain.FieldFinish, 1, seq(23, 5)...),
		run(domain.FieldNumber, 1, seq(28, 5)...),
		run(domain.FieldDuration, 1, seq(33, 3)...),
		run(domain.FieldCost, 1, seq(36, 3)...),
		run(domain.FieldFlag, 1, seq(39, 10)...),
	}, extendedRuns()...)...,
)

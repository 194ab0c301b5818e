package mpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpdimport/internal/domain"
)

func TestLookupField(t *testing.T) {
	tests := []struct {
		fieldID int
		entity  EntityKind
		field   Field
	}{
		{TaskNamespace | 51, EntityTask, Field{Kind: domain.FieldText, Slot: 1}},
		{TaskNamespace | 63, EntityTask, Field{Kind: domain.FieldText, Slot: 5}},
		{TaskNamespace | 70, EntityTask, Field{Kind: domain.FieldText, Slot: 10}},
		{TaskNamespace | 336, EntityTask, Field{Kind: domain.FieldText, Slot: 30}},
		{TaskNamespace | 106, EntityTask, Field{Kind: domain.FieldCost, Slot: 1}},
		{TaskNamespace | 264, EntityTask, Field{Kind: domain.FieldCost, Slot: 10}},
		{TaskNamespace | 434, EntityTask, Field{Kind: domain.FieldOutlineCode, Slot: 10}},
		{TaskNamespace | 97, EntityTask, Field{Kind: domain.FieldSubprojectFile}},
		{ResourceNamespace | 9, EntityResource, Field{Kind: domain.FieldText, Slot: 2}},
		{ResourceNamespace | 127, EntityResource, Field{Kind: domain.FieldFlag, Slot: 1}},
		{AssignmentNamespace | 17, EntityAssignment, Field{Kind: domain.FieldText, Slot: 10}},
		{AssignmentNamespace | 316, EntityAssignment, Field{Kind: domain.FieldNumber, Slot: 20}},
	}
	for _, tt := range tests {
		entity, field, ok := LookupField(tt.fieldID)
		require.True(t, ok, "field id %#x", tt.fieldID)
		assert.Equal(t, tt.entity, entity, "field id %#x", tt.fieldID)
		assert.Equal(t, tt.field, field, "field id %#x", tt.fieldID)
	}

	_, _, ok := LookupField(ConstraintNamespace | 8)
	assert.False(t, ok)
	_, _, ok = LookupField(TaskNamespace | 2)
	assert.False(t, ok)
}

func TestFieldIDRoundTrip(t *testing.T) {
	for _, entity := range []EntityKind{EntityTask, EntityResource, EntityAssignment} {
		id, ok := FieldID(entity, Field{Kind: domain.FieldText, Slot: 1})
		require.True(t, ok)
		gotEntity, gotField, ok := LookupField(id)
		require.True(t, ok)
		assert.Equal(t, entity, gotEntity)
		assert.Equal(t, Field{Kind: domain.FieldText, Slot: 1}, gotField)
	}
	_, ok := FieldID(EntityAssignment, Field{Kind: domain.FieldOutlineCode, Slot: 1})
	assert.False(t, ok)
}

func TestSplitFieldID(t *testing.T) {
	prefix, index := SplitFieldID(0x0B400000 | 63)
	assert.Equal(t, TaskNamespace, prefix)
	assert.Equal(t, 63, index)
}

func TestFieldProtected(t *testing.T) {
	for _, id := range []int{TaskNamespace | 15, ResourceNamespace | 20, AssignmentNamespace | 71} {
		_, f, ok := LookupField(id)
		require.True(t, ok)
		assert.True(t, f.Protected(), "field id %#x", id)
	}
	assert.Equal(t, "text5", Field{Kind: domain.FieldText, Slot: 5}.String())
	assert.Equal(t, "notes", Field{Kind: domain.FieldNotes}.String())
}

func newRouterProject() (*domain.Project, *domain.Task, *domain.Resource, *domain.Assignment) {
	p := domain.NewProject()
	task := &domain.Task{UniqueID: 1}
	res := &domain.Resource{UniqueID: 2}
	p.AddTask(task)
	p.AddResource(res)
	uid := 3
	a := &domain.Assignment{UniqueID: &uid, Resource: res}
	task.AddAssignment(a)
	p.AddAssignment(a)
	return p, task, res, a
}

func fieldRow(fieldID int) Row {
	return NewMapRow(map[string]any{"FIELD_ID": fieldID})
}

func TestRouterRoute(t *testing.T) {
	p, task, res, a := newRouterProject()
	rt := Router{Project: p, Assignments: map[int]*domain.Assignment{3: a}}
	ref := func(v int) *int { return &v }
	text := func(s string) *string { return &s }

	assert.True(t, rt.Route(fieldRow(TaskNamespace|54), "FIELD_ID", ref(1), text("span")))
	assert.Equal(t, "span", *task.Attributes.Text[1])

	cost := 2550.0
	assert.True(t, rt.Route(fieldRow(ResourceNamespace|123), "FIELD_ID", ref(2), &cost))
	assert.Equal(t, 25.5, *res.Attributes.Cost[0])

	assert.True(t, rt.Route(fieldRow(AssignmentNamespace|39), "FIELD_ID", ref(3), true))
	assert.True(t, *a.Attributes.Flag[0])

	// Text5 sits at index 63 of the task table; the bare slot number is not a field index.
	assert.True(t, rt.Route(fieldRow(TaskNamespace|63), "FIELD_ID", ref(1), text("deck")))
	assert.Equal(t, "deck", *task.Attributes.Text[4])
	assert.False(t, rt.Route(fieldRow(TaskNamespace|5), "FIELD_ID", ref(1), text("deck")))

	assert.True(t, rt.Route(fieldRow(TaskNamespace|97), "FIELD_ID", ref(1), text(`D:\sub.mpp`)))
	assert.Equal(t, `D:\sub.mpp`, *task.SubprojectFile)

	assert.False(t, rt.Route(fieldRow(TaskNamespace|15), "FIELD_ID", ref(1), text("notes")))
	assert.Nil(t, task.Notes)
	assert.False(t, rt.Route(fieldRow(ConstraintNamespace|8), "FIELD_ID", ref(1), text("x")))
	assert.False(t, rt.Route(fieldRow(TaskNamespace|54), "FIELD_ID", ref(99), text("x")))
	assert.False(t, rt.Route(fieldRow(AssignmentNamespace|8), "FIELD_ID", nil, text("x")))
	assert.False(t, rt.Route(fieldRow(TaskNamespace|54), "FIELD_ID", ref(1), 42), "wrong value type")
}

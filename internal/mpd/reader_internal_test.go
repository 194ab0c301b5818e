package mpd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceRejectsOutOfOrderPhases(t *testing.T) {
	r := NewReader(ReaderConfig{ProjectID: 1})

	require.NoError(t, r.advance(phaseProperties))
	require.NoError(t, r.advance(phaseCalendars))

	err := r.advance(phaseResources)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resources cannot follow calendars")
	assert.Equal(t, phaseCalendars, r.phase)

	assert.Error(t, r.advance(phaseCalendars), "a phase never repeats")
	require.NoError(t, r.advance(phaseCalendarHours))

	r.Reset()
	assert.Equal(t, phaseEmpty, r.phase)
	assert.Error(t, r.advance(phaseFinalized))
}

func TestPhaseNames(t *testing.T) {
	for p := phaseEmpty; p <= phaseFinalized; p++ {
		assert.NotEmpty(t, phaseNames[p])
		assert.False(t, strings.HasPrefix(p.String(), "phase("))
	}
	assert.Equal(t, "phase(99)", phase(99).String())
}

func TestReadEmptySource(t *testing.T) {
	src := NewSnapshotSource(map[string][]map[string]any{
		TableProjects:       nil,
		TableCalendars:      nil,
		TableCalendarData:   nil,
		TableResources:      nil,
		TableTasks:          nil,
		TableLinks:          nil,
		TableAssignments:    nil,
		TableTextFields:     nil,
		TableNumberFields:   nil,
		TableFlagFields:     nil,
		TableDurationFields: nil,
		TableDateFields:     nil,
		TableCodeFields:     nil,
		TableOutlineCodes:   nil,
	})
	r := NewReader(ReaderConfig{ProjectID: 5})
	p, err := r.Read(context.Background(), src)
	require.NoError(t, err)
	assert.Nil(t, p.Properties.Name)
	assert.Equal(t, 480, p.Properties.MinutesPerDay)
	assert.Empty(t, p.Tasks)
	assert.Equal(t, 1, p.Config.NextTaskUniqueID)

	assert.Equal(t, phaseEmpty, r.phase, "session state is cleared after a read")
	assert.Nil(t, r.project)
}

func TestReadMissingRequiredTable(t *testing.T) {
	src := NewSnapshotSource(map[string][]map[string]any{
		TableProjects: nil,
	})
	_, err := NewReader(ReaderConfig{ProjectID: 1}).Read(context.Background(), src)
	require.ErrorIs(t, err, ErrReadFailed)
	assert.Contains(t, err.Error(), "calendars")
}

package events

import (
	"context"
	"database/sql"
	"strconv"
	"sync"

	"mpdimport/internal/domain"
)

// Event types appended for entity notifications.
const (
	CalendarRead   = "calendar.read"
	ResourceRead   = "resource.read"
	TaskRead       = "task.read"
	RelationRead   = "relation.read"
	AssignmentRead = "assignment.read"
)

type pending struct {
	evtType    string
	entityKind string
	entityID   string
	payload    EventPayload
}

// Recorder is a domain.Listener that buffers entity notifications until the
// import run is persisted with Flush.
type Recorder struct {
	mu      sync.Mutex
	pending []pending
}

var _ domain.Listener = (*Recorder)(nil)

func (r *Recorder) add(evtType, kind, id string, payload EventPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, pending{evtType: evtType, entityKind: kind, entityID: id, payload: payload})
}

// Len reports the number of buffered notifications.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Flush appends the buffered notifications to importID in arrival order and
// empties the buffer.
func (r *Recorder) Flush(ctx context.Context, tx *sql.Tx, w Writer, importID string) error {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()
	for _, p := range batch {
		if err := w.Append(ctx, tx, p.evtType, importID, p.entityKind, p.entityID, p.payload); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) CalendarRead(c *domain.Calendar) error {
	r.add(CalendarRead, "calendar", strconv.Itoa(c.UniqueID), EventPayload{
		"name": stringOrNil(c.Name),
		"base": c.Base,
	})
	return nil
}

func (r *Recorder) ResourceRead(res *domain.Resource) error {
	r.add(ResourceRead, "resource", strconv.Itoa(res.UniqueID), EventPayload{
		"name": stringOrNil(res.Name),
		"type": res.Type.String(),
	})
	return nil
}

func (r *Recorder) TaskRead(t *domain.Task) error {
	r.add(TaskRead, "task", strconv.Itoa(t.UniqueID), EventPayload{
		"name":          stringOrNil(t.Name),
		"outline_level": intOrNil(t.OutlineLevel),
	})
	return nil
}

func (r *Recorder) RelationRead(rel *domain.Relation) error {
	payload := EventPayload{
		"type": rel.Type.String(),
		"lag":  rel.Lag.String(),
	}
	if rel.Predecessor != nil {
		payload["predecessor"] = rel.Predecessor.UniqueID
	}
	if rel.Successor != nil {
		payload["successor"] = rel.Successor.UniqueID
	}
	r.add(RelationRead, "relation", idString(rel.UniqueID), payload)
	return nil
}

func (r *Recorder) AssignmentRead(a *domain.Assignment) error {
	payload := EventPayload{"units": a.Units}
	if a.Task != nil {
		payload["task"] = a.Task.UniqueID
	}
	if a.Resource != nil {
		payload["resource"] = a.Resource.UniqueID
	}
	r.add(AssignmentRead, "assignment", idString(a.UniqueID), payload)
	return nil
}

func idString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func stringOrNil(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

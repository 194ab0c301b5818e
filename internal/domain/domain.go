package domain

// SourceProject is one project row available in a record source.
type SourceProject struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ImportRun is the persisted record of one import attempt.
type ImportRun struct {
	ID          string       `json:"id"`
	Source      string       `json:"source"`
	SourceKind  string       `json:"source_kind" enum:"database,snapshot"`
	ProjectID   int          `json:"project_id"`
	ProjectName string       `json:"project_name,omitempty"`
	Status      string       `json:"status" enum:"running,succeeded,failed"`
	Error       string       `json:"error,omitempty"`
	Counts      ImportCounts `json:"counts"`
	ActorID     string       `json:"actor_id"`
	StartedAt   string       `json:"started_at" format:"date-time"`
	FinishedAt  *string      `json:"finished_at,omitempty" format:"date-time"`
}

// ImportCounts summarises what an import produced.
type ImportCounts struct {
	Calendars   int `json:"calendars"`
	Resources   int `json:"resources"`
	Tasks       int `json:"tasks"`
	Relations   int `json:"relations"`
	Assignments int `json:"assignments"`
	SubProjects int `json:"subprojects"`
}

// CountProject tallies the entities of p.
func CountProject(p *Project) ImportCounts {
	if p == nil {
		return ImportCounts{}
	}
	return ImportCounts{
		Calendars:   len(p.Calendars),
		Resources:   len(p.Resources),
		Tasks:       len(p.Tasks),
		Relations:   len(p.Relations),
		Assignments: len(p.Assignments),
		SubProjects: len(p.SubProjects),
	}
}

// ImportEvent is one logged entity notification of an import run.
type ImportEvent struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	ImportID   string         `json:"import_id"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	Payload    map[string]any `json:"payload"`
}

package server

import (
	"mpdimport/internal/domain"
)

// Request payloads

type ImportRequest struct {
	Source                 string `json:"source,omitempty" doc:"MPD database path or .yml/.yaml snapshot; defaults to the configured source"`
	ProjectID              int    `json:"project_id,omitempty" minimum:"0" doc:"Project to import; required when the source holds more than one"`
	PreserveNoteFormatting *bool  `json:"preserve_note_formatting,omitempty"`
}

type DevLoginRequest struct {
	ActorID     string   `json:"actor_id"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Response payloads

type DevLoginResponse struct {
	Token string `json:"token"`
}

type ProjectListResponse struct {
	Source string                 `json:"source"`
	Items  []domain.SourceProject `json:"items"`
}

type MeResponse struct {
	ActorID     string   `json:"actor_id"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	Source      string   `json:"source"`
}

type paginatedImports struct {
	Items      []domain.ImportRun `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

type paginatedImportEvents struct {
	Items      []domain.ImportEvent `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

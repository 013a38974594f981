// CLAUDE:SUMMARY All store data types: Project, Revision, Animation, EditLogEntry.
package store

// Project is one website project. DocumentJSON is the serialized document
// model (files, shared assets, manifest); the store never looks inside it.
type Project struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DocumentJSON string `json:"document_json"`
	ActivePage   string `json:"active_page"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// Revision is an explicit save point a user can restore.
type Revision struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	Label        string `json:"label"`
	DocumentJSON string `json:"document_json"`
	CreatedAt    int64  `json:"created_at"`
}

// Animation is a persisted animation descriptor. Properties and timing are
// JSON strings in the descriptor's wire shape.
type Animation struct {
	ID             string `json:"id"`
	ProjectID      string `json:"project_id"`
	TargetID       string `json:"target_id"`
	AnimType       string `json:"anim_type"`
	Trigger        string `json:"trigger"`
	PropertiesJSON string `json:"properties"`
	TimingJSON     string `json:"timing"`
	Enabled        bool   `json:"enabled"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

// EditLogEntry is one structural or style operation, appended as it
// happens. Detail carries op-specific context (breakpoint, drop index).
type EditLogEntry struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	SessionID   string `json:"session_id"`
	Op          string `json:"op"`
	ComponentID string `json:"component_id"`
	PageID      string `json:"page_id"`
	Detail      string `json:"detail"`
	EditedAt    int64  `json:"edited_at"`
}

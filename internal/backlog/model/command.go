package model

// EntityAction is the kind of change an entity-level suggestion or update
// command carries.
type EntityAction string

const (
	ActionCreate EntityAction = "CREATE"
	ActionUpdate EntityAction = "UPDATE"
	ActionDelete EntityAction = "DELETE"
)

// UpdateCommand is the unit handed to the persistence layer: either the
// verbatim payload of an accepted entity suggestion, or a synthesized UPDATE
// carrying only accepted field values. Nil pointer fields mean "leave the
// stored value alone". Tasks nests one level; tasks never nest further.
type UpdateCommand struct {
	Action      EntityAction    `json:"action"`
	Identifier  string          `json:"identifier,omitempty"`
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
	Tasks       []UpdateCommand `json:"tasks,omitempty"`
}

// IsEmpty reports whether the command carries no field values and no task
// fragments. Empty synthesized commands are not emitted.
func (c UpdateCommand) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && c.Checklist == nil && len(c.Tasks) == 0
}

// TaskOperation is one entry of an ordered operation list applied to a task
// collection. CREATE may omit the identifier (a synthetic one is assigned
// upstream); UPDATE and DELETE require one.
type TaskOperation struct {
	Action      EntityAction    `json:"action"`
	Identifier  string          `json:"identifier,omitempty"`
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
}

// StringPtr returns a pointer to s. Handy for literal command payloads.
func StringPtr(s string) *string { return &s }

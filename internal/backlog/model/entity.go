package model

// ChecklistItem is one entry of a task's ordered checklist.
// Items are keyed by Title when two checklists are compared.
type ChecklistItem struct {
	Title      string `json:"title"`
	IsComplete bool   `json:"is_complete"`
	Order      int    `json:"order"`
}

type Task struct {
	Identifier  string          `json:"identifier"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
}

type Initiative struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Tasks       []Task `json:"tasks,omitempty"`
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	out := t
	if t.Checklist != nil {
		out.Checklist = make([]ChecklistItem, len(t.Checklist))
		copy(out.Checklist, t.Checklist)
	}
	return out
}

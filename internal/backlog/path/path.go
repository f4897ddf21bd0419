// Package path defines the addressing scheme for suggestions. A path points
// at an initiative, one of its scalar fields, a task, or a task field:
//
//	initiative.<id>
//	initiative.<id>.<field>
//	initiative.<id>.tasks.<taskId>
//	initiative.<id>.tasks.<taskId>.<field>
//
// Paths are small comparable structs rather than raw strings so that prefix
// scoping and recursive lookups are structural matches; "initiative.1" can
// never swallow "initiative.10".
package path

import (
	"fmt"
	"strings"
)

// Field names one scalar field of an initiative or task.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
)

// Fields returns the scalar fields in their declared enumeration order.
// Aggregation copies field values in this order so its output is stable.
func Fields() []Field {
	return []Field{FieldTitle, FieldDescription}
}

func validField(f Field) bool {
	return f == FieldTitle || f == FieldDescription
}

// Path is the closed set of address shapes. All implementations are
// comparable structs, so Path values are usable as map keys.
type Path interface {
	String() string
	isPath()
}

// InitiativePath addresses an initiative as a whole.
type InitiativePath struct {
	ID string
}

// InitiativeFieldPath addresses one scalar field of an initiative.
type InitiativeFieldPath struct {
	ID    string
	Field Field
}

// TaskPath addresses a task as a whole.
type TaskPath struct {
	InitiativeID string
	TaskID       string
}

// TaskFieldPath addresses one scalar field of a task.
type TaskFieldPath struct {
	InitiativeID string
	TaskID       string
	Field        Field
}

func (InitiativePath) isPath()      {}
func (InitiativeFieldPath) isPath() {}
func (TaskPath) isPath()            {}
func (TaskFieldPath) isPath()       {}

func (p InitiativePath) String() string {
	return "initiative." + p.ID
}

func (p InitiativeFieldPath) String() string {
	return fmt.Sprintf("initiative.%s.%s", p.ID, p.Field)
}

func (p TaskPath) String() string {
	return fmt.Sprintf("initiative.%s.tasks.%s", p.InitiativeID, p.TaskID)
}

func (p TaskFieldPath) String() string {
	return fmt.Sprintf("initiative.%s.tasks.%s.%s", p.InitiativeID, p.TaskID, p.Field)
}

// Parse turns a path string into its structural form.
func Parse(s string) (Path, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || parts[0] != "initiative" || parts[1] == "" {
		return nil, fmt.Errorf("path %q: must start with initiative.<id>", s)
	}
	id := parts[1]

	switch len(parts) {
	case 2:
		return InitiativePath{ID: id}, nil
	case 3:
		if parts[2] == "tasks" {
			return nil, fmt.Errorf("path %q: dangling tasks segment", s)
		}
		f := Field(parts[2])
		if !validField(f) {
			return nil, fmt.Errorf("path %q: unknown field %q", s, parts[2])
		}
		return InitiativeFieldPath{ID: id, Field: f}, nil
	case 4:
		if parts[2] != "tasks" || parts[3] == "" {
			return nil, fmt.Errorf("path %q: expected tasks.<taskId>", s)
		}
		return TaskPath{InitiativeID: id, TaskID: parts[3]}, nil
	case 5:
		if parts[2] != "tasks" || parts[3] == "" {
			return nil, fmt.Errorf("path %q: expected tasks.<taskId>.<field>", s)
		}
		f := Field(parts[4])
		if !validField(f) {
			return nil, fmt.Errorf("path %q: unknown field %q", s, parts[4])
		}
		return TaskFieldPath{InitiativeID: id, TaskID: parts[3], Field: f}, nil
	default:
		return nil, fmt.Errorf("path %q: too many segments", s)
	}
}

// ParsePrefix parses a prefix for a bulk operation. Only whole-entity shapes
// are accepted: a bulk call scopes to one initiative or one task, never to a
// single field or to a bare ".tasks" group, otherwise the recursive
// settlement rules would have no well-defined subtree to settle.
func ParsePrefix(s string) (Path, error) {
	p, err := Parse(s)
	if err != nil {
		return nil, err
	}
	switch p.(type) {
	case InitiativePath, TaskPath:
		return p, nil
	default:
		return nil, fmt.Errorf("prefix %q: must address an initiative or a task, not a field", s)
	}
}

// Contains reports whether p lies within the subtree rooted at prefix.
// A path always contains itself. Only entity-shaped prefixes own subtrees.
func Contains(prefix, p Path) bool {
	if prefix == p {
		return true
	}
	switch pre := prefix.(type) {
	case InitiativePath:
		switch sub := p.(type) {
		case InitiativeFieldPath:
			return sub.ID == pre.ID
		case TaskPath:
			return sub.InitiativeID == pre.ID
		case TaskFieldPath:
			return sub.InitiativeID == pre.ID
		}
	case TaskPath:
		if sub, ok := p.(TaskFieldPath); ok {
			return sub.InitiativeID == pre.InitiativeID && sub.TaskID == pre.TaskID
		}
	}
	return false
}

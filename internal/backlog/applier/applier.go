// Package applier applies an ordered list of task operations to a task
// collection without mutating the input.
package applier

import (
	"log"

	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/model"
)

// Apply runs ops over base in list order and returns the resulting
// collection. The base slice and its tasks are never modified.
//
// Rules:
//   - CREATE appends; if a task with the same identifier already exists the
//     create degrades to an update of that task, so a later explicit
//     operation on the identifier always beats a stale duplicate.
//   - UPDATE shallow-merges non-nil fields over the matching task; an update
//     for an unknown identifier is promoted to a create so it never silently
//     vanishes.
//   - DELETE removes the matching task; deleting an unknown identifier is a
//     no-op.
//   - UPDATE or DELETE without an identifier cannot be addressed and is
//     skipped. CREATE without an identifier is fine (synthetic ids are
//     assigned upstream).
//
// If two operations target the same identifier, the later one wins.
func Apply(base []model.Task, ops []model.TaskOperation) []model.Task {
	tasks := make([]model.Task, len(base))
	for i, t := range base {
		tasks[i] = t.Clone()
	}

	for _, op := range ops {
		switch op.Action {
		case model.ActionCreate:
			tasks = applyCreate(tasks, op)
		case model.ActionUpdate:
			if op.Identifier == "" {
				log.Printf("applier: ignoring UPDATE without identifier (title=%v)", deref(op.Title))
				continue
			}
			tasks = applyUpdate(tasks, op)
		case model.ActionDelete:
			if op.Identifier == "" {
				log.Printf("applier: ignoring DELETE without identifier")
				continue
			}
			tasks = applyDelete(tasks, op.Identifier)
		default:
			log.Printf("applier: ignoring operation with unknown action %q", op.Action)
		}
	}
	return tasks
}

func applyCreate(tasks []model.Task, op model.TaskOperation) []model.Task {
	if op.Identifier != "" {
		if i := indexOf(tasks, op.Identifier); i >= 0 {
			tasks[i] = merge(tasks[i], op)
			return tasks
		}
	}
	return append(tasks, taskFrom(op))
}

func applyUpdate(tasks []model.Task, op model.TaskOperation) []model.Task {
	i := indexOf(tasks, op.Identifier)
	if i < 0 {
		return append(tasks, taskFrom(op))
	}
	tasks[i] = merge(tasks[i], op)
	return tasks
}

func applyDelete(tasks []model.Task, id string) []model.Task {
	i := indexOf(tasks, id)
	if i < 0 {
		return tasks
	}
	return append(tasks[:i], tasks[i+1:]...)
}

func indexOf(tasks []model.Task, id string) int {
	for i := range tasks {
		if tasks[i].Identifier == id {
			return i
		}
	}
	return -1
}

// merge overlays the operation's non-nil fields onto a copy of t.
func merge(t model.Task, op model.TaskOperation) model.Task {
	out := t.Clone()
	if op.Title != nil {
		out.Title = *op.Title
	}
	if op.Description != nil {
		out.Description = *op.Description
	}
	if op.Checklist != nil {
		out.Checklist = make([]model.ChecklistItem, len(op.Checklist))
		copy(out.Checklist, op.Checklist)
	}
	return out
}

func taskFrom(op model.TaskOperation) model.Task {
	t := model.Task{Identifier: op.Identifier}
	return merge(t, op)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package resolution

import (
	"log"

	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/path"
)

// IsFullyResolved reports whether everything under prefix is settled, or
// whether the whole session is settled when prefix is empty. An invalid
// prefix is logged and answered with false.
//
// An entity is settled once its own entity suggestion is decided; deciding
// the whole entity supersedes its individual fields. Absent an entity-level
// decision, settlement is reached fragment by fragment: every field
// suggestion decided and, for initiatives, every task settled. An entity
// with no suggestions at all is vacuously settled.
func (s *Session) IsFullyResolved(prefix string) bool {
	if prefix == "" {
		for _, id := range s.initiativeIDs() {
			if !s.initiativeSettled(id) {
				return false
			}
		}
		return true
	}
	p, err := path.ParsePrefix(prefix)
	if err != nil {
		log.Printf("resolution: isFullyResolved: %v", err)
		return false
	}
	switch pp := p.(type) {
	case path.InitiativePath:
		return s.initiativeSettled(pp.ID)
	case path.TaskPath:
		return s.taskSettled(pp.InitiativeID, pp.TaskID)
	}
	return false
}

func (s *Session) initiativeSettled(id string) bool {
	ip := path.InitiativePath{ID: id}
	_, hasEntity := s.index.Get(ip)
	if hasEntity && s.resolutions[ip].Resolved {
		return true
	}

	fields := s.initiativeFieldPaths(id)
	taskIDs := s.taskIDs(id)
	if len(fields) == 0 && len(taskIDs) == 0 {
		// Nothing under it: vacuously settled unless an undecided
		// entity suggestion is the only thing there is.
		return !hasEntity
	}
	if hasEntity && len(fields) == 0 {
		// The undecided entity suggestion is itself an unsettled
		// fragment; settled tasks alone cannot supersede it.
		return false
	}
	for _, fp := range fields {
		if !s.resolutions[fp].Resolved {
			return false
		}
	}
	for _, tid := range taskIDs {
		if !s.taskSettled(id, tid) {
			return false
		}
	}
	return true
}

func (s *Session) taskSettled(initiativeID, taskID string) bool {
	tp := path.TaskPath{InitiativeID: initiativeID, TaskID: taskID}
	_, hasEntity := s.index.Get(tp)
	if hasEntity && s.resolutions[tp].Resolved {
		return true
	}

	fields := s.taskFieldPaths(initiativeID, taskID)
	if len(fields) == 0 {
		return !hasEntity
	}
	for _, fp := range fields {
		if !s.resolutions[fp].Resolved {
			return false
		}
	}
	return true
}

// initiativeIDs lists every initiative identifier present in the index, in
// discovery order.
func (s *Session) initiativeIDs() []string {
	var ids []string
	seen := make(map[string]bool)
	for _, p := range s.index.Paths() {
		var id string
		switch pp := p.(type) {
		case path.InitiativePath:
			id = pp.ID
		case path.InitiativeFieldPath:
			id = pp.ID
		case path.TaskPath:
			id = pp.InitiativeID
		case path.TaskFieldPath:
			id = pp.InitiativeID
		}
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// taskIDs lists every task identifier under one initiative, in discovery
// order.
func (s *Session) taskIDs(initiativeID string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, p := range s.index.Paths() {
		var id string
		switch pp := p.(type) {
		case path.TaskPath:
			if pp.InitiativeID == initiativeID {
				id = pp.TaskID
			}
		case path.TaskFieldPath:
			if pp.InitiativeID == initiativeID {
				id = pp.TaskID
			}
		}
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Session) initiativeFieldPaths(id string) []path.Path {
	var out []path.Path
	for _, p := range s.index.Paths() {
		if fp, ok := p.(path.InitiativeFieldPath); ok && fp.ID == id {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) taskFieldPaths(initiativeID, taskID string) []path.Path {
	var out []path.Path
	for _, p := range s.index.Paths() {
		if fp, ok := p.(path.TaskFieldPath); ok && fp.InitiativeID == initiativeID && fp.TaskID == taskID {
			out = append(out, p)
		}
	}
	return out
}

package resolution

import (
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/model"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/path"
)

// AcceptedChanges reduces the current resolution state into the minimal list
// of update commands to submit. It is a pure read: calling it any number of
// times with no intervening Resolve or Rollback yields identical output.
//
// Per initiative: an accepted entity suggestion passes its value through
// verbatim and suppresses all field and task aggregation for that
// initiative. Otherwise a synthesized UPDATE is built from the accepted
// field values plus the task fragments produced by the same rule one level
// down; a command carrying nothing is not emitted.
func (s *Session) AcceptedChanges() []model.UpdateCommand {
	var out []model.UpdateCommand
	for _, id := range s.initiativeIDs() {
		if cmd, ok := s.initiativeCommand(id); ok {
			out = append(out, cmd)
		}
	}
	return out
}

func (s *Session) initiativeCommand(id string) (model.UpdateCommand, bool) {
	ip := path.InitiativePath{ID: id}
	if sugg, ok := s.index.Get(ip); ok {
		if res := s.resolutions[ip]; res.Resolved && res.Accepted {
			return passthrough(sugg, res), true
		}
	}

	cmd := model.UpdateCommand{Action: model.ActionUpdate, Identifier: id}
	for _, f := range path.Fields() {
		fp := path.InitiativeFieldPath{ID: id, Field: f}
		if _, ok := s.index.Get(fp); !ok {
			continue
		}
		if res := s.resolutions[fp]; res.Resolved && res.Accepted {
			setField(&cmd, f, res.Value)
		}
	}
	for _, tid := range s.taskIDs(id) {
		if tcmd, ok := s.taskCommand(id, tid); ok {
			cmd.Tasks = append(cmd.Tasks, tcmd)
		}
	}

	if cmd.IsEmpty() {
		return model.UpdateCommand{}, false
	}
	return cmd, true
}

func (s *Session) taskCommand(initiativeID, taskID string) (model.UpdateCommand, bool) {
	tp := path.TaskPath{InitiativeID: initiativeID, TaskID: taskID}
	if sugg, ok := s.index.Get(tp); ok {
		if res := s.resolutions[tp]; res.Resolved && res.Accepted {
			return passthrough(sugg, res), true
		}
	}

	cmd := model.UpdateCommand{Action: model.ActionUpdate, Identifier: taskID}
	for _, f := range path.Fields() {
		fp := path.TaskFieldPath{InitiativeID: initiativeID, TaskID: taskID, Field: f}
		if _, ok := s.index.Get(fp); !ok {
			continue
		}
		if res := s.resolutions[fp]; res.Resolved && res.Accepted {
			setField(&cmd, f, res.Value)
		}
	}

	if cmd.IsEmpty() {
		return model.UpdateCommand{}, false
	}
	return cmd, true
}

// passthrough returns the resolved value of an accepted entity suggestion
// verbatim, backfilling action and identifier from the suggestion when the
// payload omits them.
func passthrough(sugg Suggestion, res Resolution) model.UpdateCommand {
	cmd, ok := res.Value.(model.UpdateCommand)
	if !ok {
		cmd = sugg.Payload
	}
	if cmd.Action == "" {
		cmd.Action = sugg.Action
	}
	if cmd.Identifier == "" {
		cmd.Identifier = sugg.EntityIdentifier
	}
	return cmd
}

func setField(cmd *model.UpdateCommand, f path.Field, v any) {
	val, ok := v.(string)
	if !ok {
		return
	}
	switch f {
	case path.FieldTitle:
		cmd.Title = model.StringPtr(val)
	case path.FieldDescription:
		cmd.Description = model.StringPtr(val)
	}
}

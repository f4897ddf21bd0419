package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/model"
)

// BacklogStore persists initiatives and their tasks as a graph:
// (:Initiative)-[:HAS_TASK]->(:Task). Checklists are stored as a JSON string
// property on the task node since graph properties cannot nest.
type BacklogStore struct {
	Driver GraphDriver
}

func NewBacklogStore(d GraphDriver) *BacklogStore {
	return &BacklogStore{Driver: d}
}

// ApplyChanges submits aggregated update commands in order. Commands are
// translated to MERGE-based upserts, so an UPDATE for an entity that no
// longer exists simply creates it and a DELETE for a missing entity is a
// no-op, mirroring the applier's recovery rules.
func (s *BacklogStore) ApplyChanges(ctx context.Context, cmds []model.UpdateCommand) error {
	for _, cmd := range cmds {
		if err := s.applyInitiativeCommand(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (s *BacklogStore) applyInitiativeCommand(ctx context.Context, cmd model.UpdateCommand) error {
	id := cmd.Identifier

	switch cmd.Action {
	case model.ActionDelete:
		if id == "" {
			log.Printf("driver: ignoring initiative DELETE without identifier")
			return nil
		}
		_, err := s.Driver.ExecuteQuery(ctx, DeleteInitiativeQuery, map[string]interface{}{
			"identifier": id,
		})
		return err

	case model.ActionCreate, model.ActionUpdate:
		if id == "" {
			id = uuid.NewString()
		}
		_, err := s.Driver.ExecuteQuery(ctx, UpsertInitiativeQuery, map[string]interface{}{
			"identifier":  id,
			"title":       nullable(cmd.Title),
			"description": nullable(cmd.Description),
		})
		if err != nil {
			return err
		}
		for _, tc := range cmd.Tasks {
			if err := s.applyTaskCommand(ctx, id, tc); err != nil {
				return err
			}
		}
		return nil

	default:
		log.Printf("driver: ignoring command with unknown action %q", cmd.Action)
		return nil
	}
}

func (s *BacklogStore) applyTaskCommand(ctx context.Context, initiativeID string, cmd model.UpdateCommand) error {
	id := cmd.Identifier

	switch cmd.Action {
	case model.ActionDelete:
		if id == "" {
			log.Printf("driver: ignoring task DELETE without identifier")
			return nil
		}
		_, err := s.Driver.ExecuteQuery(ctx, DeleteTaskQuery, map[string]interface{}{
			"initiative": initiativeID,
			"identifier": id,
		})
		return err

	case model.ActionCreate, model.ActionUpdate:
		if id == "" {
			id = uuid.NewString()
		}
		var checklist interface{}
		if cmd.Checklist != nil {
			data, err := json.Marshal(cmd.Checklist)
			if err != nil {
				return fmt.Errorf("failed to serialize checklist: %w", err)
			}
			checklist = string(data)
		}
		_, err := s.Driver.ExecuteQuery(ctx, UpsertTaskQuery, map[string]interface{}{
			"initiative":  initiativeID,
			"identifier":  id,
			"title":       nullable(cmd.Title),
			"description": nullable(cmd.Description),
			"checklist":   checklist,
		})
		return err

	default:
		log.Printf("driver: ignoring task command with unknown action %q", cmd.Action)
		return nil
	}
}

// GetInitiative loads one initiative with its tasks and checklists.
func (s *BacklogStore) GetInitiative(ctx context.Context, identifier string) (*model.Initiative, error) {
	result, err := s.Driver.ExecuteQuery(ctx, GetInitiativeQuery, map[string]interface{}{
		"identifier": identifier,
	})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("initiative %s not found", identifier)
	}

	var initiative *model.Initiative
	for _, rec := range result.Records {
		if initiative == nil {
			raw, ok := rec.Get("i")
			if !ok {
				continue
			}
			node, ok := raw.(neo4j.Node)
			if !ok {
				continue
			}
			initiative = &model.Initiative{
				Identifier:  stringProp(node, "identifier"),
				Title:       stringProp(node, "title"),
				Description: stringProp(node, "description"),
			}
		}
		raw, ok := rec.Get("t")
		if !ok || raw == nil {
			continue
		}
		node, ok := raw.(neo4j.Node)
		if !ok {
			continue
		}
		initiative.Tasks = append(initiative.Tasks, taskFromNode(node))
	}
	if initiative == nil {
		return nil, fmt.Errorf("initiative %s not found", identifier)
	}
	return initiative, nil
}

// ListInitiatives returns every initiative without tasks, for the roadmap.
func (s *BacklogStore) ListInitiatives(ctx context.Context) ([]model.Initiative, error) {
	result, err := s.Driver.ExecuteQuery(ctx, ListInitiativesQuery, nil)
	if err != nil {
		return nil, err
	}

	var out []model.Initiative
	for _, rec := range result.Records {
		raw, ok := rec.Get("i")
		if !ok {
			continue
		}
		node, ok := raw.(neo4j.Node)
		if !ok {
			continue
		}
		out = append(out, model.Initiative{
			Identifier:  stringProp(node, "identifier"),
			Title:       stringProp(node, "title"),
			Description: stringProp(node, "description"),
		})
	}
	return out, nil
}

func taskFromNode(node neo4j.Node) model.Task {
	t := model.Task{
		Identifier:  stringProp(node, "identifier"),
		Title:       stringProp(node, "title"),
		Description: stringProp(node, "description"),
	}
	if raw := stringProp(node, "checklist"); raw != "" {
		var items []model.ChecklistItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			log.Printf("driver: task %s: bad checklist payload: %v", t.Identifier, err)
		} else {
			t.Checklist = items
		}
	}
	return t
}

func stringProp(node neo4j.Node, key string) string {
	if v, ok := node.Props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// Package proposal turns a chat instruction into an indexed set of
// suggestions over one initiative: it prompts the LLM, parses the structured
// edit payload out of the response, and addresses every proposed change by
// path so a resolution session can be opened over it.
package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/model"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/path"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/resolution"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/config"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/llm"
)

// Payload is the JSON document the assistant is asked to produce. Changes
// reuse the update-command shape, so an accepted whole-entity suggestion can
// be passed through to persistence verbatim.
type Payload struct {
	Message string                `json:"message"`
	Changes []model.UpdateCommand `json:"changes"`
}

// Proposal is the output of one chat turn: the assistant's prose answer plus
// the suggestion index to review.
type Proposal struct {
	Message string
	Index   *resolution.Index
}

type Proposer struct {
	LLM     llm.LLMClient
	Prompts config.PromptsConfig
}

func NewProposer(client llm.LLMClient, prompts config.PromptsConfig) *Proposer {
	return &Proposer{
		LLM:     client,
		Prompts: prompts,
	}
}

// Propose asks the assistant for edits to the initiative and indexes them.
func (p *Proposer) Propose(ctx context.Context, initiative model.Initiative, instruction string) (*Proposal, error) {
	current, err := json.MarshalIndent(initiative, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize initiative: %w", err)
	}

	prompt := fmt.Sprintf(p.Prompts.Propose, string(current), instruction)

	response, err := p.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate proposal: %w", err)
	}

	payload, err := ParseJSON[Payload](response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proposal: %w", err)
	}

	return &Proposal{
		Message: payload.Message,
		Index:   BuildIndex(initiative, payload.Changes),
	}, nil
}

// BuildIndex addresses every change in the payload by path.
//
// An initiative UPDATE decomposes into field suggestions (and task
// suggestions for its task list) so the reviewer can decide each edit on its
// own; CREATE and DELETE stay whole-entity. Task UPDATEs decompose the same
// way when the task is known and only scalar fields change; checklist edits
// and updates to unknown tasks stay whole-entity because there is no field
// path to hang them on. CREATE proposals get a synthetic placeholder id in
// their path since no stable identifier exists yet.
func BuildIndex(initiative model.Initiative, changes []model.UpdateCommand) *resolution.Index {
	idx := resolution.NewIndex()

	for _, ch := range changes {
		switch ch.Action {
		case model.ActionCreate:
			id := ch.Identifier
			if id == "" {
				id = uuid.NewString()
			}
			idx.Add(path.InitiativePath{ID: id}, resolution.Suggestion{
				Kind:    resolution.KindEntity,
				Action:  model.ActionCreate,
				Payload: ch,
			})

		case model.ActionDelete:
			if ch.Identifier == "" {
				log.Printf("proposal: ignoring initiative DELETE without identifier")
				continue
			}
			idx.Add(path.InitiativePath{ID: ch.Identifier}, resolution.Suggestion{
				Kind:             resolution.KindEntity,
				Action:           model.ActionDelete,
				EntityIdentifier: ch.Identifier,
				Payload:          ch,
			})

		case model.ActionUpdate:
			id := ch.Identifier
			if id == "" {
				id = initiative.Identifier
			}
			addFieldSuggestion(idx, path.InitiativeFieldPath{ID: id, Field: path.FieldTitle}, initiative.Title, ch.Title)
			addFieldSuggestion(idx, path.InitiativeFieldPath{ID: id, Field: path.FieldDescription}, initiative.Description, ch.Description)
			for _, tc := range ch.Tasks {
				indexTaskChange(idx, initiative, id, tc)
			}

		default:
			log.Printf("proposal: ignoring change with unknown action %q", ch.Action)
		}
	}

	return idx
}

func indexTaskChange(idx *resolution.Index, initiative model.Initiative, initiativeID string, tc model.UpdateCommand) {
	switch tc.Action {
	case model.ActionCreate:
		tid := tc.Identifier
		if tid == "" {
			tid = uuid.NewString()
		}
		idx.Add(path.TaskPath{InitiativeID: initiativeID, TaskID: tid}, resolution.Suggestion{
			Kind:    resolution.KindEntity,
			Action:  model.ActionCreate,
			Payload: tc,
		})

	case model.ActionDelete:
		if tc.Identifier == "" {
			log.Printf("proposal: ignoring task DELETE without identifier")
			return
		}
		idx.Add(path.TaskPath{InitiativeID: initiativeID, TaskID: tc.Identifier}, resolution.Suggestion{
			Kind:             resolution.KindEntity,
			Action:           model.ActionDelete,
			EntityIdentifier: tc.Identifier,
			Payload:          tc,
		})

	case model.ActionUpdate:
		if tc.Identifier == "" {
			log.Printf("proposal: ignoring task UPDATE without identifier")
			return
		}
		orig, found := findTask(initiative, tc.Identifier)
		if !found || tc.Checklist != nil {
			idx.Add(path.TaskPath{InitiativeID: initiativeID, TaskID: tc.Identifier}, resolution.Suggestion{
				Kind:             resolution.KindEntity,
				Action:           model.ActionUpdate,
				EntityIdentifier: tc.Identifier,
				Payload:          tc,
			})
			return
		}
		tp := path.TaskPath{InitiativeID: initiativeID, TaskID: tc.Identifier}
		addFieldSuggestion(idx, path.TaskFieldPath{InitiativeID: tp.InitiativeID, TaskID: tp.TaskID, Field: path.FieldTitle}, orig.Title, tc.Title)
		addFieldSuggestion(idx, path.TaskFieldPath{InitiativeID: tp.InitiativeID, TaskID: tp.TaskID, Field: path.FieldDescription}, orig.Description, tc.Description)

	default:
		log.Printf("proposal: ignoring task change with unknown action %q", tc.Action)
	}
}

// addFieldSuggestion records a field suggestion when the payload actually
// carries a value for the field and that value differs from the original. A
// nil value means the assistant did not suggest anything for the field.
func addFieldSuggestion(idx *resolution.Index, p path.Path, original string, suggested *string) {
	if suggested == nil || *suggested == original {
		return
	}
	var field path.Field
	switch fp := p.(type) {
	case path.InitiativeFieldPath:
		field = fp.Field
	case path.TaskFieldPath:
		field = fp.Field
	}
	idx.Add(p, resolution.Suggestion{
		Kind:           resolution.KindField,
		Field:          field,
		OriginalValue:  original,
		SuggestedValue: *suggested,
	})
}

func findTask(initiative model.Initiative, id string) (model.Task, bool) {
	for _, t := range initiative.Tasks {
		if t.Identifier == id {
			return t, true
		}
	}
	return model.Task{}, false
}

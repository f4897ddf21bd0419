package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/applier"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/fielddiff"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/model"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/path"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/resolution"
)

func (s *Server) GetInitiative(c *gin.Context) {
	initiative, err := s.Store.GetInitiative(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Initiative not found"})
		return
	}
	c.JSON(http.StatusOK, initiative)
}

type ProposeRequest struct {
	Instruction string `json:"instruction"`
}

func (s *Server) Propose(c *gin.Context) {
	var req ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	initiative, err := s.Store.GetInitiative(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Initiative not found"})
		return
	}

	prop, err := s.Proposer.Propose(c.Request.Context(), *initiative, req.Instruction)
	if err != nil {
		log.Printf("Failed to generate proposal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate proposal"})
		return
	}

	session := &reviewSession{
		ID:         uuid.NewString(),
		Initiative: *initiative,
		Message:    prop.Message,
		Session:    resolution.NewSession(prop.Index),
	}
	s.sessions.Add(session)

	c.JSON(http.StatusOK, gin.H{
		"session_id":  session.ID,
		"message":     session.Message,
		"suggestions": s.suggestionViews(session),
	})
}

type suggestionView struct {
	Path           string                `json:"path"`
	Kind           string                `json:"kind"`
	Action         model.EntityAction    `json:"action,omitempty"`
	Field          path.Field            `json:"field,omitempty"`
	OriginalValue  string                `json:"original_value,omitempty"`
	SuggestedValue string                `json:"suggested_value,omitempty"`
	Payload        *model.UpdateCommand  `json:"payload,omitempty"`
	Hunks          []fielddiff.Hunk      `json:"hunks,omitempty"`
	Diff           *fielddiff.EntityDiff `json:"diff,omitempty"`
}

// suggestionViews renders the index for the review UI, attaching the
// computed diff for each suggestion.
func (s *Server) suggestionViews(rs *reviewSession) []suggestionView {
	var out []suggestionView
	for _, p := range rs.Session.Index().Paths() {
		sugg, _ := rs.Session.Index().Get(p)
		view := suggestionView{Path: p.String()}

		if sugg.Kind == resolution.KindField {
			view.Kind = "field"
			view.Field = sugg.Field
			view.OriginalValue = sugg.OriginalValue
			view.SuggestedValue = sugg.SuggestedValue
			hunks, err := fielddiff.TextDiff(sugg.OriginalValue, sugg.SuggestedValue)
			if err != nil {
				log.Printf("Failed to diff %s: %v", p, err)
			} else {
				view.Hunks = hunks
			}
			out = append(out, view)
			continue
		}

		view.Kind = "entity"
		view.Action = sugg.Action
		payload := sugg.Payload
		view.Payload = &payload
		if sugg.Action == model.ActionUpdate {
			if tp, ok := p.(path.TaskPath); ok {
				for _, t := range rs.Initiative.Tasks {
					if t.Identifier == tp.TaskID {
						d := fielddiff.ComputeTask(t, sugg.Payload)
						view.Diff = &d
						break
					}
				}
			}
		}
		out = append(out, view)
	}
	return out
}

type ResolveRequest struct {
	Path     string          `json:"path"`
	Accepted bool            `json:"accepted"`
	Value    json.RawMessage `json:"value,omitempty"`
}

func (s *Server) Resolve(c *gin.Context) {
	rs, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	p, err := path.Parse(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	value, err := decodeValue(rs, p, req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := rs.Session.Resolve(p, req.Accepted, value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}

// decodeValue interprets an override value according to the suggestion at p:
// a plain string for field suggestions, an update command for entity ones.
func decodeValue(rs *reviewSession, p path.Path, raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	sugg, ok := rs.Session.Index().Get(p)
	if !ok {
		return nil, nil
	}
	if sugg.Kind == resolution.KindField {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	var cmd model.UpdateCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

type RollbackRequest struct {
	Path string `json:"path"`
}

func (s *Server) Rollback(c *gin.Context) {
	rs, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req RollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	p, err := path.Parse(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rs.Session.Rollback(p)
	c.JSON(http.StatusOK, gin.H{"status": "rolled back"})
}

type BulkRequest struct {
	Prefix string `json:"prefix,omitempty"`
}

func (s *Server) AcceptAll(c *gin.Context) {
	s.bulk(c, func(rs *reviewSession, prefix string) { rs.Session.AcceptAll(prefix) })
}

func (s *Server) RejectAll(c *gin.Context) {
	s.bulk(c, func(rs *reviewSession, prefix string) { rs.Session.RejectAll(prefix) })
}

func (s *Server) RollbackAll(c *gin.Context) {
	s.bulk(c, func(rs *reviewSession, prefix string) { rs.Session.RollbackAll(prefix) })
}

func (s *Server) bulk(c *gin.Context, apply func(*reviewSession, string)) {
	rs, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req BulkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}

	// Reject malformed prefixes here so the client hears about them; the
	// engine would only log and ignore.
	if req.Prefix != "" {
		if _, err := path.ParsePrefix(req.Prefix); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	apply(rs, req.Prefix)
	c.JSON(http.StatusOK, gin.H{"fully_resolved": rs.Session.IsFullyResolved(req.Prefix)})
}

func (s *Server) State(c *gin.Context) {
	rs, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	p, err := path.Parse(c.Query("path"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rs.Session.State(p))
}

func (s *Server) Resolved(c *gin.Context) {
	rs, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	prefix := c.Query("prefix")
	if prefix != "" {
		if _, err := path.ParsePrefix(prefix); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"fully_resolved": rs.Session.IsFullyResolved(prefix)})
}

// Preview renders the initiative as it would look if the currently accepted
// changes were saved, without touching the store.
func (s *Server) Preview(c *gin.Context) {
	rs, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	preview := rs.Initiative
	for _, cmd := range rs.Session.AcceptedChanges() {
		if cmd.Identifier != rs.Initiative.Identifier || cmd.Action != model.ActionUpdate {
			continue
		}
		if cmd.Title != nil {
			preview.Title = *cmd.Title
		}
		if cmd.Description != nil {
			preview.Description = *cmd.Description
		}
		ops := make([]model.TaskOperation, 0, len(cmd.Tasks))
		for _, tc := range cmd.Tasks {
			ops = append(ops, model.TaskOperation{
				Action:      tc.Action,
				Identifier:  tc.Identifier,
				Title:       tc.Title,
				Description: tc.Description,
				Checklist:   tc.Checklist,
			})
		}
		preview.Tasks = applier.Apply(preview.Tasks, ops)
	}

	c.JSON(http.StatusOK, preview)
}

func (s *Server) Save(c *gin.Context) {
	rs, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	changes := rs.Session.AcceptedChanges()
	if err := s.Store.ApplyChanges(c.Request.Context(), changes); err != nil {
		log.Printf("Failed to apply changes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply changes"})
		return
	}

	s.sessions.Remove(rs.ID)
	c.JSON(http.StatusOK, gin.H{"applied": len(changes)})
}

func (s *Server) Discard(c *gin.Context) {
	if _, ok := s.sessions.Get(c.Param("id")); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	s.sessions.Remove(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "discarded"})
}

func (s *Server) Roadmap(c *gin.Context) {
	initiatives, err := s.Store.ListInitiatives(c.Request.Context())
	if err != nil {
		log.Printf("Failed to list initiatives: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list initiatives"})
		return
	}

	focus := c.Query("focus")
	if focus == "" || len(initiatives) < 2 {
		c.JSON(http.StatusOK, gin.H{"initiatives": initiatives})
		return
	}

	items := make([]string, len(initiatives))
	for i, in := range initiatives {
		items[i] = in.Title + ": " + in.Description
	}
	indices, err := s.Ranker.Rank(c.Request.Context(), focus, items)
	if err != nil {
		log.Printf("Failed to rank initiatives: %v", err)
		c.JSON(http.StatusOK, gin.H{"initiatives": initiatives})
		return
	}

	c.JSON(http.StatusOK, gin.H{"initiatives": reorder(initiatives, indices)})
}

// reorder applies a ranked index list, dropping out-of-range or repeated
// entries and appending anything the ranker forgot in stored order.
func reorder(initiatives []model.Initiative, indices []int) []model.Initiative {
	out := make([]model.Initiative, 0, len(initiatives))
	seen := make(map[int]bool)
	for _, i := range indices {
		if i < 0 || i >= len(initiatives) || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, initiatives[i])
	}
	for i, in := range initiatives {
		if !seen[i] {
			out = append(out, in)
		}
	}
	return out
}

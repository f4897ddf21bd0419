package resolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/model"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/path"
)

func entityUpdate(id, title string) Suggestion {
	return Suggestion{
		Kind:             KindEntity,
		Action:           model.ActionUpdate,
		EntityIdentifier: id,
		Payload: model.UpdateCommand{
			Action:     model.ActionUpdate,
			Identifier: id,
			Title:      model.StringPtr(title),
		},
	}
}

func fieldSuggestion(f path.Field, original, suggested string) Suggestion {
	return Suggestion{
		Kind:           KindField,
		Field:          f,
		OriginalValue:  original,
		SuggestedValue: suggested,
	}
}

func TestEntityPassthroughVerbatim(t *testing.T) {
	idx := NewIndex()
	idx.Add(path.InitiativePath{ID: "A"}, entityUpdate("A", "X"))
	s := NewSession(idx)

	require.NoError(t, s.Resolve(path.InitiativePath{ID: "A"}, true, nil))

	got := s.AcceptedChanges()
	require.Len(t, got, 1)
	assert.Equal(t, model.ActionUpdate, got[0].Action)
	assert.Equal(t, "A", got[0].Identifier)
	require.NotNil(t, got[0].Title)
	assert.Equal(t, "X", *got[0].Title)
	assert.Empty(t, got[0].Tasks)
}

func TestFieldAggregationOmitsUnaccepted(t *testing.T) {
	idx := NewIndex()
	idx.Add(path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}, fieldSuggestion(path.FieldTitle, "Old", "New"))
	idx.Add(path.InitiativeFieldPath{ID: "A", Field: path.FieldDescription}, fieldSuggestion(path.FieldDescription, "D1", "D2"))
	s := NewSession(idx)

	require.NoError(t, s.Resolve(path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}, true, nil))

	got := s.AcceptedChanges()
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Identifier)
	require.NotNil(t, got[0].Title)
	assert.Equal(t, "New", *got[0].Title)
	assert.Nil(t, got[0].Description)
}

func TestAcceptedTaskCreateNestsUnderInitiativeUpdate(t *testing.T) {
	idx := NewIndex()
	tp := path.TaskPath{InitiativeID: "A", TaskID: "T1"}
	idx.Add(tp, Suggestion{
		Kind:   KindEntity,
		Action: model.ActionCreate,
		Payload: model.UpdateCommand{
			Action: model.ActionCreate,
			Title:  model.StringPtr("Task"),
		},
	})
	s := NewSession(idx)

	require.NoError(t, s.Resolve(tp, true, nil))

	got := s.AcceptedChanges()
	require.Len(t, got, 1)
	assert.Equal(t, model.ActionUpdate, got[0].Action)
	assert.Equal(t, "A", got[0].Identifier)
	require.Len(t, got[0].Tasks, 1)
	assert.Equal(t, model.ActionCreate, got[0].Tasks[0].Action)
	assert.Empty(t, got[0].Tasks[0].Identifier, "CREATE has no stable identifier")
	assert.Equal(t, "Task", *got[0].Tasks[0].Title)
}

func TestEntityPrecedenceOverFields(t *testing.T) {
	idx := NewIndex()
	idx.Add(path.InitiativePath{ID: "A"}, entityUpdate("A", "Whole"))
	idx.Add(path.InitiativeFieldPath{ID: "A", Field: path.FieldDescription}, fieldSuggestion(path.FieldDescription, "D1", "D2"))
	s := NewSession(idx)

	s.AcceptAll("")

	got := s.AcceptedChanges()
	require.Len(t, got, 1)
	// Verbatim payload only, never a merged field aggregate.
	assert.Equal(t, "Whole", *got[0].Title)
	assert.Nil(t, got[0].Description)
}

func TestRejectedEntityFallsBackToFieldAggregation(t *testing.T) {
	idx := NewIndex()
	idx.Add(path.InitiativePath{ID: "A"}, entityUpdate("A", "Whole"))
	idx.Add(path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}, fieldSuggestion(path.FieldTitle, "Old", "New"))
	idx.Add(path.InitiativeFieldPath{ID: "A", Field: path.FieldDescription}, fieldSuggestion(path.FieldDescription, "D1", "D2"))
	s := NewSession(idx)

	require.NoError(t, s.Resolve(path.InitiativePath{ID: "A"}, false, nil))
	require.NoError(t, s.Resolve(path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}, true, nil))
	require.NoError(t, s.Resolve(path.InitiativeFieldPath{ID: "A", Field: path.FieldDescription}, true, nil))

	got := s.AcceptedChanges()
	require.Len(t, got, 1)
	assert.Equal(t, "New", *got[0].Title)
	assert.Equal(t, "D2", *got[0].Description)
}

func TestAllRejectedEmitsNothing(t *testing.T) {
	idx := NewIndex()
	idx.Add(path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}, fieldSuggestion(path.FieldTitle, "Old", "New"))
	s := NewSession(idx)

	s.RejectAll("")
	assert.Empty(t, s.AcceptedChanges())
	assert.True(t, s.IsFullyResolved(""))
}

func TestUntouchedEmitsNothing(t *testing.T) {
	idx := NewIndex()
	idx.Add(path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}, fieldSuggestion(path.FieldTitle, "Old", "New"))
	s := NewSession(idx)

	assert.Empty(t, s.AcceptedChanges())
	assert.False(t, s.IsFullyResolved(""))
}

func TestAcceptedChangesIsIdempotent(t *testing.T) {
	idx := NewIndex()
	idx.Add(path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}, fieldSuggestion(path.FieldTitle, "Old", "New"))
	idx.Add(path.TaskPath{InitiativeID: "A", TaskID: "T1"}, Suggestion{
		Kind:    KindEntity,
		Action:  model.ActionCreate,
		Payload: model.UpdateCommand{Action: model.ActionCreate, Title: model.StringPtr("Task")},
	})
	idx.Add(path.InitiativeFieldPath{ID: "B", Field: path.FieldDescription}, fieldSuggestion(path.FieldDescription, "1", "2"))
	s := NewSession(idx)

	s.AcceptAll("")

	first := s.AcceptedChanges()
	second := s.AcceptedChanges()
	assert.Equal(t, first, second)

	// Deterministic discovery order: A before B.
	require.Len(t, first, 2)
	assert.Equal(t, "A", first[0].Identifier)
	assert.Equal(t, "B", first[1].Identifier)
}

func TestResolveValueOverride(t *testing.T) {
	idx := NewIndex()
	fp := path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}
	idx.Add(fp, fieldSuggestion(path.FieldTitle, "Old", "New"))
	s := NewSession(idx)

	require.NoError(t, s.Resolve(fp, true, "Edited by hand"))

	got := s.AcceptedChanges()
	require.Len(t, got, 1)
	assert.Equal(t, "Edited by hand", *got[0].Title)
}

func TestRejectRecordsOriginalForFields(t *testing.T) {
	idx := NewIndex()
	fp := path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}
	idx.Add(fp, fieldSuggestion(path.FieldTitle, "Old", "New"))
	ip := path.InitiativePath{ID: "B"}
	idx.Add(ip, entityUpdate("B", "X"))
	s := NewSession(idx)

	require.NoError(t, s.Resolve(fp, false, nil))
	require.NoError(t, s.Resolve(ip, false, nil))

	assert.Equal(t, Resolution{Resolved: true, Accepted: false, Value: "Old"}, s.State(fp))
	// Entity suggestions carry no original value.
	assert.Equal(t, Resolution{Resolved: true, Accepted: false, Value: nil}, s.State(ip))
}

func TestResolveUnknownPathErrors(t *testing.T) {
	s := NewSession(NewIndex())
	err := s.Resolve(path.InitiativePath{ID: "missing"}, true, nil)
	assert.Error(t, err)
}

func TestRollbackReturnsToUndecided(t *testing.T) {
	idx := NewIndex()
	fp := path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}
	idx.Add(fp, fieldSuggestion(path.FieldTitle, "Old", "New"))
	s := NewSession(idx)

	require.NoError(t, s.Resolve(fp, true, nil))
	assert.True(t, s.IsFullyResolved("initiative.A"))

	s.Rollback(fp)
	assert.Equal(t, Resolution{}, s.State(fp))
	assert.False(t, s.IsFullyResolved("initiative.A"))
	assert.Empty(t, s.AcceptedChanges())
}

func TestBulkAcceptScopedByPrefix(t *testing.T) {
	idx := NewIndex()
	idx.Add(path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}, fieldSuggestion(path.FieldTitle, "a1", "a2"))
	idx.Add(path.InitiativeFieldPath{ID: "A", Field: path.FieldDescription}, fieldSuggestion(path.FieldDescription, "d1", "d2"))
	idx.Add(path.InitiativeFieldPath{ID: "A2", Field: path.FieldTitle}, fieldSuggestion(path.FieldTitle, "b1", "b2"))
	s := NewSession(idx)

	s.AcceptAll("initiative.A")

	assert.True(t, s.IsFullyResolved("initiative.A"))
	assert.False(t, s.IsFullyResolved("initiative.A2"), "structurally scoped, not a string prefix")
	assert.False(t, s.IsFullyResolved(""))

	got := s.AcceptedChanges()
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Identifier)
	assert.Equal(t, "a2", *got[0].Title)
	assert.Equal(t, "d2", *got[0].Description)
}

func TestBulkWithInvalidPrefixIsNoop(t *testing.T) {
	idx := NewIndex()
	fp := path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}
	idx.Add(fp, fieldSuggestion(path.FieldTitle, "Old", "New"))
	s := NewSession(idx)

	// Field paths are not valid bulk prefixes.
	s.AcceptAll("initiative.A.title")
	assert.Equal(t, Resolution{}, s.State(fp))
	assert.False(t, s.IsFullyResolved("initiative.A.title"))
}

func TestBulkRollbackAll(t *testing.T) {
	idx := NewIndex()
	idx.Add(path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}, fieldSuggestion(path.FieldTitle, "a1", "a2"))
	idx.Add(path.TaskFieldPath{InitiativeID: "A", TaskID: "T1", Field: path.FieldTitle}, fieldSuggestion(path.FieldTitle, "t1", "t2"))
	s := NewSession(idx)

	s.AcceptAll("")
	require.True(t, s.IsFullyResolved(""))

	s.RollbackAll("initiative.A.tasks.T1")
	assert.False(t, s.IsFullyResolved(""))
	assert.True(t, s.State(path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}).Resolved)
}

func TestSettlementRules(t *testing.T) {
	idx := NewIndex()
	ip := path.InitiativePath{ID: "A"}
	tp := path.TaskPath{InitiativeID: "A", TaskID: "T1"}
	tfp := path.TaskFieldPath{InitiativeID: "A", TaskID: "T1", Field: path.FieldTitle}
	idx.Add(ip, entityUpdate("A", "Whole"))
	idx.Add(tp, entityUpdate("T1", "Task whole"))
	idx.Add(tfp, fieldSuggestion(path.FieldTitle, "t1", "t2"))
	s := NewSession(idx)

	assert.False(t, s.IsFullyResolved("initiative.A"))

	// Deciding the task entity supersedes its undecided field.
	require.NoError(t, s.Resolve(tp, false, nil))
	assert.True(t, s.IsFullyResolved("initiative.A.tasks.T1"))
	assert.False(t, s.IsFullyResolved("initiative.A"), "initiative entity still undecided")

	// Deciding the initiative entity settles everything under it.
	require.NoError(t, s.Resolve(ip, false, nil))
	assert.True(t, s.IsFullyResolved("initiative.A"))
	assert.True(t, s.IsFullyResolved(""))
}

func TestUndecidedInitiativeEntityBlocksSettlement(t *testing.T) {
	// An initiative with an entity suggestion but no field suggestions of
	// its own: settling every task underneath must not settle the
	// initiative while its entity suggestion is still undecided.
	idx := NewIndex()
	ip := path.InitiativePath{ID: "A"}
	tp := path.TaskPath{InitiativeID: "A", TaskID: "T1"}
	idx.Add(ip, entityUpdate("A", "Whole"))
	idx.Add(tp, entityUpdate("T1", "Task whole"))
	s := NewSession(idx)

	require.NoError(t, s.Resolve(tp, false, nil))
	require.True(t, s.IsFullyResolved("initiative.A.tasks.T1"))

	assert.False(t, s.IsFullyResolved("initiative.A"))
	assert.False(t, s.IsFullyResolved(""))

	require.NoError(t, s.Resolve(ip, false, nil))
	assert.True(t, s.IsFullyResolved("initiative.A"))
	assert.True(t, s.IsFullyResolved(""))
}

func TestSettlementVacuousOnEmptySubtree(t *testing.T) {
	idx := NewIndex()
	idx.Add(path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}, fieldSuggestion(path.FieldTitle, "a", "b"))
	s := NewSession(idx)

	// No suggestions at all under initiative Z or task T9.
	assert.True(t, s.IsFullyResolved("initiative.Z"))
	assert.True(t, s.IsFullyResolved("initiative.A.tasks.T9"))
}

func TestSettlementMonotonicUntilRollback(t *testing.T) {
	idx := NewIndex()
	fp := path.InitiativeFieldPath{ID: "A", Field: path.FieldTitle}
	idx.Add(fp, fieldSuggestion(path.FieldTitle, "a", "b"))
	s := NewSession(idx)

	require.NoError(t, s.Resolve(fp, false, nil))
	require.True(t, s.IsFullyResolved("initiative.A"))

	// Re-deciding keeps it settled; only rollback unsettles.
	require.NoError(t, s.Resolve(fp, true, nil))
	assert.True(t, s.IsFullyResolved("initiative.A"))
	s.Rollback(fp)
	assert.False(t, s.IsFullyResolved("initiative.A"))
}

func TestIsFullyResolvedInvalidPrefixIsFalse(t *testing.T) {
	s := NewSession(NewIndex())
	assert.False(t, s.IsFullyResolved("initiative.A.title"))
	assert.False(t, s.IsFullyResolved("not-a-path"))
}

func TestTaskFieldAggregationBuildsTaskFragment(t *testing.T) {
	idx := NewIndex()
	tfp := path.TaskFieldPath{InitiativeID: "A", TaskID: "T1", Field: path.FieldDescription}
	idx.Add(tfp, fieldSuggestion(path.FieldDescription, "old", "new"))
	s := NewSession(idx)

	require.NoError(t, s.Resolve(tfp, true, nil))

	got := s.AcceptedChanges()
	require.Len(t, got, 1)
	require.Len(t, got[0].Tasks, 1)
	frag := got[0].Tasks[0]
	assert.Equal(t, model.ActionUpdate, frag.Action)
	assert.Equal(t, "T1", frag.Identifier)
	assert.Equal(t, "new", *frag.Description)
	assert.Nil(t, frag.Title)
}

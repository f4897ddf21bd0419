package resolution

import (
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/model"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/path"
)

// Kind separates the two suggestion variants.
type Kind int

const (
	// KindEntity proposes creating, rewriting or deleting a whole entity.
	KindEntity Kind = iota
	// KindField proposes a new value for exactly one scalar field.
	KindField
)

// Suggestion is one immutable proposed change, addressed by exactly one path.
type Suggestion struct {
	Kind Kind

	// Entity suggestions. EntityIdentifier is empty for CREATE proposals
	// whose path carries a synthetic placeholder id instead.
	Action           model.EntityAction
	EntityIdentifier string
	Payload          model.UpdateCommand

	// Field suggestions.
	Field          path.Field
	OriginalValue  string
	SuggestedValue string
}

// suggestedValue is what Resolve records when a suggestion is accepted
// without an explicit override.
func (s Suggestion) suggestedValue() any {
	if s.Kind == KindEntity {
		return s.Payload
	}
	return s.SuggestedValue
}

// Index is the read-only suggestion map for one review session. Insertion
// order is remembered: settlement and aggregation walk entities in discovery
// order so repeated reads produce identical output.
type Index struct {
	order  []path.Path
	byPath map[path.Path]Suggestion
}

func NewIndex() *Index {
	return &Index{byPath: make(map[path.Path]Suggestion)}
}

// Add records a suggestion under p. Re-adding a path replaces the suggestion
// but keeps its original position.
func (ix *Index) Add(p path.Path, s Suggestion) {
	if _, ok := ix.byPath[p]; !ok {
		ix.order = append(ix.order, p)
	}
	ix.byPath[p] = s
}

func (ix *Index) Get(p path.Path) (Suggestion, bool) {
	s, ok := ix.byPath[p]
	return s, ok
}

// Paths returns every path in discovery order.
func (ix *Index) Paths() []path.Path {
	return ix.order
}

func (ix *Index) Len() int {
	return len(ix.order)
}

// Package resolution holds the review-session state machine: a read-only
// suggestion index, a mutable per-path resolution map, the recursive
// settlement predicate and the aggregation of accepted changes into update
// commands.
package resolution

import (
	"fmt"
	"log"

	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/path"
)

// Resolution is the decision state for one path. The zero value means
// undecided; absence from the session map and the zero value are the same
// thing.
type Resolution struct {
	Resolved bool `json:"is_resolved"`
	Accepted bool `json:"is_accepted"`
	Value    any  `json:"resolved_value,omitempty"`
}

// Session owns the resolution state for one review of one proposal. It is
// not safe for concurrent use; a session belongs to a single reviewer and
// every operation runs to completion synchronously.
type Session struct {
	index       *Index
	resolutions map[path.Path]Resolution
}

func NewSession(index *Index) *Session {
	return &Session{
		index:       index,
		resolutions: make(map[path.Path]Resolution),
	}
}

// Index exposes the immutable suggestion index the session was opened with.
func (s *Session) Index() *Index {
	return s.index
}

// Resolve decides the suggestion at p. When accepted, the recorded value is
// the override if given, otherwise the suggestion's proposed value. When
// rejected, field suggestions record their original value; entity
// suggestions have no original value and record nothing.
func (s *Session) Resolve(p path.Path, accepted bool, value any) error {
	sugg, ok := s.index.Get(p)
	if !ok {
		return fmt.Errorf("resolve %s: no suggestion at path", p)
	}
	res := Resolution{Resolved: true, Accepted: accepted}
	if accepted {
		if value != nil {
			res.Value = value
		} else {
			res.Value = sugg.suggestedValue()
		}
	} else if sugg.Kind == KindField {
		res.Value = sugg.OriginalValue
	}
	s.resolutions[p] = res
	return nil
}

// Rollback returns p to undecided. Rolling back an undecided path is a no-op.
func (s *Session) Rollback(p path.Path) {
	delete(s.resolutions, p)
}

// State returns the resolution at p; undecided paths yield the zero value.
func (s *Session) State(p path.Path) Resolution {
	return s.resolutions[p]
}

// AcceptAll accepts every suggestion under prefix, or every suggestion when
// prefix is empty. An invalid prefix is logged and ignored; bulk operations
// are driven by UI events and must not fail a render.
func (s *Session) AcceptAll(prefix string) {
	s.bulk(prefix, func(p path.Path) {
		if err := s.Resolve(p, true, nil); err != nil {
			log.Printf("resolution: acceptAll: %v", err)
		}
	})
}

// RejectAll rejects every suggestion under prefix, or all when empty.
func (s *Session) RejectAll(prefix string) {
	s.bulk(prefix, func(p path.Path) {
		if err := s.Resolve(p, false, nil); err != nil {
			log.Printf("resolution: rejectAll: %v", err)
		}
	})
}

// RollbackAll returns every suggestion under prefix to undecided, or all
// when empty.
func (s *Session) RollbackAll(prefix string) {
	s.bulk(prefix, s.Rollback)
}

func (s *Session) bulk(prefix string, apply func(path.Path)) {
	var scope path.Path
	if prefix != "" {
		p, err := path.ParsePrefix(prefix)
		if err != nil {
			log.Printf("resolution: ignoring bulk operation: %v", err)
			return
		}
		scope = p
	}
	for _, p := range s.index.Paths() {
		if scope == nil || path.Contains(scope, p) {
			apply(p)
		}
	}
}

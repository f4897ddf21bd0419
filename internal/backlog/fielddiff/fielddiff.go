// Package fielddiff computes per-field structural diffs between a stored
// entity and a proposed update payload. It is consumed by the review UI; the
// resolution engine itself never looks at diffs.
package fielddiff

import (
	"fmt"
	"log"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/model"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/backlog/path"
)

// HunkOp marks a hunk as kept, removed or added text.
type HunkOp int

const (
	OpEqual HunkOp = iota
	OpDelete
	OpInsert
)

// Hunk is one run of whole lines sharing an operation.
type Hunk struct {
	Op   HunkOp `json:"op"`
	Text string `json:"text"`
}

// FieldDiff is the structured diff for one scalar field. A nil *FieldDiff
// means the field is unchanged (or the proposal carries no value for it).
type FieldDiff struct {
	Field path.Field `json:"field"`
	Hunks []Hunk     `json:"hunks"`
}

// EntityDiff summarizes everything that changed between a stored entity and
// its proposed payload.
type EntityDiff struct {
	Title            *FieldDiff `json:"title,omitempty"`
	Description      *FieldDiff `json:"description,omitempty"`
	ChecklistChanged bool       `json:"checklist_changed,omitempty"`
}

// lineDiff is the underlying diff primitive. It is a variable so tests can
// stand in a failing one; TextDiff treats it as fallible either way.
var lineDiff = diffLines

// TextDiff computes a line-level diff between old and new. It returns nil
// hunks when the two are textually identical after trailing-newline
// normalization. A panic inside the diff primitive surfaces as an error
// here, never past this package.
func TextDiff(old, new string) (hunks []Hunk, err error) {
	if old == new {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			hunks = nil
			err = fmt.Errorf("diff failed: %v", r)
		}
	}()

	// Line diffs misbehave when the last line has no terminator.
	hunks, err = lineDiff(ensureTrailingNewline(old), ensureTrailingNewline(new))
	if err != nil {
		return nil, err
	}

	changed := false
	for _, h := range hunks {
		if h.Op != OpEqual {
			changed = true
			break
		}
	}
	// Normalization can make two unequal inputs identical line-wise.
	if !changed {
		return nil, nil
	}
	return hunks, nil
}

func diffLines(old, new string) ([]Hunk, error) {
	dmp := diffmatchpatch.New()
	oldRunes, newRunes, lines := dmp.DiffLinesToRunes(old, new)
	diffs := dmp.DiffMainRunes(oldRunes, newRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	hunks := make([]Hunk, 0, len(diffs))
	for _, d := range diffs {
		h := Hunk{Text: d.Text}
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			h.Op = OpDelete
		case diffmatchpatch.DiffInsert:
			h.Op = OpInsert
		default:
			h.Op = OpEqual
		}
		hunks = append(hunks, h)
	}
	return hunks, nil
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// fieldDiff wraps TextDiff with the outward-facing degrade rules: a nil
// proposed value means "no suggestion for this field" and a diff failure is
// reported as unchanged rather than propagated.
func fieldDiff(f path.Field, original string, proposed *string) *FieldDiff {
	if proposed == nil {
		return nil
	}
	hunks, err := TextDiff(original, *proposed)
	if err != nil {
		log.Printf("fielddiff: %s: %v", f, err)
		return nil
	}
	if hunks == nil {
		return nil
	}
	return &FieldDiff{Field: f, Hunks: hunks}
}

// ComputeInitiative diffs an initiative's scalar fields against a proposed
// payload.
func ComputeInitiative(orig model.Initiative, proposed model.UpdateCommand) EntityDiff {
	return EntityDiff{
		Title:       fieldDiff(path.FieldTitle, orig.Title, proposed.Title),
		Description: fieldDiff(path.FieldDescription, orig.Description, proposed.Description),
	}
}

// ComputeTask diffs a task's scalar fields and checklist against a proposed
// payload.
func ComputeTask(orig model.Task, proposed model.UpdateCommand) EntityDiff {
	d := EntityDiff{
		Title:       fieldDiff(path.FieldTitle, orig.Title, proposed.Title),
		Description: fieldDiff(path.FieldDescription, orig.Description, proposed.Description),
	}
	if proposed.Checklist != nil {
		d.ChecklistChanged = ChecklistChanged(orig.Checklist, proposed.Checklist)
	}
	return d
}

// ChecklistChanged reports whether two checklists differ. Items are matched
// by title, so duplicate titles and renames are indistinguishable here; a
// rename reads as one removal plus one addition.
func ChecklistChanged(original, proposed []model.ChecklistItem) bool {
	if len(original) != len(proposed) {
		return true
	}
	byTitle := make(map[string]model.ChecklistItem, len(original))
	for _, it := range original {
		byTitle[it.Title] = it
	}
	seen := make(map[string]bool, len(proposed))
	for _, it := range proposed {
		prev, ok := byTitle[it.Title]
		if !ok {
			return true
		}
		if prev.IsComplete != it.IsComplete || prev.Order != it.Order {
			return true
		}
		seen[it.Title] = true
	}
	for title := range byTitle {
		if !seen[title] {
			return true
		}
	}
	return false
}

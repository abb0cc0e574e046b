package mosaic

import (
	"github.com/google/uuid"
)

// Direction moves the selection within the render grid.
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
	DirectionLeft
	DirectionRight
)

// HidePredicates are the visibility filters evaluated at render time. They
// never touch selection state; a unit can be selected and hidden at once.
type HidePredicates struct {
	Verified    bool `json:"hideVerified"`
	Unverified  bool `json:"hideUnverified"`
	Training    bool `json:"hideTraining"`
	NonTraining bool `json:"hideNonTraining"`
}

// Index is the render index: the materialized units in their current sort
// order, plus the arena lookup by association UUID. It belongs to the
// control thread and is not safe for concurrent use.
type Index struct {
	units   []*RenderUnit
	arena   map[uuid.UUID]*RenderUnit
	columns int
	Hide    HidePredicates
}

// NewIndex builds a render index over a materialization result. The initial
// order is by annotation timestamp.
func NewIndex(result *Result) *Index {
	x := &Index{
		units:   make([]*RenderUnit, 0, len(result.Arena)),
		arena:   result.Arena,
		columns: 1,
	}
	for _, unit := range result.Arena {
		x.units = append(x.units, unit)
	}
	// Ignore the error, the default method always exists
	_ = x.Sort([]string{SortByTimestamp, SortByUUID})
	return x
}

// Units returns the backing list in current sort order.
func (x *Index) Units() []*RenderUnit {
	return x.units
}

// Unit looks a render unit up by its association UUID.
func (x *Index) Unit(associationUUID uuid.UUID) *RenderUnit {
	return x.arena[associationUUID]
}

// Len returns the number of live units.
func (x *Index) Len() int {
	return len(x.units)
}

// SetColumns records the render grid's column count, used for relative
// selection moves.
func (x *Index) SetColumns(columns int) {
	if columns < 1 {
		columns = 1
	}
	x.columns = columns
}

// Columns returns the render grid's column count.
func (x *Index) Columns() int {
	return x.columns
}

// Hidden evaluates the hide predicates for one unit.
func (x *Index) Hidden(u *RenderUnit) bool {
	verified := u.Association.Verified()
	training := u.Association.IsTraining()
	if x.Hide.Verified && verified {
		return true
	}
	if x.Hide.Unverified && !verified {
		return true
	}
	if x.Hide.Training && training {
		return true
	}
	if x.Hide.NonTraining && !training {
		return true
	}
	return false
}

// VisibleUnits returns the units that pass the hide predicates, in current
// sort order. Grid position is the unit's position in this slice.
func (x *Index) VisibleUnits() []*RenderUnit {
	var visible []*RenderUnit
	for _, u := range x.units {
		if !x.Hidden(u) {
			visible = append(visible, u)
		}
	}
	return visible
}

// Select selects a unit. Unless clear is false (ctrl-click), the previous
// selection is dropped first.
func (x *Index) Select(u *RenderUnit, clear bool) {
	if clear {
		x.ClearSelection()
	}
	u.Selected = true
}

// Deselect removes one unit from the selection.
func (x *Index) Deselect(u *RenderUnit) {
	u.Selected = false
}

// ClearSelection deselects every unit.
func (x *Index) ClearSelection() {
	for _, u := range x.units {
		u.Selected = false
	}
}

// SelectedUnits returns the selected units in current sort order.
func (x *Index) SelectedUnits() []*RenderUnit {
	var selected []*RenderUnit
	for _, u := range x.units {
		if u.Selected {
			selected = append(selected, u)
		}
	}
	return selected
}

// SelectRange selects the contiguous span between two units in the current
// sort order, skipping hidden units. The prior selection is cleared.
func (x *Index) SelectRange(first, last *RenderUnit) {
	i := x.indexOf(first)
	j := x.indexOf(last)
	if i < 0 || j < 0 {
		return
	}
	if i > j {
		i, j = j, i
	}

	x.ClearSelection()
	for _, u := range x.units[i : j+1] {
		if !x.Hidden(u) {
			u.Selected = true
		}
	}
}

// SelectRelative moves the selection to the visible neighbor of the first
// selected unit: left/right are adjacent grid cells, up/down jump one grid
// row using the column count. Out of bounds is a no-op.
func (x *Index) SelectRelative(direction Direction) {
	selected := x.SelectedUnits()
	if len(selected) == 0 {
		return
	}

	visible := x.VisibleUnits()
	pos := -1
	for i, u := range visible {
		if u == selected[0] {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}

	target := pos
	switch direction {
	case DirectionUp:
		target = pos - x.columns
	case DirectionDown:
		target = pos + x.columns
	case DirectionLeft:
		target = pos - 1
	case DirectionRight:
		target = pos + 1
	}
	if target < 0 || target >= len(visible) {
		return
	}

	x.Select(visible[target], true)
}

// Remove transitions a unit to its terminal deleted state: it leaves the
// backing list and the arena, and the association stays tagged deleted so a
// second delete of the same box is blocked upstream.
func (x *Index) Remove(u *RenderUnit) {
	u.Deleted = true
	u.Selected = false
	u.Association.Deleted = true
	delete(x.arena, u.Association.UUID)

	for i, candidate := range x.units {
		if candidate == u {
			x.units = append(x.units[:i], x.units[i+1:]...)
			return
		}
	}
}

func (x *Index) indexOf(u *RenderUnit) int {
	for i, candidate := range x.units {
		if candidate == u {
			return i
		}
	}
	return -1
}

package app

import (
	"fmt"

	"github.com/google/uuid"

	"gridview/app/interfaces"
	"gridview/app/mosaic"
	"gridview/app/timestamps"
)

// currentIndex returns the populated render index or an error before the
// first populate.
func (a *App) currentIndex() (*mosaic.Index, error) {
	a.mosaicMu.Lock()
	defer a.mosaicMu.Unlock()
	if a.index == nil {
		return nil, fmt.Errorf("no mosaic populated")
	}
	return a.index, nil
}

func (a *App) unitByUUID(id string) (*mosaic.Index, *mosaic.RenderUnit, error) {
	index, err := a.currentIndex()
	if err != nil {
		return nil, nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, nil, fmt.Errorf("bad association UUID %q: %w", id, err)
	}
	unit := index.Unit(parsed)
	if unit == nil {
		return nil, nil, fmt.Errorf("no render unit for association %s", id)
	}
	return index, unit, nil
}

func unitView(index *mosaic.Index, u *mosaic.RenderUnit) interfaces.UnitView {
	assoc := u.Association
	view := interfaces.UnitView{
		UUID:          assoc.UUID.String(),
		Label:         assoc.TextLabel(),
		Concept:       assoc.Concept(),
		Part:          assoc.Part,
		Verifier:      assoc.Fields.Verifier,
		Verified:      assoc.Verified(),
		Training:      assoc.IsTraining(),
		Selected:      u.Selected,
		Hidden:        index.Hidden(u),
		X:             assoc.Fields.X,
		Y:             assoc.Fields.Y,
		Width:         assoc.Fields.Width,
		Height:        assoc.Fields.Height,
		VideoSourced:  u.VideoSourced(),
		SourceURL:     u.SourceURL,
		ElapsedMillis: u.ElapsedMillis,
		DepthMeters:   u.Ancillary.DepthMeters,
	}
	if u.VideoData != nil {
		if t, ok := u.VideoData.AnnotationTime(); ok {
			view.RecordedAt = timestamps.FormatForDisplay(t)
		}
	}
	return view
}

// GetUnits returns every render unit in current sort order.
func (a *App) GetUnits() ([]interfaces.UnitView, error) {
	index, err := a.currentIndex()
	if err != nil {
		return nil, err
	}
	views := make([]interfaces.UnitView, 0, index.Len())
	for _, u := range index.Units() {
		views = append(views, unitView(index, u))
	}
	return views, nil
}

// SelectUnit selects one unit; clear=false keeps the existing selection
// (ctrl-click). Dirty edits are pushed before the selection moves so the next
// read of the same association never races a pending write.
func (a *App) SelectUnit(id string, clear bool) error {
	if err := a.SaveChanges(); err != nil {
		return err
	}
	index, unit, err := a.unitByUUID(id)
	if err != nil {
		return err
	}
	index.Select(unit, clear)
	return nil
}

// DeselectUnit removes one unit from the selection.
func (a *App) DeselectUnit(id string) error {
	index, unit, err := a.unitByUUID(id)
	if err != nil {
		return err
	}
	index.Deselect(unit)
	return nil
}

// ClearSelection deselects everything.
func (a *App) ClearSelection() error {
	if err := a.SaveChanges(); err != nil {
		return err
	}
	index, err := a.currentIndex()
	if err != nil {
		return err
	}
	index.ClearSelection()
	return nil
}

// SelectRange selects the span between two units in the current sort order
// (shift-click).
func (a *App) SelectRange(firstID, lastID string) error {
	if err := a.SaveChanges(); err != nil {
		return err
	}
	index, first, err := a.unitByUUID(firstID)
	if err != nil {
		return err
	}
	_, last, err := a.unitByUUID(lastID)
	if err != nil {
		return err
	}
	index.SelectRange(first, last)
	return nil
}

// SelectRelative moves the selection one grid cell (arrow keys).
func (a *App) SelectRelative(direction string) error {
	if err := a.SaveChanges(); err != nil {
		return err
	}
	index, err := a.currentIndex()
	if err != nil {
		return err
	}
	switch direction {
	case "up":
		index.SelectRelative(mosaic.DirectionUp)
	case "down":
		index.SelectRelative(mosaic.DirectionDown)
	case "left":
		index.SelectRelative(mosaic.DirectionLeft)
	case "right":
		index.SelectRelative(mosaic.DirectionRight)
	default:
		return fmt.Errorf("unknown direction %q", direction)
	}
	return nil
}

// SetGridColumns records the grid's column count for relative moves.
func (a *App) SetGridColumns(columns int) error {
	index, err := a.currentIndex()
	if err != nil {
		return err
	}
	index.SetColumns(columns)
	return nil
}

// SetHidePredicates updates the visibility filters.
func (a *App) SetHidePredicates(hide mosaic.HidePredicates) error {
	index, err := a.currentIndex()
	if err != nil {
		return err
	}
	index.Hide = hide
	return nil
}

// SortUnits reorders the mosaic by a lexicographic tuple of sort methods.
func (a *App) SortUnits(methods []string) error {
	index, err := a.currentIndex()
	if err != nil {
		return err
	}
	return index.Sort(methods)
}

// GetSortMethods lists the available sort methods for the sort menu.
func (a *App) GetSortMethods() []string {
	return mosaic.SortMethodNames()
}

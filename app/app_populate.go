package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gridview/app/graph"
	"gridview/app/interfaces"
	"gridview/app/mosaic"
	"gridview/app/rows"
	"gridview/app/settings"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Populate rebuilds the mosaic from the current query result: parse rows,
// build the object graph, resolve video sequences, materialize render units,
// and only then swap the new index in. A populate that is cancelled (or
// superseded by a newer one) leaves the previous mosaic untouched.
func (a *App) Populate() (*interfaces.PopulateResult, error) {
	session, err := a.currentSession()
	if err != nil {
		return nil, err
	}

	a.mosaicMu.Lock()
	header, records := a.header, a.records
	resolver, materializer := a.resolver, a.materializer
	a.mosaicMu.Unlock()
	if header == nil {
		return nil, fmt.Errorf("no query result to populate from")
	}
	if resolver == nil || materializer == nil {
		return nil, fmt.Errorf("not logged in")
	}

	ctx, done := a.beginPopulate()
	defer done()

	parsed := rows.ParseAll(header, records)
	tables := graph.Build(parsed)
	names := tables.VideoSequenceNames()

	emit := func(stage string) mosaic.ProgressFunc {
		return func(completed, total int, message string) {
			runtime.EventsEmit(a.ctx, "populate:progress", map[string]any{
				"stage":     stage,
				"completed": completed,
				"total":     total,
				"message":   message,
			})
		}
	}

	if err := resolver.Resolve(ctx, names, emit("resolve")); err != nil {
		if errors.Is(err, mosaic.ErrCancelled) {
			runtime.EventsEmit(a.ctx, "populate:cancelled")
		}
		return nil, err
	}

	result, err := materializer.Materialize(ctx, tables, emit("materialize"))
	if err != nil {
		if errors.Is(err, mosaic.ErrCancelled) {
			runtime.EventsEmit(a.ctx, "populate:cancelled")
		}
		return nil, err
	}

	index := mosaic.NewIndex(result)
	currentSettings := settings.GetEffectiveSettings()
	index.Hide = mosaic.HidePredicates{
		Verified:    currentSettings.HideVerified,
		Unverified:  currentSettings.HideUnverified,
		Training:    currentSettings.HideTraining,
		NonTraining: currentSettings.HideNonTraining,
	}
	if len(currentSettings.SortMethods) > 0 {
		if err := index.Sort(currentSettings.SortMethods); err != nil {
			log.Printf("[APP] Ignoring configured sort: %v", err)
		}
	}

	a.mosaicMu.Lock()
	a.tables = tables
	a.index = index
	a.mosaicMu.Unlock()

	failed := make([]string, 0, len(result.Failed))
	for _, id := range result.Failed {
		failed = append(failed, id.String())
	}
	if len(failed) > 0 {
		a.Log("warning", fmt.Sprintf("%d localizations could not be loaded", len(failed)))
	}
	log.Printf("[APP] Populated %d render units from %d groups (%s)", len(result.Arena), len(tables.AssociationGroups), session.Username)

	return &interfaces.PopulateResult{
		UnitCount:     len(result.Arena),
		GroupCount:    len(tables.AssociationGroups),
		SequenceCount: len(names),
		FailedUUIDs:   failed,
	}, nil
}

// beginPopulate cancels any in-flight populate and registers this one as the
// current lifecycle. The returned done func always cancels this populate's
// own context, but only clears the shared registration if a newer populate
// has not already taken it over; a superseded populate unwinding late must
// never cancel its successor.
func (a *App) beginPopulate() (context.Context, func()) {
	a.populateMu.Lock()
	defer a.populateMu.Unlock()

	if a.populateCancel != nil {
		a.populateCancel()
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.populateGen++
	gen := a.populateGen
	a.populateCancel = cancel

	return ctx, func() {
		cancel()
		a.populateMu.Lock()
		if a.populateGen == gen {
			a.populateCancel = nil
		}
		a.populateMu.Unlock()
	}
}

// CancelPopulate aborts the in-flight populate, if any. The previous mosaic
// stays as it was.
func (a *App) CancelPopulate() {
	a.populateMu.Lock()
	defer a.populateMu.Unlock()
	if a.populateCancel != nil {
		a.populateCancel()
		a.populateCancel = nil
	}
}

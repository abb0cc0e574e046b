package app

import (
	"context"
	"testing"
)

func TestBeginPopulateSupersedesPrior(t *testing.T) {
	a := &App{ctx: context.Background()}

	ctxA, doneA := a.beginPopulate()
	if ctxA.Err() != nil {
		t.Fatalf("Expected first populate context to start live, got %v", ctxA.Err())
	}

	ctxB, doneB := a.beginPopulate()
	if ctxA.Err() == nil {
		t.Errorf("Expected first populate context to be cancelled by the supersede")
	}
	if ctxB.Err() != nil {
		t.Errorf("Expected superseding populate context to be live, got %v", ctxB.Err())
	}

	// The superseded populate unwinds after the new one registered; its
	// cleanup must leave the new populate untouched
	doneA()
	if ctxB.Err() != nil {
		t.Errorf("Expected superseding context to survive the old populate's cleanup, got %v", ctxB.Err())
	}
	a.populateMu.Lock()
	registered := a.populateCancel != nil
	a.populateMu.Unlock()
	if !registered {
		t.Errorf("Expected the superseding populate to stay registered after the old cleanup")
	}

	doneB()
	if ctxB.Err() == nil {
		t.Errorf("Expected context to be cancelled by its own cleanup")
	}
	a.populateMu.Lock()
	registered = a.populateCancel != nil
	a.populateMu.Unlock()
	if registered {
		t.Errorf("Expected the registration to be cleared after the owning cleanup")
	}
}

func TestCancelPopulateCancelsInFlight(t *testing.T) {
	a := &App{ctx: context.Background()}

	ctx, done := a.beginPopulate()
	defer done()

	a.CancelPopulate()
	if ctx.Err() == nil {
		t.Errorf("Expected in-flight populate context to be cancelled")
	}
}

func TestCancelPopulateWithoutPopulate(t *testing.T) {
	a := &App{ctx: context.Background()}
	// Must be a no-op
	a.CancelPopulate()
}

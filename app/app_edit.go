package app

import (
	"fmt"
	"log"

	"gridview/app/interfaces"
)

// SetUnitConcept renames the observed concept and/or part on one unit.
// Empty strings leave the corresponding field alone. The change is pushed on
// the next save boundary (selection change, explicit save, logout).
func (a *App) SetUnitConcept(id, concept, part string) error {
	_, unit, err := a.unitByUUID(id)
	if err != nil {
		return err
	}
	unit.Association.SetConcept(concept, part)
	return nil
}

// SetUnitBox moves/resizes one unit's bounding box, in annotation
// coordinates.
func (a *App) SetUnitBox(id string, x, y, width, height int) error {
	_, unit, err := a.unitByUUID(id)
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("bounding box width and height must be positive")
	}
	if x < 0 || y < 0 {
		return fmt.Errorf("bounding box x and y must be non-negative")
	}
	unit.Association.SetBox(x, y, width, height)
	return nil
}

// VerifyUnits records the logged-in user as verifier on each unit,
// optionally renaming the concept at the same time (the usual review
// gesture). Each failure is reported per unit.
func (a *App) VerifyUnits(ids []string, concept, part string) []interfaces.EditFailure {
	session, err := a.currentSession()
	if err != nil {
		return a.failAll(ids, err)
	}

	var failures []interfaces.EditFailure
	for _, id := range ids {
		_, unit, err := a.unitByUUID(id)
		if err != nil {
			failures = append(failures, interfaces.EditFailure{UUID: id, Message: err.Error()})
			continue
		}
		unit.Association.SetVerifiedConcept(concept, part, session.Username)
		if err := unit.Association.PushChanges(a.ctx, session.Annosaurus, session.Username); err != nil {
			failures = append(failures, interfaces.EditFailure{UUID: id, Message: err.Error()})
		}
	}
	return failures
}

// UnverifyUnits clears the verifier on each unit.
func (a *App) UnverifyUnits(ids []string) []interfaces.EditFailure {
	session, err := a.currentSession()
	if err != nil {
		return a.failAll(ids, err)
	}

	var failures []interfaces.EditFailure
	for _, id := range ids {
		_, unit, err := a.unitByUUID(id)
		if err != nil {
			failures = append(failures, interfaces.EditFailure{UUID: id, Message: err.Error()})
			continue
		}
		unit.Association.Unverify()
		if err := unit.Association.PushChanges(a.ctx, session.Annosaurus, session.Username); err != nil {
			failures = append(failures, interfaces.EditFailure{UUID: id, Message: err.Error()})
		}
	}
	return failures
}

// MarkUnitsForTraining adds or removes the training tag on each unit.
func (a *App) MarkUnitsForTraining(ids []string, mark bool) []interfaces.EditFailure {
	session, err := a.currentSession()
	if err != nil {
		return a.failAll(ids, err)
	}

	var failures []interfaces.EditFailure
	for _, id := range ids {
		_, unit, err := a.unitByUUID(id)
		if err != nil {
			failures = append(failures, interfaces.EditFailure{UUID: id, Message: err.Error()})
			continue
		}
		if mark {
			unit.Association.MarkForTraining()
		} else {
			unit.Association.UnmarkForTraining()
		}
		if err := unit.Association.PushChanges(a.ctx, session.Annosaurus, session.Username); err != nil {
			failures = append(failures, interfaces.EditFailure{UUID: id, Message: err.Error()})
		}
	}
	return failures
}

// DeleteUnits deletes each unit's association remotely and drops it from the
// mosaic. An observation left with no bounding boxes is deleted too, so no
// dangling observations accumulate on the server. Already-deleted units are
// skipped.
func (a *App) DeleteUnits(ids []string) []interfaces.EditFailure {
	session, err := a.currentSession()
	if err != nil {
		return a.failAll(ids, err)
	}

	var failures []interfaces.EditFailure
	for _, id := range ids {
		index, unit, err := a.unitByUUID(id)
		if err != nil {
			failures = append(failures, interfaces.EditFailure{UUID: id, Message: err.Error()})
			continue
		}
		assoc := unit.Association
		if assoc.Deleted {
			continue
		}

		if err := session.Annosaurus.DeleteAssociation(a.ctx, assoc.UUID); err != nil {
			failures = append(failures, interfaces.EditFailure{UUID: id, Message: err.Error()})
			continue
		}
		index.Remove(unit)

		// Check what the observation still holds server-side; the local
		// graph may be stale if someone else edited it
		record, err := session.Annosaurus.GetObservation(a.ctx, assoc.ObservationUUID)
		if err != nil {
			log.Printf("[APP] Could not check observation %s after delete: %v", assoc.ObservationUUID, err)
			continue
		}
		remaining := 0
		for _, other := range record.Associations {
			if other.LinkName == "bounding box" {
				remaining++
			}
		}
		if remaining == 0 {
			if err := session.Annosaurus.DeleteObservation(a.ctx, assoc.ObservationUUID); err != nil {
				failures = append(failures, interfaces.EditFailure{UUID: id, Message: fmt.Sprintf("box deleted but observation cleanup failed: %v", err)})
			}
		}
	}
	return failures
}

// SaveChanges pushes every dirty association to the annotation service.
func (a *App) SaveChanges() error {
	a.sessionMu.RLock()
	session := a.session
	a.sessionMu.RUnlock()

	a.mosaicMu.Lock()
	tables := a.tables
	a.mosaicMu.Unlock()
	if session == nil || tables == nil {
		return nil
	}

	var firstErr error
	for _, assoc := range tables.Associations() {
		if !assoc.Dirty() {
			continue
		}
		if err := assoc.PushChanges(a.ctx, session.Annosaurus, session.Username); err != nil {
			log.Printf("[APP] Failed to push changes for association %s: %v", assoc.UUID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (a *App) failAll(ids []string, err error) []interfaces.EditFailure {
	failures := make([]interfaces.EditFailure, 0, len(ids))
	for _, id := range ids {
		failures = append(failures, interfaces.EditFailure{UUID: id, Message: err.Error()})
	}
	return failures
}

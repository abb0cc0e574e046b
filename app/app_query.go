package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gridview/app/export"
	"gridview/app/interfaces"
	"gridview/app/m3"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// buildQuery translates the frontend's query form into a structured request.
// Only bounding box rows are ever useful to the mosaic, so that constraint is
// always present.
func buildQuery(filters interfaces.QueryFilters) m3.QueryRequest {
	where := []m3.Constraint{
		m3.ConstraintEquals("link_name", "bounding box"),
	}
	if len(filters.Concepts) > 0 {
		where = append(where, m3.ConstraintIn("concept", filters.Concepts))
	}
	if filters.ConceptLike != "" {
		where = append(where, m3.ConstraintLike("concept", "%"+filters.ConceptLike+"%"))
	}
	if len(filters.VideoSequences) > 0 {
		where = append(where, m3.ConstraintIn("video_sequence_name", filters.VideoSequences))
	}
	if len(filters.Observers) > 0 {
		where = append(where, m3.ConstraintIn("observer", filters.Observers))
	}
	if filters.Generator != "" {
		where = append(where, m3.ConstraintLike("link_value", "%\"generator\": \""+filters.Generator+"\"%"))
	}
	if filters.BeginISO != "" && filters.EndISO != "" {
		where = append(where, m3.ConstraintBetween("index_recorded_timestamp", filters.BeginISO, filters.EndISO))
	}
	return m3.QueryRequest{Where: where}
}

// CountQuery returns how many rows a query would produce, for the "run this?"
// confirmation on big filters.
func (a *App) CountQuery(filters interfaces.QueryFilters) (int64, error) {
	session, err := a.currentSession()
	if err != nil {
		return 0, err
	}
	return session.Annosaurus.Count(a.ctx, buildQuery(filters))
}

// RunQuery executes a query and keeps the raw result for populate, snapshot,
// and export.
func (a *App) RunQuery(filters interfaces.QueryFilters) (*interfaces.QueryResult, error) {
	session, err := a.currentSession()
	if err != nil {
		return nil, err
	}

	header, records, err := m3.QueryPaged(a.ctx, session.Annosaurus, buildQuery(filters), func(fetched, total int64) {
		runtime.EventsEmit(a.ctx, "query:progress", map[string]any{
			"fetched": fetched,
			"total":   total,
		})
	})
	if err != nil {
		return nil, err
	}

	a.mosaicMu.Lock()
	a.header = header
	a.records = records
	a.mosaicMu.Unlock()

	log.Printf("[APP] Query returned %d rows", len(records))
	return &interfaces.QueryResult{
		RowCount:    len(records),
		ColumnCount: len(header),
		Columns:     header,
	}, nil
}

// ExportXLSX writes the current query result to a spreadsheet.
func (a *App) ExportXLSX(path string) error {
	a.mosaicMu.Lock()
	header, records := a.header, a.records
	a.mosaicMu.Unlock()
	if header == nil {
		return fmt.Errorf("no query result to export")
	}
	if err := export.WriteXLSX(path, header, records); err != nil {
		return err
	}
	a.Log("info", fmt.Sprintf("Exported %d rows to %s", len(records), filepath.Base(path)))
	return nil
}

// snapshotDir is where compressed query snapshots live, alongside the image
// cache but never cleared with it.
func snapshotDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache dir: %w", err)
	}
	return filepath.Join(base, "gridview", "snapshots"), nil
}

// SaveSnapshot writes the current query result as a compressed TSV for
// offline reload.
func (a *App) SaveSnapshot(label string) (string, error) {
	a.mosaicMu.Lock()
	header, records := a.header, a.records
	a.mosaicMu.Unlock()
	if header == nil {
		return "", fmt.Errorf("no query result to snapshot")
	}

	dir, err := snapshotDir()
	if err != nil {
		return "", err
	}
	path, err := export.SaveSnapshot(dir, label, header, records)
	if err != nil {
		return "", err
	}
	a.Log("info", fmt.Sprintf("Saved snapshot %s", filepath.Base(path)))
	return path, nil
}

// ListSnapshots lists saved snapshots, newest first.
func (a *App) ListSnapshots() ([]string, error) {
	dir, err := snapshotDir()
	if err != nil {
		return nil, err
	}
	return export.ListSnapshots(dir)
}

// LoadSnapshot replaces the current query result with a saved snapshot.
func (a *App) LoadSnapshot(path string) (*interfaces.QueryResult, error) {
	header, records, err := export.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}

	a.mosaicMu.Lock()
	a.header = header
	a.records = records
	a.mosaicMu.Unlock()

	log.Printf("[APP] Loaded snapshot %s with %d rows", filepath.Base(path), len(records))
	return &interfaces.QueryResult{
		RowCount:    len(records),
		ColumnCount: len(header),
		Columns:     header,
	}, nil
}

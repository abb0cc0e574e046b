package export

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

var (
	testHeader  = []string{"observation_uuid", "concept", "depth_meters"}
	testRecords = [][]string{
		{"u1", "Grimpoteuthis", "1234.5"},
		{"u2", "Aurelia aurita", "null"},
	}
)

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveSnapshot(dir, "dive 1234", testHeader, testRecords)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	header, records, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(header) != 3 || header[1] != "concept" {
		t.Errorf("Unexpected header: %v", header)
	}
	if len(records) != 2 || records[0][1] != "Grimpoteuthis" || records[1][2] != "null" {
		t.Errorf("Unexpected records: %v", records)
	}
}

func TestSnapshotNameSanitized(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveSnapshot(dir, "dive/..\\weird name", testHeader, nil)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("Snapshot escaped its directory: %s", path)
	}
}

func TestListSnapshots(t *testing.T) {
	dir := t.TempDir()
	if _, err := SaveSnapshot(dir, "a", testHeader, nil); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := SaveSnapshot(dir, "b", testHeader, nil); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	snapshots, err := ListSnapshots(dir)
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(snapshots) != 2 {
		t.Errorf("Expected 2 snapshots, got %d", len(snapshots))
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteXLSX(path, testHeader, testRecords); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to reopen spreadsheet: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "observation_uuid" || rows[1][1] != "Grimpoteuthis" {
		t.Errorf("Unexpected sheet contents: %v", rows)
	}
}

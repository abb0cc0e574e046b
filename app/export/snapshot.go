package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ulikunitz/xz"

	"gridview/app/rows"
)

// SnapshotExtension is the suffix of saved query snapshots.
const SnapshotExtension = ".tsv.xz"

// SaveSnapshot writes a query result as an xz-compressed TSV under dir,
// named by the query label and save time. Returns the snapshot's path.
func SaveSnapshot(dir, label string, header []string, records [][]string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", sanitizeLabel(label), time.Now().Format("20060102-150405"), SnapshotExtension)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()

	w, err := xz.NewWriter(f)
	if err != nil {
		return "", fmt.Errorf("failed to create xz writer: %w", err)
	}

	if err := writeTSV(w, header, records); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot back into header and records.
func LoadSnapshot(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	r, err := xz.NewReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open xz stream: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	header, records, err := rows.ParseTSV(string(data))
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w", filepath.Base(path), err)
	}
	return header, records, nil
}

// ListSnapshots returns the snapshot files under dir, newest first.
func ListSnapshots(dir string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "*"+SnapshotExtension))
	if err != nil {
		return nil, fmt.Errorf("snapshot pattern matching failed: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}

func writeTSV(w io.Writer, header []string, records [][]string) error {
	var sb strings.Builder
	sb.WriteString(strings.Join(header, "\t"))
	sb.WriteByte('\n')
	for _, record := range records {
		sb.WriteString(strings.Join(record, "\t"))
		sb.WriteByte('\n')
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write snapshot data: %w", err)
	}
	return nil
}

// sanitizeLabel keeps snapshot file names portable.
func sanitizeLabel(label string) string {
	if label == "" {
		return "query"
	}
	mapper := func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}
	return strings.Map(mapper, label)
}

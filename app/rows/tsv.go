package rows

import (
	"fmt"
	"log"
	"strings"
)

// ParseTSV splits a raw TSV document into a header and data records.
// Blank lines are skipped. The query service does not quote or escape
// fields, so a plain split is the correct decode.
func ParseTSV(data string) ([]string, [][]string, error) {
	var header []string
	var records [][]string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if header == nil {
			header = fields
			continue
		}
		records = append(records, fields)
	}
	if header == nil {
		return nil, nil, fmt.Errorf("empty TSV document")
	}
	return header, records, nil
}

// ParseAll parses every record leniently: malformed rows are logged and
// skipped, never failing the batch.
func ParseAll(header []string, records [][]string) []*Row {
	parsed := make([]*Row, 0, len(records))
	for i, rec := range records {
		row, err := Parse(header, rec)
		if err != nil {
			log.Printf("[ROWS] Skipping malformed row %d: %v", i, err)
			continue
		}
		parsed = append(parsed, row)
	}
	return parsed
}

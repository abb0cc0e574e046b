package rows

import (
	"strings"
	"testing"
	"time"
)

var testHeader = []string{
	"imaged_moment_uuid", "observation_uuid", "association_uuid",
	"image_reference_uuid", "video_sequence_name", "video_start_timestamp",
	"video_uri", "video_width", "video_height", "index_elapsed_time_millis",
	"index_recorded_timestamp", "index_timecode", "image_url", "image_format",
	"observer", "concept", "link_name", "to_concept", "link_value",
	"depth_meters",
}

func testValues(overrides map[string]string) []string {
	base := map[string]string{
		"imaged_moment_uuid":        "0f320d9e-b4c9-4bf4-a08f-3e0f6e2e77b1",
		"observation_uuid":          "33e3c4b6-7b15-4674-8a7b-3f7f1a2a3b4c",
		"association_uuid":          "77a1cde2-59d1-4a23-ae9c-deadbeef0001",
		"image_reference_uuid":      "null",
		"video_sequence_name":       "Ventana 4321",
		"video_start_timestamp":     "2014-09-21T14:00:00Z",
		"video_uri":                 "urn:tid:mbari.org:Ventana-4321",
		"video_width":               "1920",
		"video_height":              "1080",
		"index_elapsed_time_millis": "90000",
		"index_recorded_timestamp":  "2014-09-21T14:01:30Z",
		"index_timecode":            "null",
		"image_url":                 "",
		"image_format":              "",
		"observer":                  "jdoe",
		"concept":                   "Sebastolobus",
		"link_name":                 "bounding box",
		"to_concept":                "self",
		"link_value":                `{"x": 10, "y": 20, "width": 30, "height": 40}`,
		"depth_meters":              "872.4",
	}
	for k, v := range overrides {
		base[k] = v
	}
	values := make([]string, len(testHeader))
	for i, h := range testHeader {
		values[i] = base[h]
	}
	return values
}

func TestParse(t *testing.T) {
	row, err := Parse(testHeader, testValues(nil))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if row.ImagedMomentUUID == nil || row.ImagedMomentUUID.String() != "0f320d9e-b4c9-4bf4-a08f-3e0f6e2e77b1" {
		t.Errorf("Unexpected imaged_moment_uuid: %v", row.ImagedMomentUUID)
	}
	if row.ImageReferenceUUID != nil {
		t.Errorf("Expected null image_reference_uuid to be absent, got %v", row.ImageReferenceUUID)
	}
	if row.VideoStartTimestamp == nil || !row.VideoStartTimestamp.Equal(time.Date(2014, 9, 21, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected video_start_timestamp: %v", row.VideoStartTimestamp)
	}
	if row.VideoWidth == nil || *row.VideoWidth != 1920 {
		t.Errorf("Unexpected video_width: %v", row.VideoWidth)
	}
	if row.IndexElapsedTimeMillis == nil || *row.IndexElapsedTimeMillis != 90000 {
		t.Errorf("Unexpected index_elapsed_time_millis: %v", row.IndexElapsedTimeMillis)
	}
	if row.IndexTimecode != "" {
		t.Errorf("Expected null timecode to normalize to empty, got %q", row.IndexTimecode)
	}
	if row.Ancillary.DepthMeters == nil || *row.Ancillary.DepthMeters != 872.4 {
		t.Errorf("Unexpected depth: %v", row.Ancillary.DepthMeters)
	}
	if row.Ancillary.Salinity != nil {
		t.Errorf("Expected absent salinity, got %v", row.Ancillary.Salinity)
	}
}

func TestParseIdempotent(t *testing.T) {
	values := testValues(nil)
	a, err := Parse(testHeader, values)
	if err != nil {
		t.Fatalf("First parse failed: %v", err)
	}
	b, err := Parse(testHeader, values)
	if err != nil {
		t.Fatalf("Second parse failed: %v", err)
	}
	if a.ImagedMomentUUID.String() != b.ImagedMomentUUID.String() ||
		a.LinkValue != b.LinkValue ||
		!a.VideoStartTimestamp.Equal(*b.VideoStartTimestamp) ||
		*a.IndexElapsedTimeMillis != *b.IndexElapsedTimeMillis {
		t.Error("Parsing the same input twice produced different rows")
	}
}

func TestParseNullNormalization(t *testing.T) {
	row, err := Parse(testHeader, testValues(map[string]string{
		"video_sequence_name":       "null",
		"image_url":                 "null",
		"video_width":               "",
		"index_elapsed_time_millis": "null",
		"depth_meters":              "null",
	}))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if row.VideoSequenceName != "" {
		t.Errorf("Expected null video_sequence_name to be empty, got %q", row.VideoSequenceName)
	}
	if row.ImageURL != "" {
		t.Errorf("Expected null image_url to be empty, got %q", row.ImageURL)
	}
	if row.VideoWidth != nil {
		t.Errorf("Expected empty video_width to be absent, got %v", row.VideoWidth)
	}
	if row.IndexElapsedTimeMillis != nil {
		t.Errorf("Expected null elapsed millis to be absent, got %v", row.IndexElapsedTimeMillis)
	}
	if !row.Ancillary.IsEmpty() {
		t.Errorf("Expected empty ancillary, got %+v", row.Ancillary)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
	}{
		{name: "Bad UUID", overrides: map[string]string{"association_uuid": "not-a-uuid"}},
		{name: "Bad timestamp", overrides: map[string]string{"video_start_timestamp": "yesterday"}},
		{name: "Bad width", overrides: map[string]string{"video_width": "wide"}},
		{name: "Bad depth", overrides: map[string]string{"depth_meters": "deep"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(testHeader, testValues(tt.overrides)); err == nil {
				t.Error("Expected parse error")
			}
		})
	}
}

func TestParseTSV(t *testing.T) {
	doc := "a\tb\tc\n1\t2\t3\n\n4\t5\t6\n"
	header, records, err := ParseTSV(doc)
	if err != nil {
		t.Fatalf("ParseTSV failed: %v", err)
	}
	if len(header) != 3 || header[0] != "a" {
		t.Errorf("Unexpected header: %v", header)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[1][2] != "6" {
		t.Errorf("Unexpected record: %v", records[1])
	}
}

func TestParseTSVEmpty(t *testing.T) {
	if _, _, err := ParseTSV("   \n  \n"); err == nil {
		t.Error("Expected error for empty document")
	}
}

func TestParseAllSkipsBadRows(t *testing.T) {
	good := testValues(nil)
	bad := testValues(map[string]string{"association_uuid": "junk"})
	parsed := ParseAll(testHeader, [][]string{good, bad, good})
	if len(parsed) != 2 {
		t.Errorf("Expected 2 parsed rows, got %d", len(parsed))
	}
}

func TestAnnotationTimeFallback(t *testing.T) {
	row, err := Parse(testHeader, testValues(map[string]string{
		"index_recorded_timestamp": "null",
	}))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got, ok := row.AnnotationTime()
	if !ok {
		t.Fatal("Expected a timestamp")
	}
	expected := time.Date(2014, 9, 21, 14, 1, 30, 0, time.UTC)
	if !got.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestParseShortRecord(t *testing.T) {
	// Records truncated by the service should still parse; trailing
	// columns are simply absent.
	short := testValues(nil)[:3]
	row, err := Parse(testHeader, short)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if row.AssociationUUID == nil {
		t.Error("Expected association UUID from the retained columns")
	}
	if !strings.EqualFold(row.VideoSequenceName, "") {
		t.Errorf("Expected absent sequence name, got %q", row.VideoSequenceName)
	}
}

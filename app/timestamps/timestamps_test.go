package timestamps

import (
	"testing"
	"time"
)

func TestParseISO8601(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		ok       bool
	}{
		{
			name:     "RFC3339 with Z",
			input:    "2014-09-21T14:26:32Z",
			expected: time.Date(2014, 9, 21, 14, 26, 32, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "Fractional seconds",
			input:    "2014-09-21T14:26:32.123Z",
			expected: time.Date(2014, 9, 21, 14, 26, 32, 123000000, time.UTC),
			ok:       true,
		},
		{
			name:     "Numeric offset",
			input:    "2014-09-21T07:26:32-07:00",
			expected: time.Date(2014, 9, 21, 14, 26, 32, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "Space separated no timezone",
			input:    "2014-09-21 14:26:32",
			expected: time.Date(2014, 9, 21, 14, 26, 32, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "T separated no timezone",
			input:    "2014-09-21T14:26:32",
			expected: time.Date(2014, 9, 21, 14, 26, 32, 0, time.UTC),
			ok:       true,
		},
		{
			name:  "Empty string",
			input: "",
			ok:    false,
		},
		{
			name:  "Garbage",
			input: "not a timestamp",
			ok:    false,
		},
		{
			name:  "Literal null",
			input: "null",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseISO8601(tt.input)
			if ok != tt.ok {
				t.Errorf("Expected ok=%v, got %v", tt.ok, ok)
				return
			}
			if ok && !got.Equal(tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestParseTimecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		ok       bool
	}{
		{
			name:     "Mid-tape",
			input:    "01:23:45:12",
			expected: time.Hour + 23*time.Minute + 45*time.Second,
			ok:       true,
		},
		{
			name:     "Zero",
			input:    "00:00:00:00",
			expected: 0,
			ok:       true,
		},
		{
			name:  "Missing frame field",
			input: "01:23:45",
			ok:    false,
		},
		{
			name:  "Non-numeric",
			input: "aa:bb:cc:dd",
			ok:    false,
		},
		{
			name:  "Empty",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimecode(tt.input)
			if ok != tt.ok {
				t.Errorf("Expected ok=%v, got %v", tt.ok, ok)
				return
			}
			if ok && got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestAnnotationTime(t *testing.T) {
	start := time.Date(2014, 9, 21, 14, 0, 0, 0, time.UTC)
	recorded := time.Date(2014, 9, 21, 14, 26, 32, 0, time.UTC)
	elapsed := int64(90_000)

	t.Run("Recorded timestamp wins", func(t *testing.T) {
		got, ok := AnnotationTime(&start, &recorded, &elapsed, "01:00:00:00")
		if !ok {
			t.Fatal("Expected ok")
		}
		if !got.Equal(recorded) {
			t.Errorf("Expected %v, got %v", recorded, got)
		}
	})

	t.Run("Elapsed millis fallback", func(t *testing.T) {
		got, ok := AnnotationTime(&start, nil, &elapsed, "")
		if !ok {
			t.Fatal("Expected ok")
		}
		expected := start.Add(90 * time.Second)
		if !got.Equal(expected) {
			t.Errorf("Expected %v, got %v", expected, got)
		}
	})

	t.Run("Timecode fallback", func(t *testing.T) {
		got, ok := AnnotationTime(&start, nil, nil, "00:30:00:00")
		if !ok {
			t.Fatal("Expected ok")
		}
		expected := start.Add(30 * time.Minute)
		if !got.Equal(expected) {
			t.Errorf("Expected %v, got %v", expected, got)
		}
	})

	t.Run("No video start and no recorded", func(t *testing.T) {
		if _, ok := AnnotationTime(nil, nil, &elapsed, ""); ok {
			t.Error("Expected no timestamp")
		}
	})

	t.Run("Video start alone is not enough", func(t *testing.T) {
		if _, ok := AnnotationTime(&start, nil, nil, ""); ok {
			t.Error("Expected no timestamp")
		}
	})
}

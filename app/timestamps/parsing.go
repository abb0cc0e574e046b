package timestamps

import (
	"strconv"
	"strings"
	"time"
)

// ParseISO8601 parses the timestamp strings the annotation service emits.
// Formats vary between endpoints (with/without fractional seconds, "Z" or
// numeric offset, "T" or space separator); timezone-less values are UTC.
func ParseISO8601(s string) (time.Time, bool) {
	ss := strings.TrimSpace(s)
	if ss == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339Nano, ss); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, ss); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02 15:04:05Z07:00", ss); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02 15:04:05.999999999Z07:00", ss); err == nil {
		return t, true
	}

	// Timezone-less variants are interpreted as UTC
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", ss, time.UTC); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", ss, time.UTC); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05.999999999", ss, time.UTC); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", ss, time.UTC); err == nil {
		return t, true
	}

	return time.Time{}, false
}

// ParseTimecode parses an "HH:MM:SS:FF" tape timecode into an offset from the
// start of the tape. The frame field is dropped: frame rates are not recorded
// alongside the timecode, so sub-second precision is not recoverable.
func ParseTimecode(s string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 4 {
		return 0, false
	}
	var fields [3]int64
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		fields[i] = n
	}
	if _, err := strconv.ParseInt(parts[3], 10, 64); err != nil {
		return 0, false
	}
	d := time.Duration(fields[0])*time.Hour +
		time.Duration(fields[1])*time.Minute +
		time.Duration(fields[2])*time.Second
	return d, true
}

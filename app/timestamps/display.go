package timestamps

import (
	"strings"
	"time"

	"gridview/app/settings"
)

// GetLocationForTZ resolves a timezone name to a *time.Location. Supports "Local", "UTC", and IANA TZ names.
func GetLocationForTZ(name string) *time.Location {
	tzName := strings.TrimSpace(name)
	switch strings.ToUpper(tzName) {
	case "", "LOCAL":
		return time.Local
	case "UTC":
		return time.UTC
	default:
		if l, err := time.LoadLocation(tzName); err == nil {
			return l
		}
		return time.Local
	}
}

// GetDisplayTimezone returns the display timezone from settings
func GetDisplayTimezone() *time.Location {
	effective := settings.GetEffectiveSettings()
	return GetLocationForTZ(effective.DisplayTimezone)
}

// FormatForDisplay formats a timestamp for the UI using the configured
// display timezone and format pattern (e.g., "yyyy-MM-dd HH:mm:ss").
func FormatForDisplay(t time.Time) string {
	effective := settings.GetEffectiveSettings()
	return Format(t, GetDisplayTimezone(), effective.TimestampDisplayFormat)
}

// Format formats a timestamp using the given timezone and common-style pattern.
func Format(t time.Time, loc *time.Location, formatPattern string) string {
	if loc == nil {
		loc = time.Local
	}

	pattern := strings.TrimSpace(formatPattern)
	if pattern == "" {
		pattern = "yyyy-MM-dd HH:mm:ss"
	}

	// Convert pattern to Go layout
	r := strings.NewReplacer(
		"yyyy", "2006",
		"yy", "06",
		"MM", "01",
		"dd", "02",
		"HH", "15",
		"mm", "04",
		"ss", "05",
		"SSS", "000",
		"zzz", "MST",
	)
	layout := r.Replace(pattern)

	return t.In(loc).Format(layout)
}

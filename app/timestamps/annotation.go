package timestamps

import "time"

// AnnotationTime computes the moment an annotation was observed, preferring
// the most reliable index available:
//  1. the recorded timestamp, when the moment carries one
//  2. video start + elapsed milliseconds
//  3. video start + tape timecode offset
//
// Returns false when none of the indices can produce a time.
func AnnotationTime(videoStart *time.Time, recorded *time.Time, elapsedMillis *int64, timecode string) (time.Time, bool) {
	if recorded != nil && !recorded.IsZero() {
		return *recorded, true
	}
	if videoStart == nil || videoStart.IsZero() {
		return time.Time{}, false
	}
	if elapsedMillis != nil {
		return videoStart.Add(time.Duration(*elapsedMillis) * time.Millisecond), true
	}
	if timecode != "" {
		if offset, ok := ParseTimecode(timecode); ok {
			return videoStart.Add(offset), true
		}
	}
	return time.Time{}, false
}

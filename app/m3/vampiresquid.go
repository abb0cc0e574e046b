package m3

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gridview/app/timestamps"
)

// VampireSquidClient talks to the video catalog.
type VampireSquidClient struct {
	*Client
}

// NewVampireSquidClient creates a video catalog client.
func NewVampireSquidClient(baseURL string) *VampireSquidClient {
	return &VampireSquidClient{Client: NewClient(baseURL, "")}
}

// VideoReference is one encoded rendition of a video (container, resolution, URI).
type VideoReference struct {
	UUID      string `json:"uuid"`
	URI       string `json:"uri"`
	Container string `json:"container"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Video is one recording span within a sequence.
type Video struct {
	UUID           string           `json:"uuid"`
	Name           string           `json:"name"`
	StartTimestamp string           `json:"start_timestamp"`
	DurationMillis *int64           `json:"duration_millis"`
	References     []VideoReference `json:"video_references"`
}

// Start parses the video's start timestamp.
func (v *Video) Start() (time.Time, bool) {
	return timestamps.ParseISO8601(v.StartTimestamp)
}

// Duration returns the video's length, when known.
func (v *Video) Duration() (time.Duration, bool) {
	if v.DurationMillis == nil {
		return 0, false
	}
	return time.Duration(*v.DurationMillis) * time.Millisecond, true
}

// VideoSequence is the catalog's top-level grouping (one deployment/dive).
type VideoSequence struct {
	UUID   string  `json:"uuid"`
	Name   string  `json:"name"`
	Videos []Video `json:"videos"`
}

// GetVideoSequenceByName fetches a sequence with its nested videos and references.
func (c *VampireSquidClient) GetVideoSequenceByName(ctx context.Context, name string) (*VideoSequence, error) {
	resp, err := c.get(ctx, "/videosequences/name/"+pathEscape(name), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get video sequence %q: %w", name, err)
	}
	body, err := readOK(resp)
	if err != nil {
		return nil, err
	}
	var seq VideoSequence
	if err := json.Unmarshal(body, &seq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video sequence %q: %w", name, err)
	}
	return &seq, nil
}

// GetVideoSequenceNames lists all sequence names in the catalog.
func (c *VampireSquidClient) GetVideoSequenceNames(ctx context.Context) ([]string, error) {
	resp, err := c.get(ctx, "/videosequences/names", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get video sequence names: %w", err)
	}
	body, err := readOK(resp)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video sequence names: %w", err)
	}
	return names, nil
}

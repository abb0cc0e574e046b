package m3

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// pathEscape escapes one URL path segment.
func pathEscape(segment string) string {
	return url.PathEscape(segment)
}

// KBClient talks to the knowledge base server (concept/part vocabularies).
type KBClient struct {
	*Client
}

// NewKBClient creates a knowledge base client.
func NewKBClient(baseURL string) *KBClient {
	return &KBClient{Client: NewClient(baseURL, "")}
}

// GetConcepts returns every valid concept name.
func (c *KBClient) GetConcepts(ctx context.Context) ([]string, error) {
	resp, err := c.get(ctx, "/concept", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get concepts: %w", err)
	}
	body, err := readOK(resp)
	if err != nil {
		return nil, err
	}
	var concepts []string
	if err := json.Unmarshal(body, &concepts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal concepts: %w", err)
	}
	return concepts, nil
}

// GetParts returns every valid organism part name.
func (c *KBClient) GetParts(ctx context.Context) ([]string, error) {
	resp, err := c.get(ctx, "/phylogeny/taxa/"+pathEscape("organism part"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get parts: %w", err)
	}
	body, err := readOK(resp)
	if err != nil {
		return nil, err
	}
	var taxa []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &taxa); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parts: %w", err)
	}
	parts := make([]string, 0, len(taxa))
	for _, t := range taxa {
		parts = append(parts, t.Name)
	}
	return parts, nil
}

// User is one account on the VARS user server.
type User struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Affiliation string `json:"affiliation"`
}

// UsersClient talks to the VARS user server.
type UsersClient struct {
	*Client
}

// NewUsersClient creates a user server client.
func NewUsersClient(baseURL string) *UsersClient {
	return &UsersClient{Client: NewClient(baseURL, "")}
}

// GetAllUsers lists every account.
func (c *UsersClient) GetAllUsers(ctx context.Context) ([]User, error) {
	resp, err := c.get(ctx, "/users", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	body, err := readOK(resp)
	if err != nil {
		return nil, err
	}
	var users []User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}
	return users, nil
}

// SkimmerClient talks to the crop-and-extract service.
type SkimmerClient struct {
	*Client
}

// NewSkimmerClient creates a skimmer client.
func NewSkimmerClient(baseURL string) *SkimmerClient {
	return &SkimmerClient{Client: NewClient(baseURL, "")}
}

// Crop requests a server-side crop of the given source at the given
// rectangle; ms selects the frame for video sources (nil for stills).
func (c *SkimmerClient) Crop(ctx context.Context, sourceURL string, left, top, right, bottom int, ms *int64) ([]byte, error) {
	params := url.Values{}
	params.Set("url", sourceURL)
	params.Set("left", strconv.Itoa(left))
	params.Set("top", strconv.Itoa(top))
	params.Set("right", strconv.Itoa(right))
	params.Set("bottom", strconv.Itoa(bottom))
	if ms != nil {
		params.Set("ms", strconv.FormatInt(*ms, 10))
	}
	resp, err := c.get(ctx, "/crop", params)
	if err != nil {
		return nil, fmt.Errorf("crop request failed: %w", err)
	}
	return readOK(resp)
}

// BeholderClient talks to the frame capture service.
type BeholderClient struct {
	apiKey string
	*Client
}

// NewBeholderClient creates a beholder client. Beholder authenticates per
// request with an API key header rather than a JWT exchange.
func NewBeholderClient(baseURL, apiKey string) *BeholderClient {
	return &BeholderClient{apiKey: apiKey, Client: NewClient(baseURL, "")}
}

// Capture extracts the full frame of a video at the given offset.
func (c *BeholderClient) Capture(ctx context.Context, videoURL string, elapsedMillis int64) ([]byte, error) {
	body := fmt.Sprintf(`{"videoUrl": %q, "elapsedTimeMillis": %d}`, videoURL, elapsedMillis)
	resp, err := c.postJSONWithHeader(ctx, "/capture", body, "X-Api-Key", c.apiKey)
	if err != nil {
		return nil, fmt.Errorf("capture request failed: %w", err)
	}
	return readOK(resp)
}

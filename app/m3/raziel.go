package m3

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Endpoint is one service registration from the configuration broker.
type Endpoint struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Secret string `json:"secret"`
	Proxy  string `json:"proxyPath"`
}

// RazielAuthenticate exchanges user credentials for a broker access token.
func RazielAuthenticate(ctx context.Context, razielURL, username, password string) (string, error) {
	base := strings.TrimRight(razielURL, "/")
	req, err := http.NewRequestWithContext(ctx, "POST", base+"/auth", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.SetBasicAuth(username, password)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}
	body, err := readOK(resp)
	if err != nil {
		return "", err
	}

	var result struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal auth response: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("auth response carried no access token")
	}
	return result.AccessToken, nil
}

// RazielEndpoints lists the M3 service endpoints visible to the token.
func RazielEndpoints(ctx context.Context, razielURL, token string) ([]Endpoint, error) {
	base := strings.TrimRight(razielURL, "/")
	req, err := http.NewRequestWithContext(ctx, "GET", base+"/endpoints", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create endpoints request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("endpoints request failed: %w", err)
	}
	body, err := readOK(resp)
	if err != nil {
		return nil, err
	}

	var endpoints []Endpoint
	if err := json.Unmarshal(body, &endpoints); err != nil {
		return nil, fmt.Errorf("failed to unmarshal endpoints: %w", err)
	}
	return endpoints, nil
}

package m3

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotAuthenticated is returned when a call needs a token the client does
// not hold (or no longer holds).
var ErrNotAuthenticated = errors.New("m3: not authenticated")

// Client is the base M3 microservice client. Service-specific clients embed
// it and add their endpoints. Authentication exchanges an API key for a JWT
// access token; withReauth retries a rejected call once after refreshing it.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client

	tokenMu sync.Mutex
	token   string
}

// NewClient creates a client for one M3 service. apiKey may be empty for
// services whose read endpoints are open.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) urlTo(path string) string {
	return c.baseURL + path
}

// Authenticate exchanges the API key for a fresh access token.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("m3: no API key configured for %s", c.baseURL)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.urlTo("/auth"), nil)
	if err != nil {
		return fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Authorization", "APIKEY "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read auth response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to unmarshal auth response: %w", err)
	}
	if result.AccessToken == "" {
		return fmt.Errorf("auth response carried no access token")
	}

	c.tokenMu.Lock()
	c.token = result.AccessToken
	c.tokenMu.Unlock()
	return nil
}

// Authenticated reports whether the client holds a token that has not
// visibly expired. The token is inspected, not verified; the service is the
// authority and a stale positive here just costs one retried call.
func (c *Client) Authenticated() bool {
	c.tokenMu.Lock()
	token := c.token
	c.tokenMu.Unlock()
	if token == "" {
		return false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true // opaque token; let the service decide
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Now().Before(exp.Time)
}

func (c *Client) authHeader() string {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	if c.token == "" {
		return ""
	}
	return "BEARER " + c.token
}

// withReauth runs an authenticated call, re-authenticating and retrying
// exactly once if the client has no live token or the service rejects it
// with 401/403.
func (c *Client) withReauth(ctx context.Context, call func() (*http.Response, error)) (*http.Response, error) {
	if !c.Authenticated() {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}
	resp, err := call()
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
		return resp, nil
	}
	resp.Body.Close()

	if err := c.Authenticate(ctx); err != nil {
		return nil, err
	}
	return call()
}

// get issues a GET with optional query parameters. No auth is attached;
// M3 read endpoints are open.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	u := c.urlTo(path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// authedForm issues an authenticated form-encoded mutation with reauth.
func (c *Client) authedForm(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	return c.withReauth(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.urlTo(path), strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if h := c.authHeader(); h != "" {
			req.Header.Set("Authorization", h)
		}
		return c.client.Do(req)
	})
}

// authedDelete issues an authenticated DELETE with reauth.
func (c *Client) authedDelete(ctx context.Context, path string) (*http.Response, error) {
	return c.withReauth(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, "DELETE", c.urlTo(path), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if h := c.authHeader(); h != "" {
			req.Header.Set("Authorization", h)
		}
		return c.client.Do(req)
	})
}

// postJSON issues a JSON POST. Auth is attached when the client holds a token.
func (c *Client) postJSON(ctx context.Context, path string, body string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.urlTo(path), strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h := c.authHeader(); h != "" {
		req.Header.Set("Authorization", h)
	}
	return c.client.Do(req)
}

// postJSONWithHeader issues a JSON POST carrying one extra header.
func (c *Client) postJSONWithHeader(ctx context.Context, path, body, header, value string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.urlTo(path), strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if value != "" {
		req.Header.Set(header, value)
	}
	return c.client.Do(req)
}

// readOK drains a response, failing on non-2xx statuses.
func readOK(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// Package xtream implements the client for Xtream-style IPTV provider APIs:
// authentication and catalog listing against {base}/player_api.php, plus the
// deterministic construction of playable stream URLs.
//
// Transport and HTTP failures are normalized into the closed taxonomy in
// internal/common (ErrUpstreamUnreachable, ErrUpstreamTimeout,
// ErrUpstreamAuthFailed, ErrUpstreamServerError); raw upstream errors never
// escape this package.
package xtream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avidalm/iptvgate/internal/common"
)

// DefaultTimeout bounds every upstream call. The provider protocol gives no
// partial responses, so a single deadline for the whole exchange is enough.
const DefaultTimeout = 10 * time.Second

// userAgent matches what set-top clients send; some panels reject requests
// without a browser-looking agent.
const userAgent = "Mozilla/5.0"

// Credentials identifies an account on an upstream provider.
type Credentials struct {
	BaseURL  string
	Username string
	Password string
}

// Item is one catalog entry (category, stream, or detail section). The
// upstream schema varies between panels, so entries are passed through
// as-is and only enriched, never reshaped.
type Item = map[string]any

// AuthResult is the parsed response of a successful authenticate call.
type AuthResult struct {
	UserInfo   Item `json:"user_info"`
	ServerInfo Item `json:"server_info"`
}

type Client struct {
	http *http.Client
}

// NewClient builds a gateway client. A non-positive timeout falls back to
// DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// apiURL composes {base}/player_api.php?username=..&password=..&action=..
// with trailing slashes stripped from the base URL.
func apiURL(creds Credentials, action string, extra url.Values) string {
	q := url.Values{}
	q.Set("username", creds.Username)
	q.Set("password", creds.Password)
	if action != "" {
		q.Set("action", action)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return strings.TrimRight(creds.BaseURL, "/") + "/player_api.php?" + q.Encode()
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamUnreachable, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, common.ErrUpstreamAuthFailed
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", common.ErrUpstreamServerError, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mapTransportError(err)
	}
	return body, nil
}

// mapTransportError translates net/http failures into the gateway taxonomy.
func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", common.ErrUpstreamTimeout, err)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return fmt.Errorf("%w: %v", common.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", common.ErrUpstreamUnreachable, err)
}

// Authenticate verifies the credentials against the provider. The protocol
// signals failure in-body rather than via status code: a 200 response
// without a user_info section is still an authentication failure.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (*AuthResult, error) {
	body, err := c.get(ctx, apiURL(creds, "", nil))
	if err != nil {
		return nil, err
	}

	var result AuthResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: unrecognized response body", common.ErrUpstreamAuthFailed)
	}
	if len(result.UserInfo) == 0 {
		return nil, fmt.Errorf("%w: no user_info in response", common.ErrUpstreamAuthFailed)
	}
	return &result, nil
}

// GetLiveCategories lists the provider's live-TV categories.
func (c *Client) GetLiveCategories(ctx context.Context, creds Credentials) ([]Item, error) {
	return c.list(ctx, apiURL(creds, "get_live_categories", nil))
}

// GetLiveStreams lists live streams, optionally restricted to one category.
// An empty categoryID lists everything.
func (c *Client) GetLiveStreams(ctx context.Context, creds Credentials, categoryID string) ([]Item, error) {
	extra := url.Values{}
	if categoryID != "" {
		extra.Set("category_id", categoryID)
	}
	return c.list(ctx, apiURL(creds, "get_live_streams", extra))
}

// GetVodCategories lists the provider's VOD categories.
func (c *Client) GetVodCategories(ctx context.Context, creds Credentials) ([]Item, error) {
	return c.list(ctx, apiURL(creds, "get_vod_categories", nil))
}

// GetVodStreams lists the VOD streams of one category.
func (c *Client) GetVodStreams(ctx context.Context, creds Credentials, categoryID string) ([]Item, error) {
	extra := url.Values{}
	extra.Set("category_id", categoryID)
	return c.list(ctx, apiURL(creds, "get_vod_streams", extra))
}

// GetVodInfo fetches the detail document of one VOD entry.
func (c *Client) GetVodInfo(ctx context.Context, creds Credentials, vodID string) (Item, error) {
	extra := url.Values{}
	extra.Set("vod_id", vodID)
	body, err := c.get(ctx, apiURL(creds, "get_vod_info", extra))
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return Item{}, nil
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	return Item{}, nil
}

// list fetches and decodes an array payload. Empty or absent payloads (and
// the panels that answer "false" instead of "[]") decode to an empty slice,
// never an error.
func (c *Client) list(ctx context.Context, rawURL string) ([]Item, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return []Item{}, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return []Item{}, nil
	}

	items := make([]Item, 0, len(raw))
	for _, entry := range raw {
		if m, ok := entry.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items, nil
}

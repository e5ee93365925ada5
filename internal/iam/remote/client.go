// Package remote implements the HTTP client for the IAM API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"legalthings.one/internal/iam"
	"legalthings.one/internal/obs"
)

const defaultTimeout = 5 * time.Second

// Client talks to the IAM HTTP API at a fixed base URL. Every call
// blocks until the round trip completes or the timeout fires; there is
// no retry.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures Client behavior.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout overrides the default 5 second request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps outbound calls with a token bucket.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// New creates a client for the IAM deployment at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", iam.ErrInvalidInput)
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var (
	_ iam.SessionSource = (*Client)(nil)
	_ iam.UserSource    = (*Client)(nil)
)

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, id string) (*iam.User, error) {
	var user iam.User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), "get_user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrganization fetches an organization by id.
func (c *Client) GetOrganization(ctx context.Context, id string) (*iam.Organization, error) {
	var org iam.Organization
	if err := c.do(ctx, http.MethodGet, "/organizations/"+url.PathEscape(id), "get_organization", nil, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// GetSession fetches the raw session payload by id.
func (c *Client) GetSession(ctx context.Context, id string) (*iam.SessionData, error) {
	var data iam.SessionData
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), "get_session", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CreateOneTimeSession creates a session for a single action/redirect
// flow. The party is either a registered *iam.User or an arbitrary
// external party object; state names the UI route the session lands on.
func (c *Client) CreateOneTimeSession(ctx context.Context, party any, state string, data any) (*iam.Session, error) {
	if party == nil {
		return nil, fmt.Errorf("%w: party is required", iam.ErrInvalidInput)
	}

	payload := map[string]any{}
	// Registered users go under "user", external parties under "party".
	if u, ok := party.(*iam.User); ok {
		payload["user"] = u
	} else {
		payload["party"] = party
	}
	action := map[string]any{"state": state}
	if data != nil {
		action["data"] = data
	}
	payload["action"] = action

	var sess iam.Session
	if err := c.do(ctx, http.MethodPost, "/sessions", "create_session", payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *Client) do(ctx context.Context, method, path, operation string, payload, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json, text/plain")
	req.Header.Set("Content-Type", "application/json")

	obs.IAMRequestStarted()
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		obs.ObserveIAMRequest(operation, "transport_error", time.Since(start))
		return err
	}
	defer resp.Body.Close()
	obs.ObserveIAMRequest(operation, strconv.Itoa(resp.StatusCode), time.Since(start))

	return classify(u, resp, out)
}

// classify maps an IAM response onto the result contract: a plain-text
// 404 means absent, anything else unexpected is a GatewayError, and only
// a parseable JSON body yields a result.
func classify(u string, resp *http.Response, out any) error {
	contentType := mediaType(resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound && contentType == "text/plain" {
		return iam.ErrNotFound
	}

	if resp.StatusCode >= 300 || (contentType != "application/json" && contentType != "text/plain") {
		message := fmt.Sprintf("server responded with a %d status and %s", resp.StatusCode, contentType)
		if contentType == "text/plain" {
			message = strings.TrimSpace(string(data))
		}
		return &iam.GatewayError{URL: u, Status: resp.StatusCode, Message: message}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &iam.GatewayError{URL: u, Status: resp.StatusCode, Message: "corrupt JSON response"}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &iam.GatewayError{URL: u, Status: resp.StatusCode, Message: "corrupt JSON response"}
	}
	return nil
}

// mediaType strips parameters such as "; charset=utf-8" from a
// Content-Type header.
func mediaType(header string) string {
	if i := strings.Index(header, ";"); i >= 0 {
		header = header[:i]
	}
	return strings.TrimSpace(header)
}

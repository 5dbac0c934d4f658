// Package api is the REST layer shared by the Jira, Confluence and Bitbucket
// clients: request building, authentication, error decoding and the
// retrying HTTP transport.
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// DefaultUserAgent is sent when a Client has no UserAgent.
const DefaultUserAgent = "atlassian-cli/1.0"

// Auth sets credentials on an outgoing request.
type Auth interface {
	Apply(req *http.Request)
}

// BasicAuth authenticates with a username (or Atlassian account email) and
// a password or API token.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Apply(req *http.Request) {
	token := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	req.Header.Set("Authorization", "Basic "+token)
}

// BearerAuth authenticates with an access token.
type BearerAuth struct {
	Token string
}

func (a BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// Client issues JSON requests against one REST API.
type Client struct {
	// BaseURL is prefixed to every relative path, e.g.
	// https://acme.atlassian.net/rest/api/3.
	BaseURL string
	// Service names the API in errors and telemetry, e.g. "Jira".
	Service    string
	Auth       Auth
	HTTPClient *http.Client
	UserAgent  string
}

// NewClient returns a Client for baseURL. A nil httpClient gets the default
// retrying client.
func NewClient(service, baseURL string, auth Auth, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(service, nil)
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Service:    service,
		Auth:       auth,
		HTTPClient: httpClient,
		UserAgent:  DefaultUserAgent,
	}
}

// WithoutRedirects returns a copy of c whose HTTP client hands 3xx responses
// back to the caller instead of following them.
func (c *Client) WithoutRedirects() *Client {
	cp := *c
	hc := *c.httpClient()
	hc.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	cp.HTTPClient = &hc
	return &cp
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// URL resolves path against BaseURL. Absolute URLs are returned unchanged.
func (c *Client) URL(path string, query url.Values) string {
	u := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		u = c.BaseURL + "/" + strings.TrimPrefix(path, "/")
	}
	if len(query) == 0 {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + query.Encode()
}

// Send builds and sends one logical request and returns the raw response.
// body, when non-nil, is encoded as JSON. The caller closes the response
// body. Every logical request carries its own X-Request-Id, which retries
// keep.
func (c *Client) Send(ctx context.Context, method, path string, query url.Values, body interface{}, accept string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.Auth != nil {
		c.Auth.Apply(req)
	}
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("X-Request-Id", uuid.NewString())

	return c.httpClient().Do(req)
}

// Do sends a JSON request and decodes a successful response into out. A nil
// out, a 204 or an empty body decode to nothing. Non-2xx responses become
// *Error.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	data, err := c.do(ctx, method, path, query, body, "application/json")
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s response: %w", c.Service, err)
	}
	return nil
}

// DoRaw sends a request and returns the successful response body as is.
func (c *Client) DoRaw(ctx context.Context, method, path string, query url.Values, accept string) ([]byte, error) {
	return c.do(ctx, method, path, query, nil, accept)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, accept string) ([]byte, error) {
	resp, err := c.Send(ctx, method, path, query, body, accept)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewError(c.Service, resp.StatusCode, data)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return data, nil
}

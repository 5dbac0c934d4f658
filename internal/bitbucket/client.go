// Package bitbucket is a client for the Bitbucket Cloud REST API 2.0.
package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/ShpetimA/atlassian-cli/internal/api"
)

const (
	serviceName = "Bitbucket"

	// DefaultURL is the Bitbucket Cloud API base.
	DefaultURL = "https://api.bitbucket.org/2.0"

	DefaultPagelen = 10
	MaxPagelen     = 100
)

// Config holds Bitbucket connection settings. Token takes precedence over
// Username/Password.
type Config struct {
	URL       string
	Token     string
	Username  string
	Password  string
	Workspace string
	// HTTPClient defaults to api.NewHTTPClient.
	HTTPClient *http.Client
}

var webURL = regexp.MustCompile(`^https?://bitbucket\.org/([^/]+)/?$`)

// NormalizeURL turns a configured URL into an API base. A web URL such as
// https://bitbucket.org/acme yields the API base and its workspace.
func NormalizeURL(raw string) (base, workspace string) {
	if raw == "" {
		return DefaultURL, ""
	}
	if m := webURL.FindStringSubmatch(raw); m != nil {
		return DefaultURL, m[1]
	}
	if strings.Contains(raw, "api.bitbucket.org") && !strings.Contains(raw, "/2.0") {
		return strings.TrimSuffix(raw, "/") + "/2.0", ""
	}
	return strings.TrimSuffix(raw, "/"), ""
}

// Client provides access to repositories and pull requests.
type Client struct {
	api       *api.Client
	workspace string
}

// NewClient creates a Bitbucket client.
func NewClient(cfg Config) *Client {
	base, ws := NormalizeURL(cfg.URL)
	if cfg.Workspace != "" {
		ws = cfg.Workspace
	}
	var auth api.Auth
	switch {
	case cfg.Token != "":
		auth = api.BearerAuth{Token: cfg.Token}
	case cfg.Username != "" && cfg.Password != "":
		auth = api.BasicAuth{Username: cfg.Username, Password: cfg.Password}
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = api.NewHTTPClient(serviceName, nil)
	}
	return &Client{api: api.NewClient(serviceName, base, auth, hc), workspace: ws}
}

// Workspace returns the configured or URL-derived workspace, if any.
func (c *Client) Workspace() string { return c.workspace }

// PageOptions selects a page of a collection.
type PageOptions struct {
	Pagelen int
	Page    int
}

// Clamp returns a pagelen within [1, MaxPagelen], defaulting to
// DefaultPagelen.
func Clamp(pagelen int) int {
	switch {
	case pagelen <= 0:
		return DefaultPagelen
	case pagelen > MaxPagelen:
		return MaxPagelen
	}
	return pagelen
}

func (o PageOptions) query() url.Values {
	q := url.Values{"pagelen": {strconv.Itoa(Clamp(o.Pagelen))}}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	return q
}

func repoPath(workspace, repo string) string {
	return "/repositories/" + url.PathEscape(workspace) + "/" + url.PathEscape(repo)
}

func prPath(workspace, repo string, id int) string {
	return repoPath(workspace, repo) + "/pullrequests/" + strconv.Itoa(id)
}

// ListRepositories lists a workspace's repositories, optionally filtered by
// a name substring.
func (c *Client) ListRepositories(ctx context.Context, workspace, name string, opts PageOptions) (*Page[Repository], error) {
	q := opts.query()
	if name != "" {
		q.Set("q", fmt.Sprintf(`name~"%s"`, name))
	}
	var page Page[Repository]
	if err := c.api.Do(ctx, http.MethodGet, "/repositories/"+url.PathEscape(workspace), q, nil, &page); err != nil {
		return nil, fmt.Errorf("list repositories in %s: %w", workspace, err)
	}
	return &page, nil
}

// ListPullRequests lists pull requests, filtered by state (OPEN, MERGED,
// DECLINED or SUPERSEDED) when non-empty.
func (c *Client) ListPullRequests(ctx context.Context, workspace, repo, state string, opts PageOptions) (*Page[PullRequest], error) {
	q := opts.query()
	if state != "" {
		q.Set("state", strings.ToUpper(state))
	}
	var page Page[PullRequest]
	if err := c.api.Do(ctx, http.MethodGet, repoPath(workspace, repo)+"/pullrequests", q, nil, &page); err != nil {
		return nil, fmt.Errorf("list pull requests in %s/%s: %w", workspace, repo, err)
	}
	return &page, nil
}

// GetPullRequest fetches one pull request.
func (c *Client) GetPullRequest(ctx context.Context, workspace, repo string, id int) (*PullRequest, error) {
	var pr PullRequest
	if err := c.api.Do(ctx, http.MethodGet, prPath(workspace, repo, id), nil, nil, &pr); err != nil {
		return nil, fmt.Errorf("get pull request %d: %w", id, err)
	}
	return &pr, nil
}

// GetPullRequestDiff returns the unified diff of a pull request, computed
// between its source and destination commits.
func (c *Client) GetPullRequestDiff(ctx context.Context, workspace, repo string, id int) (string, error) {
	pr, err := c.GetPullRequest(ctx, workspace, repo, id)
	if err != nil {
		return "", err
	}
	spec := fmt.Sprintf("%s/%s:%s%%0D%s", workspace, repo, pr.Source.Commit.Hash, pr.Destination.Commit.Hash)
	q := url.Values{"from_pullrequest_id": {strconv.Itoa(id)}, "topic": {"true"}}
	data, err := c.api.DoRaw(ctx, http.MethodGet, repoPath(workspace, repo)+"/diff/"+spec, q, "text/plain")
	if err != nil {
		return "", fmt.Errorf("get diff of pull request %d: %w", id, err)
	}
	return string(data), nil
}

// GetPullRequestDiffStat returns per-file change counts. Bitbucket answers
// with a redirect to the commit-range diffstat, which is followed here with
// the paging parameters merged into the target's query.
func (c *Client) GetPullRequestDiffStat(ctx context.Context, workspace, repo string, id int, opts PageOptions) (*Page[DiffStat], error) {
	q := opts.query()
	resp, err := c.api.WithoutRedirects().Send(ctx, http.MethodGet, prPath(workspace, repo, id)+"/diffstat", q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("get diffstat of pull request %d: %w", id, err)
	}
	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read diffstat: %w", err)
	}

	var next string
	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		loc, lerr := resp.Location()
		if lerr != nil {
			return nil, fmt.Errorf("get diffstat of pull request %d: redirect without location", id)
		}
		lq := loc.Query()
		for k, v := range q {
			lq[k] = v
		}
		loc.RawQuery = lq.Encode()
		next = loc.String()
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("get diffstat of pull request %d: %w", id, api.NewError(serviceName, resp.StatusCode, data))
	default:
		var page Page[DiffStat]
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("parse diffstat: %w", err)
		}
		return &page, nil
	}

	var page Page[DiffStat]
	if err := c.api.Do(ctx, http.MethodGet, next, nil, nil, &page); err != nil {
		return nil, fmt.Errorf("get diffstat of pull request %d: %w", id, err)
	}
	return &page, nil
}

// ListComments lists a pull request's comments.
func (c *Client) ListComments(ctx context.Context, workspace, repo string, id int, opts PageOptions) (*Page[Comment], error) {
	var page Page[Comment]
	if err := c.api.Do(ctx, http.MethodGet, prPath(workspace, repo, id)+"/comments", opts.query(), nil, &page); err != nil {
		return nil, fmt.Errorf("list comments on pull request %d: %w", id, err)
	}
	return &page, nil
}

// CommentInput is a new comment. A nil Inline makes a general comment; a
// nil Pending leaves the flag unset.
type CommentInput struct {
	Content string
	Inline  *Inline
	Pending *bool
}

// AddComment posts a comment on a pull request.
func (c *Client) AddComment(ctx context.Context, workspace, repo string, id int, in CommentInput) (*Comment, error) {
	body := map[string]interface{}{"content": map[string]string{"raw": in.Content}}
	if in.Inline != nil {
		body["inline"] = in.Inline
	}
	if in.Pending != nil {
		body["pending"] = *in.Pending
	}
	var cm Comment
	if err := c.api.Do(ctx, http.MethodPost, prPath(workspace, repo, id)+"/comments", nil, body, &cm); err != nil {
		return nil, fmt.Errorf("comment on pull request %d: %w", id, err)
	}
	return &cm, nil
}

// UpdateComment replaces a comment's text.
func (c *Client) UpdateComment(ctx context.Context, workspace, repo string, id, commentID int, content string, pending *bool) (*Comment, error) {
	body := map[string]interface{}{"content": map[string]string{"raw": content}}
	if pending != nil {
		body["pending"] = *pending
	}
	return c.putComment(ctx, workspace, repo, id, commentID, body)
}

// DeleteComment deletes a comment.
func (c *Client) DeleteComment(ctx context.Context, workspace, repo string, id, commentID int) error {
	path := prPath(workspace, repo, id) + "/comments/" + strconv.Itoa(commentID)
	if err := c.api.Do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete comment %d: %w", commentID, err)
	}
	return nil
}

// ResolveComment resolves (or with resolved=false reopens) a comment thread.
func (c *Client) ResolveComment(ctx context.Context, workspace, repo string, id, commentID int, resolved bool) (*Comment, error) {
	return c.putComment(ctx, workspace, repo, id, commentID, map[string]interface{}{"resolved": resolved})
}

func (c *Client) putComment(ctx context.Context, workspace, repo string, id, commentID int, body map[string]interface{}) (*Comment, error) {
	var cm Comment
	path := prPath(workspace, repo, id) + "/comments/" + strconv.Itoa(commentID)
	if err := c.api.Do(ctx, http.MethodPut, path, nil, body, &cm); err != nil {
		return nil, fmt.Errorf("update comment %d: %w", commentID, err)
	}
	return &cm, nil
}

// ListActivity lists a pull request's activity log.
func (c *Client) ListActivity(ctx context.Context, workspace, repo string, id int, opts PageOptions) (*Page[Activity], error) {
	var page Page[Activity]
	if err := c.api.Do(ctx, http.MethodGet, prPath(workspace, repo, id)+"/activity", opts.query(), nil, &page); err != nil {
		return nil, fmt.Errorf("list activity on pull request %d: %w", id, err)
	}
	return &page, nil
}

// ListCommits lists the commits of a pull request.
func (c *Client) ListCommits(ctx context.Context, workspace, repo string, id int, opts PageOptions) (*Page[Commit], error) {
	var page Page[Commit]
	if err := c.api.Do(ctx, http.MethodGet, prPath(workspace, repo, id)+"/commits", opts.query(), nil, &page); err != nil {
		return nil, fmt.Errorf("list commits of pull request %d: %w", id, err)
	}
	return &page, nil
}

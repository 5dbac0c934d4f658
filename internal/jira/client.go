package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ShpetimA/atlassian-cli/internal/api"
)

// DefaultSearchFields is the field set requested when a search names none.
var DefaultSearchFields = []string{
	"summary", "status", "priority", "issuetype", "project",
	"assignee", "reporter", "labels", "created", "updated",
}

const (
	serviceName      = "Jira"
	agileServiceName = "Jira Agile"
)

// Config holds what is needed to reach a Jira Cloud site.
type Config struct {
	// Domain is the site name ("acme" for acme.atlassian.net), a host name,
	// or a full base URL.
	Domain   string
	Email    string
	APIToken string
	// HTTPClient defaults to api.NewHTTPClient.
	HTTPClient *http.Client
}

// SiteURL returns the base URL of the Jira site named by domain.
func SiteURL(domain string) string {
	domain = strings.TrimSuffix(strings.TrimSpace(domain), "/")
	switch {
	case strings.Contains(domain, "://"):
		return domain
	case strings.Contains(domain, "."):
		return "https://" + domain
	default:
		return "https://" + domain + ".atlassian.net"
	}
}

// Client provides HTTP access to the Jira REST API v3.
type Client struct {
	api  *api.Client
	site string
}

// NewClient creates a new Jira client.
func NewClient(cfg Config) *Client {
	site := SiteURL(cfg.Domain)
	hc := cfg.HTTPClient
	if hc == nil {
		hc = api.NewHTTPClient(serviceName, nil)
	}
	auth := api.BasicAuth{Username: cfg.Email, Password: cfg.APIToken}
	return &Client{
		api:  api.NewClient(serviceName, site+"/rest/api/3", auth, hc),
		site: site,
	}
}

// Site returns the base URL of the Jira site.
func (c *Client) Site() string { return c.site }

// BrowseURL returns the web URL of an issue.
func (c *Client) BrowseURL(key string) string { return c.site + "/browse/" + key }

// GetIssue fetches a single Jira issue by key (e.g., "PROJ-123").
func (c *Client) GetIssue(ctx context.Context, key string, expand ...string) (*Issue, error) {
	q := url.Values{}
	if len(expand) > 0 {
		q.Set("expand", strings.Join(expand, ","))
	}
	var issue Issue
	if err := c.api.Do(ctx, http.MethodGet, "/issue/"+url.PathEscape(key), q, nil, &issue); err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}
	return &issue, nil
}

// SearchOptions controls a JQL search.
type SearchOptions struct {
	StartAt       int
	MaxResults    int
	Fields        []string
	Expand        []string
	NextPageToken string
}

// SearchIssues runs a JQL query and returns one page of results.
func (c *Client) SearchIssues(ctx context.Context, jql string, opts SearchOptions) (*SearchResult, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 50
	}
	if len(opts.Fields) == 0 {
		opts.Fields = DefaultSearchFields
	}
	body := map[string]interface{}{
		"jql":        jql,
		"maxResults": opts.MaxResults,
		"fields":     opts.Fields,
	}
	if opts.StartAt > 0 {
		body["startAt"] = opts.StartAt
	}
	if len(opts.Expand) > 0 {
		body["expand"] = strings.Join(opts.Expand, ",")
	}
	if opts.NextPageToken != "" {
		body["nextPageToken"] = opts.NextPageToken
	}

	var result SearchResult
	if err := c.api.Do(ctx, http.MethodPost, "/search/jql", nil, body, &result); err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}
	return &result, nil
}

// CountIssues returns Jira's approximate count of issues matching jql.
func (c *Client) CountIssues(ctx context.Context, jql string) (*ApproximateCount, error) {
	var result ApproximateCount
	err := c.api.Do(ctx, http.MethodPost, "/search/approximate-count", nil, map[string]string{"jql": jql}, &result)
	if err != nil {
		return nil, fmt.Errorf("count issues: %w", err)
	}
	return &result, nil
}

// CreateIssue creates a new issue in Jira.
// fields should include "project", "summary", "issuetype", and optionally other fields.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]interface{}) (*CreatedIssue, error) {
	var created CreatedIssue
	if err := c.api.Do(ctx, http.MethodPost, "/issue", nil, map[string]interface{}{"fields": fields}, &created); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	return &created, nil
}

// UpdateIssue updates an existing Jira issue by key.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]interface{}) error {
	if err := c.api.Do(ctx, http.MethodPut, "/issue/"+url.PathEscape(key), nil, map[string]interface{}{"fields": fields}, nil); err != nil {
		return fmt.Errorf("update issue %s: %w", key, err)
	}
	return nil
}

// DeleteIssue deletes an issue, and its subtasks when deleteSubtasks is set.
func (c *Client) DeleteIssue(ctx context.Context, key string, deleteSubtasks bool) error {
	q := url.Values{"deleteSubtasks": {strconv.FormatBool(deleteSubtasks)}}
	if err := c.api.Do(ctx, http.MethodDelete, "/issue/"+url.PathEscape(key), q, nil, nil); err != nil {
		return fmt.Errorf("delete issue %s: %w", key, err)
	}
	return nil
}

// AssignIssue assigns an issue to accountID. An empty accountID unassigns.
func (c *Client) AssignIssue(ctx context.Context, key, accountID string) error {
	body := map[string]interface{}{"accountId": nil}
	if accountID != "" {
		body["accountId"] = accountID
	}
	if err := c.api.Do(ctx, http.MethodPut, "/issue/"+url.PathEscape(key)+"/assignee", nil, body, nil); err != nil {
		return fmt.Errorf("assign issue %s: %w", key, err)
	}
	return nil
}

// GetTransitions lists the transitions available to an issue.
func (c *Client) GetTransitions(ctx context.Context, key string) ([]Transition, error) {
	var resp struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := c.api.Do(ctx, http.MethodGet, "/issue/"+url.PathEscape(key)+"/transitions", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("get transitions for %s: %w", key, err)
	}
	return resp.Transitions, nil
}

// TransitionIssue moves an issue through a workflow transition.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string) error {
	body := map[string]interface{}{"transition": map[string]string{"id": transitionID}}
	if err := c.api.Do(ctx, http.MethodPost, "/issue/"+url.PathEscape(key)+"/transitions", nil, body, nil); err != nil {
		return fmt.Errorf("transition issue %s: %w", key, err)
	}
	return nil
}

// FindTransition resolves a transition by id or case-insensitive name.
func FindTransition(transitions []Transition, idOrName string) (*Transition, bool) {
	for i := range transitions {
		t := &transitions[i]
		if t.ID == idOrName || strings.EqualFold(t.Name, idOrName) {
			return t, true
		}
		if t.To != nil && strings.EqualFold(t.To.Name, idOrName) {
			return t, true
		}
	}
	return nil, false
}

// GetComments returns one page of an issue's comments.
func (c *Client) GetComments(ctx context.Context, key string, startAt, maxResults int) (*CommentsResponse, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	q := url.Values{
		"startAt":    {strconv.Itoa(startAt)},
		"maxResults": {strconv.Itoa(maxResults)},
	}
	var resp CommentsResponse
	if err := c.api.Do(ctx, http.MethodGet, "/issue/"+url.PathEscape(key)+"/comment", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("get comments for %s: %w", key, err)
	}
	return &resp, nil
}

// AddComment adds a plain-text comment to an issue.
func (c *Client) AddComment(ctx context.Context, key, text string) (*Comment, error) {
	var comment Comment
	body := map[string]interface{}{"body": PlainTextToADF(text)}
	if err := c.api.Do(ctx, http.MethodPost, "/issue/"+url.PathEscape(key)+"/comment", nil, body, &comment); err != nil {
		return nil, fmt.Errorf("add comment to %s: %w", key, err)
	}
	return &comment, nil
}

// SearchUsers finds users by name or email.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]User, error) {
	var users []User
	q := url.Values{"query": {query}, "maxResults": {"10"}}
	if err := c.api.Do(ctx, http.MethodGet, "/user/search", q, nil, &users); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

// Myself returns the authenticated user.
func (c *Client) Myself(ctx context.Context) (*User, error) {
	var u User
	if err := c.api.Do(ctx, http.MethodGet, "/myself", nil, nil, &u); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &u, nil
}

// GetWorklogs returns the worklogs of an issue.
func (c *Client) GetWorklogs(ctx context.Context, key string) (*WorklogsResponse, error) {
	var resp WorklogsResponse
	if err := c.api.Do(ctx, http.MethodGet, "/issue/"+url.PathEscape(key)+"/worklog", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("get worklogs for %s: %w", key, err)
	}
	return &resp, nil
}

// WorklogInput describes a new worklog. TimeSpent uses Jira notation
// ("1h 30m").
type WorklogInput struct {
	TimeSpent string
	Started   time.Time
	Comment   string
}

// AddWorklog logs work on an issue.
func (c *Client) AddWorklog(ctx context.Context, key string, in WorklogInput) (*Worklog, error) {
	body := map[string]interface{}{"timeSpent": in.TimeSpent}
	if !in.Started.IsZero() {
		body["started"] = FormatTimestamp(in.Started)
	}
	if in.Comment != "" {
		body["comment"] = PlainTextToADF(in.Comment)
	}
	var w Worklog
	if err := c.api.Do(ctx, http.MethodPost, "/issue/"+url.PathEscape(key)+"/worklog", nil, body, &w); err != nil {
		return nil, fmt.Errorf("add worklog to %s: %w", key, err)
	}
	return &w, nil
}

// DeleteWorklog removes a worklog from an issue.
func (c *Client) DeleteWorklog(ctx context.Context, key, worklogID string) error {
	path := "/issue/" + url.PathEscape(key) + "/worklog/" + url.PathEscape(worklogID)
	if err := c.api.Do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete worklog %s on %s: %w", worklogID, key, err)
	}
	return nil
}

// ProjectListOptions filters /project/search.
type ProjectListOptions struct {
	Query      string
	TypeKey    string
	StartAt    int
	MaxResults int
}

// ListProjects returns one page of visible projects.
func (c *Client) ListProjects(ctx context.Context, opts ProjectListOptions) (*ProjectSearchResult, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 50
	}
	q := url.Values{
		"startAt":    {strconv.Itoa(opts.StartAt)},
		"maxResults": {strconv.Itoa(opts.MaxResults)},
	}
	if opts.Query != "" {
		q.Set("query", opts.Query)
	}
	if opts.TypeKey != "" {
		q.Set("typeKey", opts.TypeKey)
	}
	var result ProjectSearchResult
	if err := c.api.Do(ctx, http.MethodGet, "/project/search", q, nil, &result); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return &result, nil
}

// GetProject fetches a project by key or id.
func (c *Client) GetProject(ctx context.Context, keyOrID string) (*Project, error) {
	var p Project
	if err := c.api.Do(ctx, http.MethodGet, "/project/"+url.PathEscape(keyOrID), nil, nil, &p); err != nil {
		return nil, fmt.Errorf("get project %s: %w", keyOrID, err)
	}
	return &p, nil
}

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

type BoardLocation struct {
	ProjectID   int    `json:"projectId,omitempty"`
	ProjectKey  string `json:"projectKey,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type Board struct {
	ID       int            `json:"id"`
	Self     string         `json:"self,omitempty"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Location *BoardLocation `json:"location,omitempty"`
}

func (b *Board) Plain() string {
	s := fmt.Sprintf("%d: %s (%s)", b.ID, b.Name, b.Type)
	if b.Location != nil && b.Location.ProjectKey != "" {
		s += " [" + b.Location.ProjectKey + "]"
	}
	return s
}

type BoardsResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	IsLast     bool    `json:"isLast"`
	Values     []Board `json:"values"`
}

func (r *BoardsResponse) Plain() string {
	lines := make([]string, len(r.Values))
	for i := range r.Values {
		lines[i] = r.Values[i].Plain()
	}
	return strings.Join(lines, "\n")
}

type Sprint struct {
	ID            int    `json:"id"`
	Self          string `json:"self,omitempty"`
	State         string `json:"state"`
	Name          string `json:"name"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	CompleteDate  string `json:"completeDate,omitempty"`
	OriginBoardID int    `json:"originBoardId,omitempty"`
	Goal          string `json:"goal,omitempty"`
}

func (s *Sprint) Plain() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d: %s [%s]", s.ID, s.Name, s.State)
	if s.StartDate != "" || s.EndDate != "" {
		fmt.Fprintf(&b, "\n%s -> %s", shortDate(s.StartDate), shortDate(s.EndDate))
	}
	if s.Goal != "" {
		fmt.Fprintf(&b, "\nGoal: %s", s.Goal)
	}
	return b.String()
}

type SprintsResponse struct {
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	IsLast     bool     `json:"isLast"`
	Values     []Sprint `json:"values"`
}

func (r *SprintsResponse) Plain() string {
	parts := make([]string, len(r.Values))
	for i := range r.Values {
		parts[i] = r.Values[i].Plain()
	}
	return strings.Join(parts, "\n---\n")
}

// AgileClient provides access to the Jira Software REST API
// (/rest/agile/1.0).
type AgileClient struct {
	api *api.Client
	now func() time.Time
}

// NewAgileClient creates a client for the board and sprint API.
func NewAgileClient(cfg Config) *AgileClient {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = api.NewHTTPClient(agileServiceName, nil)
	}
	auth := api.BasicAuth{Username: cfg.Email, Password: cfg.APIToken}
	return &AgileClient{
		api: api.NewClient(agileServiceName, SiteURL(cfg.Domain)+"/rest/agile/1.0", auth, hc),
		now: time.Now,
	}
}

// BoardListOptions filters ListBoards.
type BoardListOptions struct {
	Type           string // scrum, kanban or simple
	Name           string
	ProjectKeyOrID string
	StartAt        int
	MaxResults     int
}

func pageQuery(startAt, maxResults int) url.Values {
	if maxResults <= 0 {
		maxResults = 50
	}
	return url.Values{
		"startAt":    {strconv.Itoa(startAt)},
		"maxResults": {strconv.Itoa(maxResults)},
	}
}

// ListBoards returns one page of boards.
func (c *AgileClient) ListBoards(ctx context.Context, opts BoardListOptions) (*BoardsResponse, error) {
	q := pageQuery(opts.StartAt, opts.MaxResults)
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	if opts.Name != "" {
		q.Set("name", opts.Name)
	}
	if opts.ProjectKeyOrID != "" {
		q.Set("projectKeyOrId", opts.ProjectKeyOrID)
	}
	var resp BoardsResponse
	if err := c.api.Do(ctx, http.MethodGet, "/board", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return &resp, nil
}

// GetBoard fetches a board by id.
func (c *AgileClient) GetBoard(ctx context.Context, id int) (*Board, error) {
	var b Board
	if err := c.api.Do(ctx, http.MethodGet, "/board/"+strconv.Itoa(id), nil, nil, &b); err != nil {
		return nil, fmt.Errorf("get board %d: %w", id, err)
	}
	return &b, nil
}

// ListSprints returns one page of a board's sprints. state filters by
// future, active or closed (comma separated).
func (c *AgileClient) ListSprints(ctx context.Context, boardID int, state string, startAt, maxResults int) (*SprintsResponse, error) {
	q := pageQuery(startAt, maxResults)
	if state != "" {
		q.Set("state", state)
	}
	var resp SprintsResponse
	if err := c.api.Do(ctx, http.MethodGet, "/board/"+strconv.Itoa(boardID)+"/sprint", q, nil, &resp); err != nil {
		return nil, fmt.Errorf("list sprints for board %d: %w", boardID, err)
	}
	return &resp, nil
}

// GetSprint fetches a sprint by id.
func (c *AgileClient) GetSprint(ctx context.Context, id int) (*Sprint, error) {
	var s Sprint
	if err := c.api.Do(ctx, http.MethodGet, "/sprint/"+strconv.Itoa(id), nil, nil, &s); err != nil {
		return nil, fmt.Errorf("get sprint %d: %w", id, err)
	}
	return &s, nil
}

// SprintInput describes a new sprint. Zero dates are omitted.
type SprintInput struct {
	Name      string
	BoardID   int
	StartDate time.Time
	EndDate   time.Time
	Goal      string
}

// CreateSprint creates a future sprint on a board.
func (c *AgileClient) CreateSprint(ctx context.Context, in SprintInput) (*Sprint, error) {
	body := map[string]interface{}{
		"name":          in.Name,
		"originBoardId": in.BoardID,
	}
	if !in.StartDate.IsZero() {
		body["startDate"] = in.StartDate.UTC().Format(time.RFC3339)
	}
	if !in.EndDate.IsZero() {
		body["endDate"] = in.EndDate.UTC().Format(time.RFC3339)
	}
	if in.Goal != "" {
		body["goal"] = in.Goal
	}
	var s Sprint
	if err := c.api.Do(ctx, http.MethodPost, "/sprint", nil, body, &s); err != nil {
		return nil, fmt.Errorf("create sprint: %w", err)
	}
	return &s, nil
}

// UpdateSprint partially updates a sprint; only the given fields change.
func (c *AgileClient) UpdateSprint(ctx context.Context, id int, fields map[string]interface{}) (*Sprint, error) {
	var s Sprint
	if err := c.api.Do(ctx, http.MethodPost, "/sprint/"+strconv.Itoa(id), nil, fields, &s); err != nil {
		return nil, fmt.Errorf("update sprint %d: %w", id, err)
	}
	return &s, nil
}

// StartSprint activates a sprint for the given period.
func (c *AgileClient) StartSprint(ctx context.Context, id int, start, end time.Time) (*Sprint, error) {
	return c.UpdateSprint(ctx, id, map[string]interface{}{
		"state":     "active",
		"startDate": start.UTC().Format(time.RFC3339),
		"endDate":   end.UTC().Format(time.RFC3339),
	})
}

// CloseSprint closes a sprint. A zero completed time means now.
func (c *AgileClient) CloseSprint(ctx context.Context, id int, completed time.Time) (*Sprint, error) {
	if completed.IsZero() {
		completed = c.now()
	}
	return c.UpdateSprint(ctx, id, map[string]interface{}{
		"state":        "closed",
		"completeDate": completed.UTC().Format(time.RFC3339),
	})
}

// MoveIssuesToSprint moves up to 50 issues into a sprint.
func (c *AgileClient) MoveIssuesToSprint(ctx context.Context, id int, keys []string) error {
	body := map[string]interface{}{"issues": keys}
	if err := c.api.Do(ctx, http.MethodPost, "/sprint/"+strconv.Itoa(id)+"/issue", nil, body, nil); err != nil {
		return fmt.Errorf("move issues to sprint %d: %w", id, err)
	}
	return nil
}

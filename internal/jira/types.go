// Package jira is a client for the Jira Cloud REST API (v3) and the Jira
// Software Agile API.
package jira

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Issue represents a Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self,omitempty"`
	Fields IssueFields `json:"fields"`
	// Names maps field ids to display names when requested with expand=names.
	Names map[string]string `json:"names,omitempty"`
}

// IssueFields contains the fields of a Jira issue.
type IssueFields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description,omitempty"` // ADF document
	Status      *Status         `json:"status,omitempty"`
	Priority    *Priority       `json:"priority,omitempty"`
	IssueType   *IssueType      `json:"issuetype,omitempty"`
	Project     *Project        `json:"project,omitempty"`
	Assignee    *User           `json:"assignee,omitempty"`
	Reporter    *User           `json:"reporter,omitempty"`
	Labels      []string        `json:"labels,omitempty"`
	Created     string          `json:"created,omitempty"`
	Updated     string          `json:"updated,omitempty"`
	Resolution  *Resolution     `json:"resolution,omitempty"`
	Parent      *IssueRef       `json:"parent,omitempty"`
}

// IssueRef is the abbreviated issue embedded in parent and link fields.
type IssueRef struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type Status struct {
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	StatusCategory *StatusCategory `json:"statusCategory,omitempty"`
}

type StatusCategory struct {
	ID   int    `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

type Priority struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type IssueType struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Subtask     bool   `json:"subtask,omitempty"`
}

type Resolution struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// User represents a Jira user.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
	Active       bool   `json:"active,omitempty"`
}

// Plain renders the user for plain-text output.
func (u *User) Plain() string {
	s := fmt.Sprintf("%s (%s)", u.DisplayName, u.AccountID)
	if u.EmailAddress != "" {
		s += " <" + u.EmailAddress + ">"
	}
	return s
}

// Project represents a Jira project.
type Project struct {
	ID             string `json:"id"`
	Key            string `json:"key"`
	Name           string `json:"name,omitempty"`
	Description    string `json:"description,omitempty"`
	ProjectTypeKey string `json:"projectTypeKey,omitempty"`
	Lead           *User  `json:"lead,omitempty"`
}

func (p *Project) Plain() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", p.Key, p.Name)
	if p.ProjectTypeKey != "" {
		fmt.Fprintf(&b, "\nType: %s", p.ProjectTypeKey)
	}
	if p.Lead != nil {
		fmt.Fprintf(&b, "\nLead: %s", p.Lead.DisplayName)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", p.Description)
	}
	return b.String()
}

// ProjectSearchResult is a page of /project/search.
type ProjectSearchResult struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	IsLast     bool      `json:"isLast"`
	Values     []Project `json:"values"`
}

// Plain renders one "KEY: Name" line per project.
func (r *ProjectSearchResult) Plain() string {
	lines := make([]string, 0, len(r.Values)+1)
	for _, p := range r.Values {
		lines = append(lines, fmt.Sprintf("%s: %s", p.Key, p.Name))
	}
	if !r.IsLast && r.Total > 0 {
		lines = append(lines, fmt.Sprintf("(%d-%d of %d)", r.StartAt+1, r.StartAt+len(r.Values), r.Total))
	}
	return strings.Join(lines, "\n")
}

// SearchResult represents a page of /search/jql. The endpoint pages with
// nextPageToken; startAt and total are kept for older deployments.
type SearchResult struct {
	StartAt       int     `json:"startAt,omitempty"`
	MaxResults    int     `json:"maxResults,omitempty"`
	Total         int     `json:"total,omitempty"`
	IsLast        bool    `json:"isLast,omitempty"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
	Issues        []Issue `json:"issues"`
}

// Plain renders one line per issue.
func (r *SearchResult) Plain() string {
	if len(r.Issues) == 0 {
		return "No issues found"
	}
	lines := make([]string, 0, len(r.Issues)+1)
	for i := range r.Issues {
		lines = append(lines, r.Issues[i].Line())
	}
	if r.Total > len(r.Issues) {
		lines = append(lines, fmt.Sprintf("(%d of %d)", len(r.Issues), r.Total))
	}
	return strings.Join(lines, "\n")
}

// ApproximateCount is the response of /search/approximate-count.
type ApproximateCount struct {
	Count int `json:"count"`
}

func (c *ApproximateCount) Plain() string { return fmt.Sprintf("%d", c.Count) }

type Transition struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	To   *Status `json:"to,omitempty"`
}

func (t *Transition) Plain() string {
	if t.To == nil {
		return fmt.Sprintf("%s: %s", t.ID, t.Name)
	}
	return fmt.Sprintf("%s: %s -> %s", t.ID, t.Name, t.To.Name)
}

type Comment struct {
	ID      string          `json:"id"`
	Author  *User           `json:"author,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
	Created string          `json:"created,omitempty"`
	Updated string          `json:"updated,omitempty"`
}

func (c *Comment) Plain() string {
	author := "unknown"
	if c.Author != nil {
		author = c.Author.DisplayName
	}
	return fmt.Sprintf("[%s] %s (%s):\n%s", c.ID, author, shortDate(c.Created), ADFToPlainText(c.Body))
}

type CommentsResponse struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Comments   []Comment `json:"comments"`
}

func (r *CommentsResponse) Plain() string {
	if len(r.Comments) == 0 {
		return "No comments"
	}
	parts := make([]string, len(r.Comments))
	for i := range r.Comments {
		parts[i] = r.Comments[i].Plain()
	}
	return strings.Join(parts, "\n---\n")
}

type Worklog struct {
	ID               string          `json:"id"`
	IssueID          string          `json:"issueId,omitempty"`
	Author           *User           `json:"author,omitempty"`
	Comment          json.RawMessage `json:"comment,omitempty"`
	Started          string          `json:"started,omitempty"`
	TimeSpent        string          `json:"timeSpent,omitempty"`
	TimeSpentSeconds int             `json:"timeSpentSeconds,omitempty"`
}

func (w *Worklog) Plain() string {
	author := "unknown"
	if w.Author != nil {
		author = w.Author.DisplayName
	}
	s := fmt.Sprintf("[%s] %s logged %s on %s", w.ID, author, w.TimeSpent, shortDate(w.Started))
	if text := ADFToPlainText(w.Comment); text != "" {
		s += "\n" + text
	}
	return s
}

type WorklogsResponse struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Worklogs   []Worklog `json:"worklogs"`
}

func (r *WorklogsResponse) Plain() string {
	if len(r.Worklogs) == 0 {
		return "No worklogs"
	}
	parts := make([]string, len(r.Worklogs))
	for i := range r.Worklogs {
		parts[i] = r.Worklogs[i].Plain()
	}
	return strings.Join(parts, "\n---\n")
}

// CreatedIssue is the response of issue creation.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

func (c *CreatedIssue) Plain() string { return fmt.Sprintf("Created %s", c.Key) }

// Line renders the issue as a single summary line.
func (i *Issue) Line() string {
	status := ""
	if i.Fields.Status != nil {
		status = i.Fields.Status.Name
	}
	return fmt.Sprintf("%s [%s] %s", i.Key, status, i.Fields.Summary)
}

// Plain renders the issue for plain-text output.
func (i *Issue) Plain() string {
	f := i.Fields
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", i.Key, f.Summary)
	if f.IssueType != nil {
		fmt.Fprintf(&b, "Type: %s\n", f.IssueType.Name)
	}
	if f.Status != nil {
		fmt.Fprintf(&b, "Status: %s\n", f.Status.Name)
	}
	if f.Priority != nil {
		fmt.Fprintf(&b, "Priority: %s\n", f.Priority.Name)
	}
	assignee := "Unassigned"
	if f.Assignee != nil {
		assignee = f.Assignee.DisplayName
	}
	fmt.Fprintf(&b, "Assignee: %s\n", assignee)
	if f.Reporter != nil {
		fmt.Fprintf(&b, "Reporter: %s\n", f.Reporter.DisplayName)
	}
	if f.Parent != nil {
		fmt.Fprintf(&b, "Parent: %s\n", f.Parent.Key)
	}
	if len(f.Labels) > 0 {
		fmt.Fprintf(&b, "Labels: %s\n", strings.Join(f.Labels, ", "))
	}
	if f.Created != "" {
		fmt.Fprintf(&b, "Created: %s\n", shortDate(f.Created))
	}
	if f.Updated != "" {
		fmt.Fprintf(&b, "Updated: %s\n", shortDate(f.Updated))
	}
	if desc := ADFToPlainText(f.Description); desc != "" {
		fmt.Fprintf(&b, "\n%s\n", desc)
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortDate(ts string) string {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04")
}

package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ShpetimA/atlassian-cli/internal/task"
)

// ArchiveResult is the synchronous response of archiving issues by key.
type ArchiveResult struct {
	NumberOfIssuesUpdated int             `json:"numberOfIssuesUpdated"`
	Errors                json.RawMessage `json:"errors,omitempty"`
}

func (r *ArchiveResult) Plain() string {
	s := fmt.Sprintf("Archived %d issue(s)", r.NumberOfIssuesUpdated)
	if len(r.Errors) > 0 && string(r.Errors) != "{}" && string(r.Errors) != "null" {
		s += "\nErrors: " + string(r.Errors)
	}
	return s
}

// ArchiveIssues archives the given issues. Jira applies the change
// synchronously.
func (c *Client) ArchiveIssues(ctx context.Context, keys []string) (*ArchiveResult, error) {
	var result ArchiveResult
	body := map[string]interface{}{"issueIdsOrKeys": keys}
	if err := c.api.Do(ctx, http.MethodPut, "/issue/archive", nil, body, &result); err != nil {
		return nil, fmt.Errorf("archive issues: %w", err)
	}
	return &result, nil
}

// ArchiveIssuesByJQL submits an asynchronous archive of every issue
// matching jql and returns the id of the task tracking it.
func (c *Client) ArchiveIssuesByJQL(ctx context.Context, jql string) (string, error) {
	var raw json.RawMessage
	if err := c.api.Do(ctx, http.MethodPost, "/issue/archive", nil, map[string]string{"jql": jql}, &raw); err != nil {
		return "", fmt.Errorf("archive issues by JQL: %w", err)
	}
	id, err := parseTaskRef(raw)
	if err != nil {
		return "", fmt.Errorf("archive issues by JQL: %w", err)
	}
	return id, nil
}

// parseTaskRef extracts a task id from the body of an async submission:
// a task URL (quoted or bare), a bare id, or an object with taskId/id.
func parseTaskRef(raw json.RawMessage) (string, error) {
	var obj struct {
		TaskID string `json:"taskId"`
		ID     string `json:"id"`
		Self   string `json:"self"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		switch {
		case obj.TaskID != "":
			return obj.TaskID, nil
		case obj.ID != "":
			return obj.ID, nil
		case obj.Self != "":
			raw = json.RawMessage(obj.Self)
		}
	}

	ref := strings.TrimSpace(string(raw))
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		ref = s
	}
	ref = strings.TrimSuffix(ref, "/")
	if i := strings.LastIndex(ref, "/task/"); i != -1 {
		ref = ref[i+len("/task/"):]
	}
	if ref == "" || strings.ContainsAny(ref, "/{} ") {
		return "", fmt.Errorf("unrecognized task reference %q", string(raw))
	}
	return ref, nil
}

// GetTask returns the current state of an async task. It satisfies
// task.Fetcher.
func (c *Client) GetTask(ctx context.Context, id string) (*task.Task, error) {
	var t task.Task
	if err := c.api.Do(ctx, http.MethodGet, "/task/"+url.PathEscape(id), nil, nil, &t); err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &t, nil
}

// CancelTask requests cancellation of an async task.
func (c *Client) CancelTask(ctx context.Context, id string) error {
	if err := c.api.Do(ctx, http.MethodPost, "/task/"+url.PathEscape(id)+"/cancel", nil, nil, nil); err != nil {
		return fmt.Errorf("cancel task %s: %w", id, err)
	}
	return nil
}

var _ task.Fetcher = (*Client)(nil)

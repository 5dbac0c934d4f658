package jira

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ShpetimA/atlassian-cli/internal/api"
	"github.com/ShpetimA/atlassian-cli/internal/task"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{Domain: srv.URL, Email: "me@example.com", APIToken: "tok", HTTPClient: srv.Client()})
}

func TestSiteURL(t *testing.T) {
	tests := map[string]string{
		"acme":                       "https://acme.atlassian.net",
		"acme.atlassian.net":         "https://acme.atlassian.net",
		"https://jira.example.com/":  "https://jira.example.com",
		" http://localhost:8080 ":    "http://localhost:8080",
		"acme.jira-dev.example.com/": "https://acme.jira-dev.example.com",
	}
	for in, want := range tests {
		if got := SiteURL(in); got != want {
			t.Errorf("SiteURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetIssue(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue/PROJ-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("expand"); got != "renderedFields,names" {
			t.Errorf("expand = %q", got)
		}
		w.Write([]byte(`{"id":"10001","key":"PROJ-1","fields":{"summary":"Fix login","status":{"name":"In Progress"},
			"description":{"type":"doc","version":1,"content":[{"type":"paragraph","content":[{"type":"text","text":"Steps"}]}]}}}`))
	})

	issue, err := c.GetIssue(context.Background(), "PROJ-1", "renderedFields", "names")
	if err != nil {
		t.Fatalf("GetIssue() error = %v", err)
	}
	if issue.Key != "PROJ-1" || issue.Fields.Summary != "Fix login" {
		t.Errorf("issue = %+v", issue)
	}
	if got := issue.Line(); got != "PROJ-1 [In Progress] Fix login" {
		t.Errorf("Line() = %q", got)
	}
	if !strings.Contains(issue.Plain(), "Assignee: Unassigned") || !strings.HasSuffix(issue.Plain(), "Steps") {
		t.Errorf("Plain() = %q", issue.Plain())
	}
}

func TestGetIssueNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorMessages":["Issue does not exist or you do not have permission to see it."],"errors":{}}`))
	})

	_, err := c.GetIssue(context.Background(), "PROJ-404")
	if !api.IsNotFound(err) {
		t.Fatalf("GetIssue() error = %v, want 404", err)
	}
	want := "get issue PROJ-404: Jira API error (404): Issue does not exist or you do not have permission to see it."
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestSearchIssuesSendsDefaults(t *testing.T) {
	var body map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/api/3/search/jql" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"issues":[{"key":"A-1","fields":{"summary":"one"}},{"key":"A-2","fields":{"summary":"two"}}],"isLast":true}`))
	})

	res, err := c.SearchIssues(context.Background(), "project = A", SearchOptions{})
	if err != nil {
		t.Fatalf("SearchIssues() error = %v", err)
	}
	if len(res.Issues) != 2 {
		t.Fatalf("got %d issues, want 2", len(res.Issues))
	}
	if body["jql"] != "project = A" || body["maxResults"] != float64(50) {
		t.Errorf("body = %v", body)
	}
	if fields, _ := body["fields"].([]interface{}); len(fields) != len(DefaultSearchFields) {
		t.Errorf("fields = %v", body["fields"])
	}
	if _, ok := body["startAt"]; ok {
		t.Error("startAt sent for first page")
	}
}

func TestAssignIssueNullUnassigns(t *testing.T) {
	var raw string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.AssignIssue(context.Background(), "A-1", ""); err != nil {
		t.Fatalf("AssignIssue() error = %v", err)
	}
	if raw != `{"accountId":null}` {
		t.Errorf("body = %s, want accountId null", raw)
	}
}

func TestFindTransition(t *testing.T) {
	ts := []Transition{
		{ID: "11", Name: "Start Progress", To: &Status{Name: "In Progress"}},
		{ID: "31", Name: "Done", To: &Status{Name: "Done"}},
	}
	for _, q := range []string{"11", "start progress", "in progress"} {
		got, ok := FindTransition(ts, q)
		if !ok || got.ID != "11" {
			t.Errorf("FindTransition(%q) = %v, %v", q, got, ok)
		}
	}
	if _, ok := FindTransition(ts, "Reopen"); ok {
		t.Error("FindTransition(Reopen) found a transition")
	}
}

func TestParseTaskRef(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"https://acme.atlassian.net/rest/api/3/task/10641"`, "10641"},
		{`https://acme.atlassian.net/rest/api/3/task/10642`, "10642"},
		{`{"taskId":"10643"}`, "10643"},
		{`{"self":"https://acme.atlassian.net/rest/api/3/task/10644"}`, "10644"},
		{`"10645"`, "10645"},
	}
	for _, tt := range tests {
		got, err := parseTaskRef(json.RawMessage(tt.raw))
		if err != nil || got != tt.want {
			t.Errorf("parseTaskRef(%s) = %q, %v, want %q", tt.raw, got, err, tt.want)
		}
	}
	if _, err := parseTaskRef(json.RawMessage(`{}`)); err == nil {
		t.Error("parseTaskRef({}) succeeded, want error")
	}
}

func TestArchiveByJQLThenPoll(t *testing.T) {
	var polls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/rest/api/3/issue/archive":
			w.WriteHeader(http.StatusAccepted)
			w.Write([]byte(`"https://acme.atlassian.net/rest/api/3/task/777"`))
		case r.URL.Path == "/rest/api/3/task/777":
			n := atomic.AddInt32(&polls, 1)
			status := "RUNNING"
			if n == 3 {
				status = "COMPLETE"
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id": "777", "status": status, "progress": n * 33,
			})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	id, err := c.ArchiveIssuesByJQL(context.Background(), "project = OLD")
	if err != nil {
		t.Fatalf("ArchiveIssuesByJQL() error = %v", err)
	}
	if id != "777" {
		t.Fatalf("task id = %q, want 777", id)
	}

	var seen []float64
	got, err := task.Poll(context.Background(), c, id,
		task.WithInterval(0),
		task.WithProgress(func(tk *task.Task) { seen = append(seen, tk.Progress.Percent) }),
	)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if got.Status != task.StatusComplete {
		t.Errorf("status = %s, want COMPLETE", got.Status)
	}
	if len(seen) != 3 || seen[2] != 99 {
		t.Errorf("progress = %v", seen)
	}
}

func TestGetTaskErrorIsNotTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorMessages":["Task not found"]}`))
	})

	_, err := task.Poll(context.Background(), c, "1", task.WithInterval(0))
	if err == nil || errors.Is(err, task.ErrTimeout) {
		t.Fatalf("Poll() error = %v, want API error", err)
	}
	if !api.IsNotFound(err) {
		t.Errorf("Poll() error = %v, want 404", err)
	}
}

func TestCloseSprintDefaultsToNow(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/agile/1.0/sprint/5" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"id":5,"name":"Sprint 5","state":"closed"}`))
	}))
	defer srv.Close()

	c := NewAgileClient(Config{Domain: srv.URL, HTTPClient: srv.Client()})
	c.now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC) }

	s, err := c.CloseSprint(context.Background(), 5, time.Time{})
	if err != nil {
		t.Fatalf("CloseSprint() error = %v", err)
	}
	if s.State != "closed" {
		t.Errorf("state = %q", s.State)
	}
	if body["state"] != "closed" || body["completeDate"] != "2025-02-03T04:05:06Z" {
		t.Errorf("body = %v", body)
	}
}

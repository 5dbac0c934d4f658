package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShpetimA/atlassian-cli/internal/jira"
)

func TestScopeJQL(t *testing.T) {
	tests := []struct {
		jql, project, want string
	}{
		{"", "", "ORDER BY updated DESC"},
		{"", "PROJ", "project = PROJ"},
		{"status = Done", "PROJ", "project = PROJ AND (status = Done)"},
		{"project = X", "PROJ", "project = X"},
		{"assignee = currentUser()", "", "assignee = currentUser()"},
	}
	for _, tt := range tests {
		if got := scopeJQL(tt.jql, tt.project); got != tt.want {
			t.Errorf("scopeJQL(%q, %q) = %q, want %q", tt.jql, tt.project, got, tt.want)
		}
	}
}

func TestSplitListAndStartAt(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
	assert.Equal(t, 0, startAt(0, 50))
	assert.Equal(t, 0, startAt(1, 50))
	assert.Equal(t, 40, startAt(3, 20))
}

func TestIssueMarkdown(t *testing.T) {
	issue := &jira.Issue{Key: "PROJ-1", Fields: jira.IssueFields{
		Summary:     "Broken login",
		Status:      &jira.Status{Name: "Open"},
		Description: jira.PlainTextToADF("Steps to reproduce"),
	}}
	comments := &jira.CommentsResponse{Total: 1, Comments: []jira.Comment{{
		Author:  &jira.User{DisplayName: "Ana"},
		Created: "2025-01-02",
		Body:    jira.PlainTextToADF("Seen it"),
	}}}

	md := issueMarkdown(issue, "https://acme.atlassian.net/browse/PROJ-1", comments)
	assert.True(t, strings.HasPrefix(md, "# PROJ-1: Broken login\n\n**Status:** Open | **Assignee:** Unassigned"), md)
	assert.Contains(t, md, "## Description\n\nSteps to reproduce")
	assert.Contains(t, md, "## Comments (1)\n\n**Ana** (2025-01-02)\n\nSeen it")
}

// runJC executes jc against a fake site and returns what was written to
// --output.
func runJC(t *testing.T, server *httptest.Server, args ...string) string {
	t.Helper()
	t.Setenv("JC_CONFIG", filepath.Join(t.TempDir(), "config.json"))
	for _, k := range []string{"JIRA_DOMAIN", "JIRA_EMAIL", "JIRA_API_TOKEN", "JC_FORMAT", "JIRA_PROJECT"} {
		t.Setenv(k, "")
	}
	out := filepath.Join(t.TempDir(), "out.txt")
	full := append([]string{
		"--domain", server.URL, "--email", "me@acme.com", "--token", "tok",
		"--format", "minimal", "--output", out, "--max-retries", "0",
	}, args...)

	rootCmd.SetArgs(full)
	require.NoError(t, rootCmd.Execute())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}

func TestSearchCountCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/search/approximate-count", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "project = PROJ", body["jql"])
		user, pass, _ := r.BasicAuth()
		assert.Equal(t, "me@acme.com", user)
		assert.Equal(t, "tok", pass)
		_, _ = w.Write([]byte(`{"count": 42}`))
	}))
	defer srv.Close()

	assert.Equal(t, `{"count":42}`, runJC(t, srv, "search", "count", "project = PROJ"))
}

func TestIssueGetFetchesKeysConcurrently(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		key := strings.TrimPrefix(r.URL.Path, "/rest/api/3/issue/")
		_, _ = w.Write([]byte(`{"id":"1","key":"` + key + `","fields":{"summary":"s"}}`))
	}))
	defer srv.Close()

	got := runJC(t, srv, "issue", "get", "PROJ-1", srv.URL+"/browse/PROJ-2", "PROJ-3")
	var issues []jira.Issue
	require.NoError(t, json.Unmarshal([]byte(got), &issues))
	require.Len(t, issues, 3)
	assert.Equal(t, "PROJ-1", issues[0].Key)
	assert.Equal(t, "PROJ-2", issues[1].Key)
	assert.Equal(t, "PROJ-3", issues[2].Key)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestTaskWaitPollsUntilComplete(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/task/10001", r.URL.Path)
		status := "RUNNING"
		if atomic.AddInt32(&calls, 1) >= 3 {
			status = "COMPLETE"
		}
		_, _ = w.Write([]byte(`{"id":"10001","status":"` + status + `","progress":{"percent":50,"succeeded":1,"total":2}}`))
	}))
	defer srv.Close()

	got := runJC(t, srv, "task", "wait", "10001", "--interval", "1ms", "--timeout", "5s")
	assert.Contains(t, got, `"status":"COMPLETE"`)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

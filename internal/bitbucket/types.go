package bitbucket

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Page is one page of a paginated Bitbucket collection.
type Page[T any] struct {
	Values   []T    `json:"values"`
	Page     int    `json:"page,omitempty"`
	Pagelen  int    `json:"pagelen"`
	Size     int    `json:"size,omitempty"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
}

type Account struct {
	UUID        string `json:"uuid,omitempty"`
	DisplayName string `json:"display_name"`
	AccountID   string `json:"account_id,omitempty"`
	Nickname    string `json:"nickname,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Name returns the display name, or "unknown" for deleted accounts.
func (a *Account) Name() string {
	if a == nil || a.DisplayName == "" {
		return "unknown"
	}
	return a.DisplayName
}

type Repository struct {
	UUID        string `json:"uuid,omitempty"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"is_private"`
}

func (r *Repository) Plain() string {
	s := r.Slug + "  " + r.FullName
	if r.Description != "" {
		s += "\n" + r.Description
	}
	return s
}

// RepoSummary is the trimmed repository listing printed by repo list.
type RepoSummary struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

func (r *RepoSummary) Plain() string { return r.Slug + "  " + r.FullName }

type Ref struct {
	Branch struct {
		Name string `json:"name"`
	} `json:"branch"`
	Commit struct {
		Hash string `json:"hash"`
	} `json:"commit"`
	Repository *Repository `json:"repository,omitempty"`
}

type Participant struct {
	User           Account `json:"user"`
	Role           string  `json:"role"`
	Approved       bool    `json:"approved"`
	State          string  `json:"state,omitempty"`
	ParticipatedOn string  `json:"participated_on,omitempty"`
}

type Rendered struct {
	Raw    string `json:"raw"`
	Markup string `json:"markup,omitempty"`
	HTML   string `json:"html,omitempty"`
}

type PullRequest struct {
	ID                int             `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	State             string          `json:"state"`
	Author            *Account        `json:"author,omitempty"`
	Source            Ref             `json:"source"`
	Destination       Ref             `json:"destination"`
	CreatedOn         string          `json:"created_on,omitempty"`
	UpdatedOn         string          `json:"updated_on,omitempty"`
	ClosedOn          string          `json:"closed_on,omitempty"`
	CommentCount      int             `json:"comment_count"`
	TaskCount         int             `json:"task_count"`
	CloseSourceBranch bool            `json:"close_source_branch"`
	Reviewers         []Account       `json:"reviewers,omitempty"`
	Participants      []Participant   `json:"participants,omitempty"`
	Links             json.RawMessage `json:"links,omitempty"`
	Summary           *Rendered       `json:"summary,omitempty"`
}

func (pr *PullRequest) Plain() string {
	lines := []string{
		fmt.Sprintf("#%d %s", pr.ID, pr.Title),
		"State: " + pr.State,
		"Author: " + pr.Author.Name(),
		fmt.Sprintf("Branch: %s → %s", pr.Source.Branch.Name, pr.Destination.Branch.Name),
		fmt.Sprintf("Comments: %d | Tasks: %d", pr.CommentCount, pr.TaskCount),
	}
	if pr.Description != "" {
		lines = append(lines, "\n"+pr.Description)
	}
	return strings.Join(lines, "\n")
}

// Inline anchors a comment to a file. To is a line in the new file, From in
// the old one.
type Inline struct {
	Path string `json:"path"`
	From *int   `json:"from,omitempty"`
	To   *int   `json:"to,omitempty"`
}

type Comment struct {
	ID        int      `json:"id"`
	Content   Rendered `json:"content"`
	User      *Account `json:"user,omitempty"`
	CreatedOn string   `json:"created_on,omitempty"`
	UpdatedOn string   `json:"updated_on,omitempty"`
	Deleted   bool     `json:"deleted"`
	Pending   bool     `json:"pending,omitempty"`
	Inline    *Inline  `json:"inline,omitempty"`
	Parent    *struct {
		ID int `json:"id"`
	} `json:"parent,omitempty"`
	Resolution *struct {
		Type      string   `json:"type"`
		User      *Account `json:"user,omitempty"`
		CreatedOn string   `json:"created_on,omitempty"`
	} `json:"resolution,omitempty"`
}

func (c *Comment) Plain() string {
	loc := ""
	if c.Inline != nil {
		line := 0
		switch {
		case c.Inline.To != nil:
			line = *c.Inline.To
		case c.Inline.From != nil:
			line = *c.Inline.From
		}
		loc = fmt.Sprintf(" [%s:%d]", c.Inline.Path, line)
	}
	return fmt.Sprintf("%s%s: %s", c.User.Name(), loc, c.Content.Raw)
}

type Activity struct {
	Comment  *Comment `json:"comment,omitempty"`
	Approval *struct {
		User Account `json:"user"`
		Date string  `json:"date"`
	} `json:"approval,omitempty"`
	Update *struct {
		State  string  `json:"state"`
		Date   string  `json:"date"`
		Author Account `json:"author"`
	} `json:"update,omitempty"`
}

// Kind returns approval, comment, update or "".
func (a *Activity) Kind() string {
	switch {
	case a.Approval != nil:
		return "approval"
	case a.Update != nil:
		return "update"
	case a.Comment != nil:
		return "comment"
	}
	return ""
}

func (a *Activity) Plain() string {
	switch a.Kind() {
	case "approval":
		return "APPROVED by " + a.Approval.User.Name()
	case "update":
		return a.Update.State + " by " + a.Update.Author.Name()
	case "comment":
		raw := a.Comment.Content.Raw
		if r := []rune(raw); len(r) > 100 {
			raw = string(r[:100])
		}
		return "COMMENT by " + a.Comment.User.Name() + ": " + raw
	}
	return "unknown activity"
}

type DiffStat struct {
	Status       string `json:"status"`
	LinesAdded   int    `json:"lines_added"`
	LinesRemoved int    `json:"lines_removed"`
	Old          *struct {
		Path string `json:"path"`
	} `json:"old,omitempty"`
	New *struct {
		Path string `json:"path"`
	} `json:"new,omitempty"`
}

// Path returns the new path, else the old one.
func (d *DiffStat) Path() string {
	switch {
	case d.New != nil && d.New.Path != "":
		return d.New.Path
	case d.Old != nil && d.Old.Path != "":
		return d.Old.Path
	}
	return "unknown"
}

func (d *DiffStat) Plain() string {
	return fmt.Sprintf("%-8s +%d/-%d %s", d.Status, d.LinesAdded, d.LinesRemoved, d.Path())
}

type Commit struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
	Date    string `json:"date,omitempty"`
	Author  struct {
		Raw  string   `json:"raw"`
		User *Account `json:"user,omitempty"`
	} `json:"author"`
}

func (c *Commit) Plain() string {
	hash := c.Hash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	subject, _, _ := strings.Cut(c.Message, "\n")
	author := c.Author.Raw
	if c.Author.User != nil {
		author = c.Author.User.Name()
	}
	return fmt.Sprintf("%s %s (%s)", hash, subject, author)
}

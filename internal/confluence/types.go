package confluence

import (
	"fmt"
	"strings"
)

// Links is the _links block of v2 responses. Next is a relative URL
// carrying the cursor of the following page.
type Links struct {
	Next   string `json:"next,omitempty"`
	Base   string `json:"base,omitempty"`
	WebUI  string `json:"webui,omitempty"`
	EditUI string `json:"editui,omitempty"`
	TinyUI string `json:"tinyui,omitempty"`
}

type Value struct {
	Representation string `json:"representation,omitempty"`
	Value          string `json:"value"`
}

type SpaceDescription struct {
	Plain *Value `json:"plain,omitempty"`
	View  *Value `json:"view,omitempty"`
}

type Space struct {
	ID          string            `json:"id"`
	Key         string            `json:"key"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Status      string            `json:"status"`
	Description *SpaceDescription `json:"description,omitempty"`
	HomepageID  string            `json:"homepageId,omitempty"`
	CreatedAt   string            `json:"createdAt,omitempty"`
}

func (s *Space) Plain() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s (%s, %s)\nID: %s", s.Key, s.Name, s.Type, s.Status, s.ID)
	if s.HomepageID != "" {
		fmt.Fprintf(&b, "\nHomepage: %s", s.HomepageID)
	}
	if s.Description != nil && s.Description.Plain != nil && s.Description.Plain.Value != "" {
		fmt.Fprintf(&b, "\n\n%s", s.Description.Plain.Value)
	}
	return b.String()
}

type SpaceList struct {
	Results []Space `json:"results"`
	Links   Links   `json:"_links"`
}

func (l *SpaceList) Plain() string {
	if len(l.Results) == 0 {
		return "No spaces found"
	}
	lines := make([]string, 0, len(l.Results)+1)
	for _, s := range l.Results {
		lines = append(lines, fmt.Sprintf("%s  %s  [%s] (id %s)", s.Key, s.Name, s.Type, s.ID))
	}
	if c := NextCursor(l.Links); c != "" {
		lines = append(lines, "Next cursor: "+c)
	}
	return strings.Join(lines, "\n")
}

type Version struct {
	Number    int    `json:"number"`
	Message   string `json:"message,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	AuthorID  string `json:"authorId,omitempty"`
}

// Body holds the representations requested with body-format.
type Body struct {
	Storage        *Value `json:"storage,omitempty"`
	AtlasDocFormat *Value `json:"atlas_doc_format,omitempty"`
	View           *Value `json:"view,omitempty"`
}

// Text returns the first representation present.
func (b *Body) Text() string {
	if b == nil {
		return ""
	}
	for _, v := range []*Value{b.Storage, b.View, b.AtlasDocFormat} {
		if v != nil && v.Value != "" {
			return v.Value
		}
	}
	return ""
}

type Page struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	SpaceID    string   `json:"spaceId"`
	Status     string   `json:"status"`
	ParentID   string   `json:"parentId,omitempty"`
	ParentType string   `json:"parentType,omitempty"`
	Position   *int     `json:"position,omitempty"`
	AuthorID   string   `json:"authorId,omitempty"`
	OwnerID    string   `json:"ownerId,omitempty"`
	CreatedAt  string   `json:"createdAt,omitempty"`
	Version    *Version `json:"version,omitempty"`
	Body       *Body    `json:"body,omitempty"`
	Links      *Links   `json:"_links,omitempty"`
}

// VersionNumber returns the page's current version, 0 when unknown.
func (p *Page) VersionNumber() int {
	if p.Version == nil {
		return 0
	}
	return p.Version.Number
}

func (p *Page) Plain() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s [%s]\nSpace: %s", p.ID, p.Title, p.Status, p.SpaceID)
	if p.ParentID != "" {
		fmt.Fprintf(&b, "\nParent: %s", p.ParentID)
	}
	if p.Version != nil {
		fmt.Fprintf(&b, "\nVersion: %d", p.Version.Number)
	}
	if p.Links != nil && p.Links.WebUI != "" {
		fmt.Fprintf(&b, "\nURL: %s", p.Links.WebUI)
	}
	if text := p.Body.Text(); text != "" {
		fmt.Fprintf(&b, "\n\n%s", text)
	}
	return b.String()
}

type PageList struct {
	Results []Page `json:"results"`
	Links   Links  `json:"_links"`
}

func (l *PageList) Plain() string {
	if len(l.Results) == 0 {
		return "No pages found"
	}
	lines := make([]string, 0, len(l.Results)+1)
	for _, p := range l.Results {
		lines = append(lines, fmt.Sprintf("%s  %s [%s]", p.ID, p.Title, p.Status))
	}
	if c := NextCursor(l.Links); c != "" {
		lines = append(lines, "Next cursor: "+c)
	}
	return strings.Join(lines, "\n")
}

// PageInput creates or updates a page. Body is storage-format XHTML; an
// empty Body leaves the content untouched on update.
type PageInput struct {
	SpaceID        string
	Title          string
	ParentID       string
	Status         string // current (default) or draft
	Body           string
	VersionMessage string
}

type FooterComment struct {
	ID        string   `json:"id"`
	PageID    string   `json:"pageId,omitempty"`
	Status    string   `json:"status,omitempty"`
	Title     string   `json:"title,omitempty"`
	Body      *Body    `json:"body,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
	Version   *Version `json:"version,omitempty"`
}

func (c *FooterComment) Plain() string {
	header := c.ID
	if c.Version != nil && c.Version.CreatedAt != "" {
		header += "  " + c.Version.CreatedAt
	}
	if text := c.Body.Text(); text != "" {
		return header + "\n" + text
	}
	return header
}

type FooterCommentList struct {
	Results []FooterComment `json:"results"`
	Links   Links           `json:"_links"`
}

type Label struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

func (l *Label) Plain() string { return l.Name }

type LabelList struct {
	Results []Label `json:"results"`
	Links   Links   `json:"_links"`
}

func (l *LabelList) Plain() string {
	if len(l.Results) == 0 {
		return "No labels"
	}
	names := make([]string, len(l.Results))
	for i, lb := range l.Results {
		names[i] = lb.Name
	}
	return strings.Join(names, ", ")
}

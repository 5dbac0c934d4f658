// Package confluence is a client for the Confluence Cloud REST API v2.
package confluence

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/ShpetimA/atlassian-cli/internal/api"
	"github.com/ShpetimA/atlassian-cli/internal/jira"
)

const serviceName = "Confluence"

// Client talks to /wiki/api/v2 on an Atlassian site. It shares the Jira
// site credentials.
type Client struct {
	api *api.Client
}

// NewClient creates a Confluence client for the site in cfg.
func NewClient(cfg jira.Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = api.NewHTTPClient(serviceName, nil)
	}
	auth := api.BasicAuth{Username: cfg.Email, Password: cfg.APIToken}
	return &Client{api: api.NewClient(serviceName, jira.SiteURL(cfg.Domain)+"/wiki/api/v2", auth, hc)}
}

// ListOptions pages through cursor-based collections.
type ListOptions struct {
	Limit  int
	Cursor string
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Cursor != "" {
		q.Set("cursor", o.Cursor)
	}
	return q
}

// NextCursor extracts the cursor parameter from a _links.next URL.
func NextCursor(l Links) string {
	if l.Next == "" {
		return ""
	}
	u, err := url.Parse(l.Next)
	if err != nil {
		return ""
	}
	return u.Query().Get("cursor")
}

// SpaceListOptions filters ListSpaces.
type SpaceListOptions struct {
	ListOptions
	Type   string // global or personal
	Status string // current or archived
}

// ListSpaces returns one page of spaces.
func (c *Client) ListSpaces(ctx context.Context, opts SpaceListOptions) (*SpaceList, error) {
	q := opts.query()
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	var list SpaceList
	if err := c.api.Do(ctx, http.MethodGet, "/spaces", q, nil, &list); err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	return &list, nil
}

// GetSpace fetches a space by numeric id.
func (c *Client) GetSpace(ctx context.Context, id string) (*Space, error) {
	var s Space
	if err := c.api.Do(ctx, http.MethodGet, "/spaces/"+url.PathEscape(id), nil, nil, &s); err != nil {
		return nil, fmt.Errorf("get space %s: %w", id, err)
	}
	return &s, nil
}

// GetSpaceByKey finds a space by key among the first 100 spaces.
func (c *Client) GetSpaceByKey(ctx context.Context, key string) (*Space, error) {
	list, err := c.ListSpaces(ctx, SpaceListOptions{ListOptions: ListOptions{Limit: 100}})
	if err != nil {
		return nil, err
	}
	for i := range list.Results {
		if list.Results[i].Key == key {
			return &list.Results[i], nil
		}
	}
	return nil, fmt.Errorf("space with key '%s' not found", key)
}

var numericID = regexp.MustCompile(`^[0-9]+$`)

// ResolveSpace treats a numeric ref as a space id and anything else as a key.
func (c *Client) ResolveSpace(ctx context.Context, ref string) (*Space, error) {
	if numericID.MatchString(ref) {
		return c.GetSpace(ctx, ref)
	}
	return c.GetSpaceByKey(ctx, ref)
}

// PageListOptions filters ListPages.
type PageListOptions struct {
	ListOptions
	SpaceID    string
	Status     string // current, draft, trashed or archived
	Title      string
	Sort       string
	BodyFormat string
}

// ListPages returns one page of pages.
func (c *Client) ListPages(ctx context.Context, opts PageListOptions) (*PageList, error) {
	q := opts.query()
	for k, v := range map[string]string{
		"space-id":    opts.SpaceID,
		"status":      opts.Status,
		"title":       opts.Title,
		"sort":        opts.Sort,
		"body-format": opts.BodyFormat,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	var list PageList
	if err := c.api.Do(ctx, http.MethodGet, "/pages", q, nil, &list); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return &list, nil
}

// GetPage fetches a page. bodyFormat is storage, atlas_doc_format or view;
// empty omits the body.
func (c *Client) GetPage(ctx context.Context, id, bodyFormat string) (*Page, error) {
	var q url.Values
	if bodyFormat != "" {
		q = url.Values{"body-format": {bodyFormat}}
	}
	var p Page
	if err := c.api.Do(ctx, http.MethodGet, "/pages/"+url.PathEscape(id), q, nil, &p); err != nil {
		return nil, fmt.Errorf("get page %s: %w", id, err)
	}
	return &p, nil
}

func storageBody(s string) map[string]string {
	return map[string]string{"representation": "storage", "value": s}
}

// CreatePage creates a page in in.SpaceID.
func (c *Client) CreatePage(ctx context.Context, in PageInput) (*Page, error) {
	body := map[string]interface{}{
		"spaceId": in.SpaceID,
		"title":   in.Title,
		"status":  statusOrCurrent(in.Status),
	}
	if in.ParentID != "" {
		body["parentId"] = in.ParentID
	}
	if in.Body != "" {
		body["body"] = storageBody(in.Body)
	}
	var p Page
	if err := c.api.Do(ctx, http.MethodPost, "/pages", nil, body, &p); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &p, nil
}

// UpdatePage replaces a page's title and optionally its body. The page is
// fetched first so the update carries the next version number.
func (c *Client) UpdatePage(ctx context.Context, id string, in PageInput) (*Page, error) {
	current, err := c.GetPage(ctx, id, "")
	if err != nil {
		return nil, err
	}
	title := in.Title
	if title == "" {
		title = current.Title
	}
	version := map[string]interface{}{"number": current.VersionNumber() + 1}
	if in.VersionMessage != "" {
		version["message"] = in.VersionMessage
	}
	body := map[string]interface{}{
		"id":      id,
		"title":   title,
		"status":  statusOrCurrent(in.Status),
		"version": version,
	}
	if in.Body != "" {
		body["body"] = storageBody(in.Body)
	}
	var p Page
	if err := c.api.Do(ctx, http.MethodPut, "/pages/"+url.PathEscape(id), nil, body, &p); err != nil {
		return nil, fmt.Errorf("update page %s: %w", id, err)
	}
	return &p, nil
}

func statusOrCurrent(s string) string {
	if s == "" {
		return "current"
	}
	return s
}

// DeletePage moves a page to the trash.
func (c *Client) DeletePage(ctx context.Context, id string) error {
	if err := c.api.Do(ctx, http.MethodDelete, "/pages/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete page %s: %w", id, err)
	}
	return nil
}

// GetPageChildren lists a page's direct children.
func (c *Client) GetPageChildren(ctx context.Context, id string, opts ListOptions) (*PageList, error) {
	var list PageList
	if err := c.api.Do(ctx, http.MethodGet, "/pages/"+url.PathEscape(id)+"/children", opts.query(), nil, &list); err != nil {
		return nil, fmt.Errorf("list children of page %s: %w", id, err)
	}
	return &list, nil
}

// GetPageComments lists a page's footer comments in storage format.
func (c *Client) GetPageComments(ctx context.Context, id string, opts ListOptions) (*FooterCommentList, error) {
	q := opts.query()
	q.Set("body-format", "storage")
	var list FooterCommentList
	if err := c.api.Do(ctx, http.MethodGet, "/pages/"+url.PathEscape(id)+"/footer-comments", q, nil, &list); err != nil {
		return nil, fmt.Errorf("list comments on page %s: %w", id, err)
	}
	return &list, nil
}

// AddPageComment adds a footer comment. html is storage format.
func (c *Client) AddPageComment(ctx context.Context, pageID, html string) (*FooterComment, error) {
	body := map[string]interface{}{"pageId": pageID, "body": storageBody(html)}
	var fc FooterComment
	if err := c.api.Do(ctx, http.MethodPost, "/footer-comments", nil, body, &fc); err != nil {
		return nil, fmt.Errorf("comment on page %s: %w", pageID, err)
	}
	return &fc, nil
}

// GetPageLabels lists a page's labels.
func (c *Client) GetPageLabels(ctx context.Context, id string, opts ListOptions) (*LabelList, error) {
	var list LabelList
	if err := c.api.Do(ctx, http.MethodGet, "/pages/"+url.PathEscape(id)+"/labels", opts.query(), nil, &list); err != nil {
		return nil, fmt.Errorf("list labels on page %s: %w", id, err)
	}
	return &list, nil
}

// AddPageLabel attaches a global label to a page.
func (c *Client) AddPageLabel(ctx context.Context, id, name string) (*Label, error) {
	var l Label
	body := map[string]string{"name": name, "prefix": "global"}
	if err := c.api.Do(ctx, http.MethodPost, "/pages/"+url.PathEscape(id)+"/labels", nil, body, &l); err != nil {
		return nil, fmt.Errorf("label page %s: %w", id, err)
	}
	return &l, nil
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error is a non-2xx response from an Atlassian API.
type Error struct {
	Service    string
	StatusCode int
	Message    string
	Body       []byte
}

// NewError builds an Error, extracting the message from the service's error
// body when possible.
func NewError(service string, status int, body []byte) *Error {
	return &Error{
		Service:    service,
		StatusCode: status,
		Message:    errorMessage(status, body),
		Body:       body,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Service, e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *Error with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// IsNotFound reports whether err is a 404 from any service.
func IsNotFound(err error) bool { return IsStatus(err, http.StatusNotFound) }

// errorBody covers the error shapes of Jira, Confluence and Bitbucket.
type errorBody struct {
	// Jira
	ErrorMessages []string        `json:"errorMessages"`
	Errors        json.RawMessage `json:"errors"`
	// Bitbucket
	Error *struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	} `json:"error"`
	Message string `json:"message"`
}

func errorMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		var parts []string
		parts = append(parts, eb.ErrorMessages...)
		parts = append(parts, fieldErrors(eb.Errors)...)
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
		if eb.Error != nil && eb.Error.Message != "" {
			if eb.Error.Detail != "" {
				return eb.Error.Message + ": " + eb.Error.Detail
			}
			return eb.Error.Message
		}
		if eb.Message != "" {
			return eb.Message
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "<") {
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		return text
	}
	return http.StatusText(status)
}

// fieldErrors decodes Jira's {"field": "message"} map or Confluence's
// [{"title": ..., "detail": ...}] list.
func fieldErrors(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var byField map[string]string
	if err := json.Unmarshal(raw, &byField); err == nil {
		keys := make([]string, 0, len(byField))
		for k := range byField {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, k+": "+byField[k])
		}
		return out
	}

	var list []struct {
		Title   string `json:"title"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string
		for _, e := range list {
			switch {
			case e.Message != "":
				out = append(out, e.Message)
			case e.Title != "" && e.Detail != "":
				out = append(out, e.Title+": "+e.Detail)
			case e.Title != "":
				out = append(out, e.Title)
			}
		}
		return out
	}
	return nil
}

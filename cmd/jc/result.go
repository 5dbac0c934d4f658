package main

import (
	"fmt"
	"strings"
)

// actionResult reports the outcome of a command that has no response body.
type actionResult struct {
	Success bool   `json:"success"`
	Key     string `json:"key,omitempty"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

func (r *actionResult) Plain() string { return r.Message }

func ok(key, format string, args ...interface{}) *actionResult {
	return &actionResult{Success: true, Key: key, Message: fmt.Sprintf(format, args...)}
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// startAt converts a 1-based page number into a result offset.
func startAt(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

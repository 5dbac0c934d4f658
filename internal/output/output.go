// Package output renders command results as json, minimal (compact json) or
// plain text, to stdout or to a file.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
)

// Format selects how results are rendered.
type Format string

const (
	JSON    Format = "json"
	Minimal Format = "minimal"
	Plain   Format = "plain"
)

// ParseFormat accepts json, minimal or plain, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, Minimal, Plain:
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q (want json, plain or minimal)", s)
}

// Plainer is implemented by results with a hand-written plain rendering.
type Plainer interface {
	Plain() string
}

// ItemSeparator divides the items of a list in plain output.
const ItemSeparator = "\n---\n"

// Render returns v in format f, without a trailing newline.
func Render(v any, f Format) (string, error) {
	switch f {
	case JSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
		return strings.TrimRight(buf.String(), "\n"), nil
	case Minimal:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
		return strings.TrimRight(buf.String(), "\n"), nil
	case Plain:
		return renderPlain(v)
	}
	return "", fmt.Errorf("unknown format %q", f)
}

// Write renders v to w followed by a newline.
func Write(w io.Writer, v any, f Format) error {
	s, err := Render(v, f)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s+"\n")
	return err
}

// Printer writes results in one format to stdout, or to File when set.
type Printer struct {
	Format Format
	File   string
	Stdout io.Writer
}

// Print renders v. With File set the file is created or truncated.
func (p *Printer) Print(v any) error {
	if p.File != "" {
		s, err := Render(v, p.Format)
		if err != nil {
			return err
		}
		if err := os.WriteFile(p.File, []byte(s+"\n"), 0o644); err != nil { // #nosec G306 -- user-requested output file
			return fmt.Errorf("write %s: %w", p.File, err)
		}
		return nil
	}
	w := p.Stdout
	if w == nil {
		w = os.Stdout
	}
	return Write(w, v, p.Format)
}

func renderPlain(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", nil
	}
	if p, ok := v.(Plainer); ok {
		return p.Plain(), nil
	}
	// Plain is usually declared on the pointer receiver.
	if rv.Kind() != reflect.Pointer {
		pv := reflect.New(rv.Type())
		pv.Elem().Set(rv)
		if p, ok := pv.Interface().(Plainer); ok {
			return p.Plain(), nil
		}
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case json.RawMessage:
		return plainJSON(s)
	}

	ev := reflect.Indirect(rv)
	if (ev.Kind() == reflect.Slice || ev.Kind() == reflect.Array) && ev.Type().Elem().Kind() != reflect.Uint8 {
		parts := make([]string, 0, ev.Len())
		for i := 0; i < ev.Len(); i++ {
			item := ev.Index(i)
			if item.CanAddr() {
				if p, ok := item.Addr().Interface().(Plainer); ok {
					parts = append(parts, p.Plain())
					continue
				}
			}
			s, err := renderPlain(item.Interface())
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ItemSeparator), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return plainJSON(data)
}

// plainJSON renders a JSON document as "key: value" lines in field order.
// Null fields are skipped and nested values are printed as compact JSON.
func plainJSON(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", nil
	}
	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return "", fmt.Errorf("decode json: %w", err)
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			s, err := plainJSON(it)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ItemSeparator), nil
	case '{':
	default:
		return scalar(data)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return "", fmt.Errorf("decode json: %w", err)
	}
	var lines []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("decode json: %w", err)
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return "", fmt.Errorf("decode json: %w", err)
		}
		if string(raw) == "null" {
			continue
		}
		val, err := scalar(raw)
		if err != nil {
			return "", err
		}
		lines = append(lines, key+": "+val)
	}
	return strings.Join(lines, "\n"), nil
}

func scalar(raw []byte) (string, error) {
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode json: %w", err)
		}
		return s, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", fmt.Errorf("compact json: %w", err)
		}
		return buf.String(), nil
	}
	return string(raw), nil
}

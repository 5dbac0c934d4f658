package jira

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ADFNode is one node of an Atlassian Document Format tree.
type ADFNode struct {
	Type    string                 `json:"type"`
	Version int                    `json:"version,omitempty"`
	Text    string                 `json:"text,omitempty"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
	Marks   []ADFMark              `json:"marks,omitempty"`
	Content []ADFNode              `json:"content,omitempty"`
}

type ADFMark struct {
	Type  string                 `json:"type"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

// PlainTextToADF converts plain text to an ADF document, one paragraph per
// line. Empty text yields nil.
func PlainTextToADF(text string) json.RawMessage {
	if text == "" {
		return nil
	}

	doc := map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": paragraphs(text),
	}
	data, _ := json.Marshal(doc)
	return data
}

func paragraphs(text string) []interface{} {
	var content []interface{}
	for _, para := range strings.Split(text, "\n") {
		if para == "" {
			content = append(content, map[string]interface{}{
				"type":    "paragraph",
				"content": []interface{}{},
			})
			continue
		}
		content = append(content, map[string]interface{}{
			"type": "paragraph",
			"content": []interface{}{
				map[string]interface{}{"type": "text", "text": para},
			},
		})
	}
	return content
}

// parseADF decodes raw as an ADF document. ok is false when raw is not a
// document, in which case text holds its plain-string form.
func parseADF(raw json.RawMessage) (doc ADFNode, text string, ok bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return ADFNode{}, "", false
	}
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Type != "doc" {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return ADFNode{}, s, false
		}
		return ADFNode{}, string(raw), false
	}
	return doc, "", true
}

// ADFToPlainText extracts readable text from an ADF document. Non-ADF
// values (plain JSON strings) are returned as is.
func ADFToPlainText(raw json.RawMessage) string {
	doc, text, ok := parseADF(raw)
	if !ok {
		return text
	}
	var b strings.Builder
	writeBlocks(&b, doc.Content, false, "")
	return strings.TrimRight(b.String(), "\n")
}

// ADFToMarkdown renders an ADF document as Markdown.
func ADFToMarkdown(raw json.RawMessage) string {
	doc, text, ok := parseADF(raw)
	if !ok {
		return text
	}
	var b strings.Builder
	writeBlocks(&b, doc.Content, true, "")
	return strings.TrimRight(b.String(), "\n")
}

func writeBlocks(b *strings.Builder, nodes []ADFNode, md bool, indent string) {
	for _, n := range nodes {
		switch n.Type {
		case "paragraph":
			b.WriteString(indent)
			writeInline(b, n.Content, md)
			b.WriteString("\n")
			if md && indent == "" {
				b.WriteString("\n")
			}
		case "heading":
			if md {
				b.WriteString(strings.Repeat("#", intAttr(n.Attrs, "level", 1)) + " ")
			}
			writeInline(b, n.Content, md)
			b.WriteString("\n")
			if md {
				b.WriteString("\n")
			}
		case "bulletList", "orderedList":
			for i, item := range n.Content {
				marker := "- "
				if n.Type == "orderedList" {
					marker = fmt.Sprintf("%d. ", i+intAttr(n.Attrs, "order", 1))
				}
				writeListItem(b, item, md, indent, marker)
			}
			if md && indent == "" {
				b.WriteString("\n")
			}
		case "codeBlock":
			if md {
				b.WriteString("```" + strAttr(n.Attrs, "language") + "\n")
			}
			writeInline(b, n.Content, false)
			b.WriteString("\n")
			if md {
				b.WriteString("```\n\n")
			}
		case "blockquote":
			var inner strings.Builder
			writeBlocks(&inner, n.Content, md, "")
			for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
				if md {
					b.WriteString("> ")
				}
				b.WriteString(line + "\n")
			}
			if md {
				b.WriteString("\n")
			}
		case "rule":
			if md {
				b.WriteString("---\n\n")
			}
		case "panel", "expand", "nestedExpand", "layoutSection", "layoutColumn", "table", "tableRow", "tableCell", "tableHeader":
			writeBlocks(b, n.Content, md, indent)
		default:
			if len(n.Content) > 0 {
				writeBlocks(b, n.Content, md, indent)
			} else if n.Text != "" || n.Type != "" {
				writeInline(b, []ADFNode{n}, md)
			}
		}
	}
}

func writeListItem(b *strings.Builder, item ADFNode, md bool, indent, marker string) {
	first := true
	for _, child := range item.Content {
		switch child.Type {
		case "bulletList", "orderedList":
			writeBlocks(b, []ADFNode{child}, md, indent+"  ")
		default:
			if first {
				b.WriteString(indent + marker)
				first = false
			} else {
				b.WriteString(indent + strings.Repeat(" ", len(marker)))
			}
			writeInline(b, child.Content, md)
			b.WriteString("\n")
		}
	}
}

func writeInline(b *strings.Builder, nodes []ADFNode, md bool) {
	for _, n := range nodes {
		switch n.Type {
		case "text":
			if md {
				b.WriteString(applyMarks(n.Text, n.Marks))
			} else {
				b.WriteString(n.Text)
			}
		case "hardBreak":
			b.WriteString("\n")
		case "mention":
			if t := strAttr(n.Attrs, "text"); t != "" {
				b.WriteString(t)
			} else {
				b.WriteString("@" + strAttr(n.Attrs, "id"))
			}
		case "emoji":
			if t := strAttr(n.Attrs, "text"); t != "" {
				b.WriteString(t)
			} else {
				b.WriteString(strAttr(n.Attrs, "shortName"))
			}
		case "inlineCard", "blockCard", "embedCard":
			b.WriteString(strAttr(n.Attrs, "url"))
		case "date":
			b.WriteString(strAttr(n.Attrs, "timestamp"))
		case "status":
			b.WriteString("[" + strAttr(n.Attrs, "text") + "]")
		default:
			writeInline(b, n.Content, md)
		}
	}
}

func applyMarks(text string, marks []ADFMark) string {
	for _, m := range marks {
		switch m.Type {
		case "strong":
			text = "**" + text + "**"
		case "em":
			text = "*" + text + "*"
		case "code":
			text = "`" + text + "`"
		case "strike":
			text = "~~" + text + "~~"
		case "link":
			if href := strAttr(m.Attrs, "href"); href != "" {
				text = "[" + text + "](" + href + ")"
			}
		}
	}
	return text
}

func strAttr(attrs map[string]interface{}, key string) string {
	if v, ok := attrs[key]; ok {
		switch s := v.(type) {
		case string:
			return s
		case float64:
			return fmt.Sprintf("%v", s)
		}
	}
	return ""
}

func intAttr(attrs map[string]interface{}, key string, def int) int {
	if v, ok := attrs[key].(float64); ok {
		return int(v)
	}
	return def
}

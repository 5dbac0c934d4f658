package jira

import (
	"encoding/json"
	"testing"
)

func TestPlainTextRoundTrip(t *testing.T) {
	tests := []string{
		"single line",
		"first\nsecond",
		"para one\n\npara two",
	}
	for _, text := range tests {
		adf := PlainTextToADF(text)
		if got := ADFToPlainText(adf); got != text {
			t.Errorf("ADFToPlainText(PlainTextToADF(%q)) = %q", text, got)
		}
	}
	if PlainTextToADF("") != nil {
		t.Error("PlainTextToADF(\"\") should be nil")
	}
}

func TestADFToPlainTextNonDocument(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{``, ""},
		{`null`, ""},
		{`"already plain"`, "already plain"},
	}
	for _, tt := range tests {
		if got := ADFToPlainText(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("ADFToPlainText(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

const richDoc = `{"type":"doc","version":1,"content":[
  {"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"Summary"}]},
  {"type":"paragraph","content":[
    {"type":"text","text":"See "},
    {"type":"text","text":"docs","marks":[{"type":"link","attrs":{"href":"https://example.com"}}]},
    {"type":"text","text":" and "},
    {"type":"text","text":"run","marks":[{"type":"code"}]},
    {"type":"hardBreak"},
    {"type":"mention","attrs":{"id":"123","text":"@Ana"}}
  ]},
  {"type":"bulletList","content":[
    {"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"one","marks":[{"type":"strong"}]}]}]},
    {"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"two"}]}]}
  ]},
  {"type":"codeBlock","attrs":{"language":"go"},"content":[{"type":"text","text":"fmt.Println()"}]}
]}`

func TestADFToMarkdown(t *testing.T) {
	want := "## Summary\n\n" +
		"See [docs](https://example.com) and `run`\n@Ana\n\n" +
		"- **one**\n- two\n\n" +
		"```go\nfmt.Println()\n```"
	if got := ADFToMarkdown(json.RawMessage(richDoc)); got != want {
		t.Errorf("ADFToMarkdown() =\n%s\nwant\n%s", got, want)
	}
}

func TestADFToPlainTextRich(t *testing.T) {
	want := "Summary\nSee docs and run\n@Ana\n- one\n- two\nfmt.Println()"
	if got := ADFToPlainText(json.RawMessage(richDoc)); got != want {
		t.Errorf("ADFToPlainText() = %q, want %q", got, want)
	}
}

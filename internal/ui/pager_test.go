package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePager(env map[string]string, tty bool, height int) (*pager, *bytes.Buffer, *[]string) {
	var out bytes.Buffer
	var ran []string
	p := &pager{
		out:    &out,
		isTTY:  tty,
		height: height,
		getenv: func(k string) string { return env[k] },
		run: func(argv, env []string, content string) error {
			ran = append(ran, argv...)
			return nil
		},
	}
	return p, &out, &ran
}

func TestPagerCommand(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		tty  bool
		opts PagerOptions
		want []string
	}{
		{"not a terminal", nil, false, PagerOptions{}, nil},
		{"no-pager flag", nil, true, PagerOptions{NoPager: true}, nil},
		{"JC_NO_PAGER", map[string]string{"JC_NO_PAGER": "1"}, true, PagerOptions{}, nil},
		{"agent mode", map[string]string{"JC_AGENT_MODE": "1"}, true, PagerOptions{}, nil},
		{"default less", nil, true, PagerOptions{}, []string{"less"}},
		{"PAGER", map[string]string{"PAGER": "more -s"}, true, PagerOptions{}, []string{"more", "-s"}},
		{"JC_PAGER wins", map[string]string{"PAGER": "more", "JC_PAGER": "bat -p"}, true, PagerOptions{}, []string{"bat", "-p"}},
		{"blank JC_PAGER", map[string]string{"JC_PAGER": "  ", "PAGER": "most"}, true, PagerOptions{}, []string{"most"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := fakePager(tt.env, tt.tty, 0)
			assert.Equal(t, tt.want, p.command(tt.opts))
		})
	}
}

func TestPagePrintsShortContent(t *testing.T) {
	p, out, ran := fakePager(nil, true, 10)
	require.NoError(t, p.page("a\nb\n", PagerOptions{}))
	assert.Equal(t, "a\nb\n", out.String())
	assert.Empty(t, *ran)
}

func TestPageRunsPagerForLongContent(t *testing.T) {
	p, out, ran := fakePager(map[string]string{"JC_PAGER": "less"}, true, 3)
	require.NoError(t, p.page(strings.Repeat("line\n", 10), PagerOptions{}))
	assert.Empty(t, out.String())
	assert.Equal(t, []string{"less"}, *ran)
}

func TestWrapWidth(t *testing.T) {
	assert.Equal(t, 80, wrapWidth(0))
	assert.Equal(t, 60, wrapWidth(60))
	assert.Equal(t, 100, wrapWidth(240))
}

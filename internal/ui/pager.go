package ui

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// PagerOptions controls ToPager.
type PagerOptions struct {
	NoPager bool // --no-pager
}

// pager pages long output through an external program. Fields are
// swapped out in tests.
type pager struct {
	out    io.Writer
	isTTY  bool
	height int
	getenv func(string) string
	run    func(argv []string, env []string, content string) error
}

func stdoutPager() *pager {
	fd := int(os.Stdout.Fd())
	p := &pager{out: os.Stdout, getenv: os.Getenv, run: runPager}
	if term.IsTerminal(fd) {
		p.isTTY = true
		if _, h, err := term.GetSize(fd); err == nil {
			p.height = h
		}
	}
	return p
}

func runPager(argv []string, env []string, content string) error {
	cmd := exec.Command(argv[0], argv[1:]...) // #nosec G204 -- pager comes from JC_PAGER or PAGER
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = env
	return cmd.Run()
}

// command resolves JC_PAGER, then PAGER, then less. It returns nil when
// paging is off: --no-pager, JC_NO_PAGER, agent mode or a non-terminal.
func (p *pager) command(opts PagerOptions) []string {
	if opts.NoPager || p.getenv("JC_NO_PAGER") != "" || p.getenv("JC_AGENT_MODE") == "1" || !p.isTTY {
		return nil
	}
	for _, k := range []string{"JC_PAGER", "PAGER"} {
		if v := strings.Fields(p.getenv(k)); len(v) > 0 {
			return v
		}
	}
	return []string{"less"}
}

func (p *pager) page(content string, opts PagerOptions) error {
	argv := p.command(opts)
	fits := p.height > 0 && strings.Count(content, "\n") < p.height
	if argv == nil || fits {
		_, err := io.WriteString(p.out, content)
		return err
	}
	env := os.Environ()
	if p.getenv("LESS") == "" {
		// raw colors, quit if one screen, no init/deinit
		env = append(env, "LESS=-RFX")
	}
	return p.run(argv, env, content)
}

// ToPager writes content to stdout, through a pager when stdout is a
// terminal and the content is taller than it.
func ToPager(content string, opts PagerOptions) error {
	return stdoutPager().page(content, opts)
}

// termWidth is the stdout terminal width, or 0.
func termWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return w
	}
	return 0
}

// Command bb is a Bitbucket Cloud CLI for AI agents and scripts.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShpetimA/atlassian-cli/internal/api"
	"github.com/ShpetimA/atlassian-cli/internal/bitbucket"
	"github.com/ShpetimA/atlassian-cli/internal/config"
	"github.com/ShpetimA/atlassian-cli/internal/debug"
	"github.com/ShpetimA/atlassian-cli/internal/output"
	"github.com/ShpetimA/atlassian-cli/internal/retry"
	"github.com/ShpetimA/atlassian-cli/internal/telemetry"
)

var (
	formatFlag    string
	outputFile    string
	workspaceFlag string
	configPath    string
	verboseFlag   bool
	quietFlag     bool
	maxRetries    int

	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:           "bb",
	Short:         "Bitbucket CLI for AI agents",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

		if err := config.LoadDotEnv(); err != nil {
			WarnError("%v", err)
		}
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
		if err := telemetry.Init(rootCtx, "bb", Version); err != nil {
			debug.Logf("telemetry init failed: %v", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		telemetry.Shutdown(context.Background())
		_ = debug.Close()
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "bitbucket", Title: "Bitbucket:"})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&formatFlag, "format", "f", "plain", "Output format: json|plain|minimal")
	pf.StringVarP(&outputFile, "output", "o", "", "Write output to file")
	pf.StringVarP(&workspaceFlag, "workspace", "w", "", "Workspace slug (default: $BITBUCKET_WORKSPACE)")
	pf.StringVar(&configPath, "config", "", "Config file (default: $JC_CONFIG or ~/.config/jc/config.json)")
	pf.BoolVar(&verboseFlag, "debug", false, "Log HTTP requests and retries to stderr")
	pf.BoolVar(&quietFlag, "quiet", false, "Suppress progress and notices on stderr")
	pf.IntVar(&maxRetries, "max-retries", retry.DefaultMaxRetries, "Retries for transient HTTP failures")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() *config.File {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			FatalError("%v", err)
		}
		path = p
	}
	f, err := config.LoadOrNew(path)
	if err != nil {
		FatalError("%v", err)
	}
	return f
}

func httpClient() *http.Client {
	p, err := retry.NewPolicy(retry.WithMaxRetries(maxRetries))
	if err != nil {
		FatalError("invalid --max-retries: %v", err)
	}
	return api.NewHTTPClient("Bitbucket", &p)
}

// bbClient builds a client and resolves the workspace it operates on.
func bbClient() (*bitbucket.Client, string) {
	creds, err := config.ResolveBitbucket(loadConfig(), workspaceFlag)
	if err != nil {
		FatalError("%v", err)
	}
	c := bitbucket.NewClient(bitbucket.Config{
		URL:        creds.URL,
		Token:      creds.Token,
		Username:   creds.Username,
		Password:   creds.Password,
		Workspace:  creds.Workspace,
		HTTPClient: httpClient(),
	})
	ws := c.Workspace()
	if ws == "" {
		FatalErrorWithHint("workspace required (--workspace or BITBUCKET_WORKSPACE)",
			"Pass -w <workspace>, set BITBUCKET_WORKSPACE or defaults.workspace")
	}
	return c, ws
}

func emit(v interface{}) {
	f, err := output.ParseFormat(formatFlag)
	if err != nil {
		FatalError("%v", err)
	}
	p := &output.Printer{Format: f, File: outputFile}
	if err := p.Print(v); err != nil {
		FatalError("%v", err)
	}
}

func check(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		FatalError("interrupted")
	}
	FatalError("%v", err)
}

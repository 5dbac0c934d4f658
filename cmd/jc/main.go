// Command jc is a Jira and Confluence CLI for AI agents and scripts.
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
	"github.com/ShpetimA/atlassian-cli/internal/config"
	"github.com/ShpetimA/atlassian-cli/internal/confluence"
	"github.com/ShpetimA/atlassian-cli/internal/debug"
	"github.com/ShpetimA/atlassian-cli/internal/jira"
	"github.com/ShpetimA/atlassian-cli/internal/output"
	"github.com/ShpetimA/atlassian-cli/internal/retry"
	"github.com/ShpetimA/atlassian-cli/internal/telemetry"
)

var (
	formatFlag  string
	outputFile  string
	profileFlag string
	domainFlag  string
	emailFlag   string
	tokenFlag   string
	configPath  string
	verboseFlag bool
	quietFlag   bool
	maxRetries  int

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:           "jc",
	Short:         "Jira and Confluence CLI for AI agents",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

		if err := config.LoadDotEnv(); err != nil {
			WarnError("%v", err)
		}
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
		if err := telemetry.Init(rootCtx, "jc", Version); err != nil {
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
	rootCmd.AddGroup(&cobra.Group{ID: "jira", Title: "Jira:"})
	rootCmd.AddGroup(&cobra.Group{ID: "agile", Title: "Jira Software:"})
	rootCmd.AddGroup(&cobra.Group{ID: "confluence", Title: "Confluence:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&formatFlag, "format", "", "Output format: json|plain|minimal (default: $JC_FORMAT, config, json)")
	pf.StringVarP(&outputFile, "output", "o", "", "Write output to file")
	pf.StringVar(&profileFlag, "profile", "", "Credentials profile (default: defaults.profile)")
	pf.StringVar(&domainFlag, "domain", "", "Atlassian site (acme, acme.atlassian.net or a URL)")
	pf.StringVar(&emailFlag, "email", "", "Account email")
	pf.StringVar(&tokenFlag, "token", "", "API token")
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

// loadConfig reads the config file, returning an empty one when none exists.
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

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	p, err := config.DefaultPath()
	if err != nil {
		FatalError("%v", err)
	}
	return p
}

func httpClient(service string) *http.Client {
	p, err := retry.NewPolicy(retry.WithMaxRetries(maxRetries))
	if err != nil {
		FatalError("invalid --max-retries: %v", err)
	}
	return api.NewHTTPClient(service, &p)
}

func jiraConfig(service string) jira.Config {
	creds, err := config.ResolveJira(loadConfig(), config.Overrides{
		Domain:  domainFlag,
		Email:   emailFlag,
		Token:   tokenFlag,
		Profile: profileFlag,
	})
	if err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			FatalErrorWithHint(config.ErrMissingCredentials.Error(), config.MissingCredentialsHint)
		}
		FatalError("%v", err)
	}
	return jira.Config{
		Domain:     creds.Domain,
		Email:      creds.Email,
		APIToken:   creds.APIToken,
		HTTPClient: httpClient(service),
	}
}

func jiraClient() *jira.Client { return jira.NewClient(jiraConfig("Jira")) }

func agileClient() *jira.AgileClient { return jira.NewAgileClient(jiraConfig("Jira Agile")) }

func confluenceClient() *confluence.Client { return confluence.NewClient(jiraConfig("Confluence")) }

// currentFormat resolves --format, then JC_FORMAT, then defaults.format.
func currentFormat() output.Format {
	s := formatFlag
	if s == "" {
		s = config.DefaultFormat(loadConfig())
	}
	f, err := output.ParseFormat(s)
	if err != nil {
		FatalError("%v", err)
	}
	return f
}

// emit prints v in the selected format, to --output when given.
func emit(v interface{}) {
	p := &output.Printer{Format: currentFormat(), File: outputFile}
	if err := p.Print(v); err != nil {
		FatalError("%v", err)
	}
}

// check exits on err with the message of the failing call.
func check(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		FatalError("interrupted")
	}
	FatalError("%v", err)
}

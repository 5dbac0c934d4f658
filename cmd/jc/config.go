package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShpetimA/atlassian-cli/internal/config"
	"github.com/ShpetimA/atlassian-cli/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Manage CLI configuration",
	Long: `Manage the jc configuration file (default ~/.config/jc/config.json, or
$JC_CONFIG). The format follows the extension: .json, .yaml/.yml or .toml.

Credentials are resolved from --domain/--email/--token, then JIRA_DOMAIN,
JIRA_EMAIL and JIRA_API_TOKEN, then the active profile. A .env file in the
working directory is loaded first without overriding the environment.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file and a credentials profile",
	Long: `Create the config file. With --domain, --email and --token the profile
(--profile, default "default") is written directly; on a terminal an
interactive form asks for the values instead.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		noInteractive, _ := cmd.Flags().GetBool("no-interactive")
		path := resolvedConfigPath()
		f, err := config.LoadOrNew(path)
		check(err)

		name := profileFlag
		if name == "" {
			name = "default"
		}
		p := config.Profile{Domain: domainFlag, Email: emailFlag, APIToken: tokenFlag}

		var msg string
		switch {
		case p.Domain != "" && p.Email != "" && p.APIToken != "":
			msg = fmt.Sprintf("Config initialized with profile %q", name)
		case !noInteractive && ui.IsTerminal() && !ui.IsAgentMode():
			p, err = runConfigForm(name, p)
			check(err)
			msg = fmt.Sprintf("Config initialized with profile %q", name)
		default:
			check(config.Save(path, f))
			emit(&actionResult{Success: true, Message: "Config file created at " + path +
				". Add credentials with 'jc config set' or env vars"})
			return
		}

		for _, kv := range [][2]string{{"domain", p.Domain}, {"email", p.Email}, {"apitoken", p.APIToken}} {
			check(f.Set("profiles."+name+"."+kv[0], kv[1]))
		}
		if len(f.Profiles) == 1 || f.Defaults.Profile == "" {
			f.Defaults.Profile = name
		}
		check(config.Save(path, f))
		emit(&actionResult{Success: true, Message: msg})
	},
}

// configValue is printed by config set and config get.
type configValue struct {
	Success bool   `json:"success,omitempty"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

func (v *configValue) Plain() string { return v.Key + ": " + v.Value }

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a config value. Keys:
  defaults.profile | defaults.project | defaults.space | defaults.format | defaults.workspace
  profiles.<name>.domain | profiles.<name>.email | profiles.<name>.apiToken
  bitbucket.url | bitbucket.token | bitbucket.username | bitbucket.password | bitbucket.workspace`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		path := resolvedConfigPath()
		f, err := config.LoadOrNew(path)
		check(err)
		check(f.Set(args[0], args[1]))
		check(config.Save(path, f))

		value := args[1]
		if config.IsSecret(args[0]) {
			value = config.Mask(value)
		}
		emit(&configValue{Success: true, Key: args[0], Value: value})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := config.Load(resolvedConfigPath())
		check(err)
		v, err := f.Get(args[0])
		check(err)
		emit(&configValue{Key: args[0], Value: v})
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the configuration with secrets masked",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		f, err := config.Load(resolvedConfigPath())
		check(err)
		emit(f.Masked())
	},
}

var configProfileCmd = &cobra.Command{
	Use:   "profile <name>",
	Short: "Switch the active profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := resolvedConfigPath()
		f, err := config.Load(path)
		check(err)
		check(f.UseProfile(args[0]))
		check(config.Save(path, f))
		emit(&actionResult{Success: true, Message: "Switched to profile: " + f.Defaults.Profile})
	},
}

// configKeys lists the settable keys.
type configKeys []config.Key

func (k configKeys) Plain() string {
	var b strings.Builder
	for i, key := range k {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%-22s %s", strings.Replace(key.Key, "*", "<name>", 1), key.Description)
		if key.EnvVar != "" {
			fmt.Fprintf(&b, " (env %s)", key.EnvVar)
		}
	}
	return b.String()
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable config keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		emit(configKeys(config.Keys))
	},
}

func init() {
	configInitCmd.Flags().Bool("no-interactive", false, "Never prompt; only create the file")

	configCmd.AddCommand(configInitCmd, configSetCmd, configGetCmd, configListCmd, configProfileCmd, configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

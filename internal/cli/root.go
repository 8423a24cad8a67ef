// Package cli provides the command-line interface for mcp-panther.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/mcp-panther/internal/cli/commands"
	"github.com/leapstack-labs/mcp-panther/internal/cli/config"
	"github.com/leapstack-labs/mcp-panther/pkg/dialect"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mcp-panther",
		Short: "mcp-panther - MCP server for the Panther security platform",
		Long: `mcp-panther exposes Panther alerts, detections, metrics and the security
data lake to AI assistants over the Model Context Protocol.

Configuration is read from mcp-panther.yaml, PANTHER_* environment variables
(a .env file is loaded first when present) and flags, in increasing order of
precedence.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help, completion and version commands
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			level, _ := config.ParseLevel(cfg.LogLevel)
			// stdout carries the stdio transport, so logs go to stderr
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := context.WithValue(cmd.Context(), config.ConfigKey(), cfg)
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if f := config.GetConfigFileUsed(); f != "" {
				logger.Debug("using config file", "path", f)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./mcp-panther.yaml)")
	pf.String("instance-url", "", "Panther instance URL, e.g. https://acme.runpanther.net")
	pf.String("gql-api-url", "", "Panther GraphQL endpoint (overrides --instance-url)")
	pf.String("rest-api-url", "", "Panther REST API root (overrides --instance-url)")
	pf.String("api-token-file", "", "File containing the Panther API token")
	pf.String("datastore", config.DefaultDatastore, "Data lake datastore: snowflake or redshift")
	pf.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	pf.Duration("timeout", config.DefaultTimeout, "Panther API request timeout")
	pf.Int("retries", config.DefaultRetries, "Retries for failed Panther API requests")

	// Register completion for datastore flag
	_ = rootCmd.RegisterFlagCompletionFunc("datastore", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return dialect.List(), cobra.ShellCompDirectiveNoFileComp
	})

	// Register completion for log-level flag
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit, BuildDate))
	rootCmd.AddCommand(commands.NewServeCommand(Version))
	rootCmd.AddCommand(commands.NewSanitizeCommand())
	rootCmd.AddCommand(commands.NewToolsCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for mcp-panther.

To load completions:

Bash:
  $ source <(mcp-panther completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ mcp-panther completion bash > /etc/bash_completion.d/mcp-panther
  # macOS:
  $ mcp-panther completion bash > $(brew --prefix)/etc/bash_completion.d/mcp-panther

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ mcp-panther completion zsh > "${fpath[1]}/_mcp-panther"

Fish:
  $ mcp-panther completion fish | source

PowerShell:
  PS> mcp-panther completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}

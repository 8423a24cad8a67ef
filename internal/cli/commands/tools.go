package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/mcp-panther/internal/cli/output"
	"github.com/leapstack-labs/mcp-panther/internal/tools"
)

// ToolInfo is one row of the tools listing.
type ToolInfo struct {
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	ReadOnly    bool   `json:"read_only" yaml:"read_only"`
	Destructive bool   `json:"destructive" yaml:"destructive"`
	Permissions string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// ToolsOptions holds options for the tools command.
type ToolsOptions struct {
	Output string
	Filter string
}

// NewToolsCommand creates the tools command.
func NewToolsCommand() *cobra.Command {
	opts := &ToolsOptions{}

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the MCP tools the server registers",
		Long: `List every MCP tool with its annotations and the Panther permissions
its API token needs.`,
		Example: `  # Table of all tools
  mcp-panther tools

  # Data lake tools as JSON
  mcp-panther tools --filter lake -o json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTools(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "table", "Output format: table, json, yaml")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "Only list tools whose name contains this text")

	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Modes, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTools(cmd *cobra.Command, opts *ToolsOptions) error {
	mode, err := output.ParseMode(opts.Output)
	if err != nil {
		return err
	}
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	infos := toolInfos(opts.Filter)
	switch mode {
	case output.ModeJSON:
		return r.JSON(infos)
	case output.ModeYAML:
		return r.YAML(infos)
	}

	rows := make([][]any, 0, len(infos))
	for _, ti := range infos {
		rows = append(rows, []any{ti.Name, ti.Title, yesNo(ti.ReadOnly), yesNo(ti.Destructive), ti.Permissions})
	}
	r.Table([]string{"name", "title", "read-only", "destructive", "permissions"}, rows)
	return nil
}

func toolInfos(filter string) []ToolInfo {
	filter = strings.ToLower(filter)
	var out []ToolInfo
	for _, def := range tools.All() {
		if filter != "" && !strings.Contains(def.Name, filter) {
			continue
		}
		out = append(out, ToolInfo{
			Name:        def.Name,
			Title:       def.Title,
			Description: def.Description,
			ReadOnly:    def.ReadOnly,
			Destructive: def.Destructive,
			Permissions: def.Permissions.String(),
		})
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

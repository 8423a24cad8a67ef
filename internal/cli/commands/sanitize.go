package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/mcp-panther/internal/cli/config"
	"github.com/leapstack-labs/mcp-panther/internal/cli/output"
	"github.com/leapstack-labs/mcp-panther/pkg/sqlguard"
)

// SanitizeOptions holds options for the sanitize command.
type SanitizeOptions struct {
	Interactive bool
	Explain     bool
	NoColor     bool
}

// NewSanitizeCommand creates the sanitize command.
func NewSanitizeCommand() *cobra.Command {
	opts := &SanitizeOptions{}

	cmd := &cobra.Command{
		Use:   "sanitize [SQL|-]",
		Short: "Quote reserved words in a data lake query",
		Long: `Run a query through the reserved-word sanitizer used by query_data_lake.

Reserved words used as column names are quoted for the configured datastore.
Reserved words that cannot be used where they appear, such as TRUE as a
column or JOIN as a table alias, are reported with their location and the
command exits non-zero.

The query is read from the argument, or from stdin when the argument is "-"
or omitted.`,
		Example: `  # Sanitize a query for Snowflake
  mcp-panther sanitize "SELECT action, column FROM panther_logs.public.aws_vpcflow"

  # Sanitize for Redshift, reading from a file
  mcp-panther sanitize --datastore redshift - < query.sql

  # Show how every reserved word was classified
  mcp-panther sanitize --explain "SELECT regexp FROM logs"

  # Interactive mode
  mcp-panther sanitize --interactive`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSanitize(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "Start an interactive sanitizer session")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "Print the classification of every reserved word")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")

	return cmd
}

func runSanitize(cmd *cobra.Command, args []string, opts *SanitizeOptions) error {
	cfg := config.GetConfig(cmd.Context())
	s := sqlguard.ForDatastore(cfg.Datastore)

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeTable)
	if opts.NoColor {
		r.DisableColor()
	}

	if opts.Interactive {
		return runSanitizeREPL(cmd, r, s)
	}

	sql, err := readSQL(cmd, args)
	if err != nil {
		return err
	}
	return sanitizeAndRender(r, s, sql, opts.Explain)
}

// readSQL returns the query from args or stdin.
func readSQL(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	in := cmd.InOrStdin()
	if len(args) == 0 && output.IsTerminal(in) {
		return "", errors.New("no SQL given: pass it as an argument, pipe it on stdin, or use --interactive")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read SQL from stdin: %w", err)
	}
	sql := strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(sql) == "" {
		return "", sqlguard.ErrEmptyQuery
	}
	return sql, nil
}

// sanitizeAndRender prints the sanitized query, or a diagnostic for every
// violation.
func sanitizeAndRender(r *output.Renderer, s *sqlguard.Sanitizer, sql string, explain bool) error {
	a := s.Analyze(sql)
	if explain {
		explainAnalysis(r, a)
	}
	if violations := a.Violations(); len(violations) > 0 {
		for _, v := range violations {
			printDiagnostic(r, sql, v)
		}
		return fmt.Errorf("%w: %d violation(s) for %s", sqlguard.ErrForbiddenKeyword, len(violations), s.Dialect().Name)
	}
	r.Println(a.Rewrite(s.Dialect()))
	return nil
}

func explainAnalysis(r *output.Renderer, a *sqlguard.Analysis) {
	var rows [][]any
	for _, id := range a.Identifiers {
		if !id.Reserved() {
			continue
		}
		pos := id.Token.Span.Start
		rows = append(rows, []any{
			id.Token.Literal,
			fmt.Sprintf("%d:%d", pos.Line, pos.Column),
			id.Role.String(),
			id.Category.String(),
			id.Action.String(),
		})
	}
	r.Table([]string{"word", "position", "role", "category", "action"}, rows)
}

// printDiagnostic writes a compiler-style report of v to standard error:
//
//	error: 'FALSE' cannot be used as column reference in scalar expressions
//	 --> line 1, column 8
//	  |
//	1 | SELECT false FROM logs
//	  |        ^^^^^
func printDiagnostic(r *output.Renderer, sql string, v *sqlguard.ValidationError) {
	st := r.ErrStyles()
	r.Errorln(st.Error.Render("error:") + " " + st.Bold.Render(v.Error()) + " " + st.Muted.Render("("+v.Kind.String()+")"))

	pos := v.Position
	if !pos.IsValid() || pos.Offset > len(sql) {
		return
	}
	lineStart := strings.LastIndexByte(sql[:pos.Offset], '\n') + 1
	lineEnd := len(sql)
	if i := strings.IndexByte(sql[pos.Offset:], '\n'); i >= 0 {
		lineEnd = pos.Offset + i
	}
	gutter := fmt.Sprintf("%d", pos.Line)
	pad := strings.Repeat(" ", len(gutter))

	// keep tabs so the caret lines up with the source
	indent := strings.Map(func(c rune) rune {
		if c == '\t' {
			return c
		}
		return ' '
	}, sql[lineStart:pos.Offset])
	width := max(1, len(v.Word))

	r.Errorln(st.Info.Render(fmt.Sprintf("%s--> line %d, column %d", pad, pos.Line, pos.Column)))
	r.Errorln(st.Info.Render(pad + " |"))
	r.Errorln(st.Info.Render(gutter+" |") + " " + sql[lineStart:lineEnd])
	r.Errorln(st.Info.Render(pad+" |") + " " + indent + st.Error.Render(strings.Repeat("^", width)))
}

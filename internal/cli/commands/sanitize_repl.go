package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/mcp-panther/internal/cli/output"
	"github.com/leapstack-labs/mcp-panther/pkg/dialect"
	"github.com/leapstack-labs/mcp-panther/pkg/sqlguard"
)

var wordCategories = map[string]dialect.Category{
	"quotable": dialect.AutoQuotable,
	"scalar":   dialect.ForbiddenScalar,
	"column":   dialect.ForbiddenColumn,
	"from":     dialect.ForbiddenFromClause,
}

// replSession is the state of one interactive sanitizer session.
type replSession struct {
	r   *output.Renderer
	s   *sqlguard.Sanitizer
	buf strings.Builder
}

func (rs *replSession) prompt() string {
	if rs.buf.Len() > 0 {
		return "    ...> "
	}
	return rs.s.Dialect().Name + "> "
}

// handle processes one input line and reports whether the session is over.
func (rs *replSession) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	// Handle dot-commands
	if rs.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return rs.dotCommand(line)
	}

	// Accumulate multi-line SQL until semicolon
	rs.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		rs.buf.WriteString("\n")
		return false
	}
	sql := strings.TrimSuffix(rs.buf.String(), ";")
	rs.buf.Reset()

	if err := sanitizeAndRender(rs.r, rs.s, sql, false); err != nil && !errors.Is(err, sqlguard.ErrForbiddenKeyword) {
		rs.r.Errorln("Error:", err)
	}
	rs.r.Println()
	return false
}

func (rs *replSession) dotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printSanitizeREPLHelp(rs.r.Writer())

	case ".datastore":
		if len(parts) < 2 {
			rs.r.Printf("datastore: %s (available: %s)\n", rs.s.Dialect().Name, strings.Join(dialect.List(), ", "))
			return false
		}
		d, ok := dialect.Get(parts[1])
		if !ok {
			rs.r.Errorln(fmt.Sprintf("Unknown datastore: %s (available: %s)", parts[1], strings.Join(dialect.List(), ", ")))
			return false
		}
		rs.s = sqlguard.New(d)
		rs.r.Printf("datastore: %s\n", d.Name)

	case ".words":
		rs.words(parts[1:])

	case ".clear":
		rs.r.Printf("\033[H\033[2J")

	default:
		rs.r.Errorln(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

func (rs *replSession) words(args []string) {
	d := rs.s.Dialect()
	if len(args) == 0 {
		var rows [][]any
		for _, name := range []string{"quotable", "scalar", "column", "from"} {
			c := wordCategories[name]
			rows = append(rows, []any{name, c.String(), len(d.Words(c))})
		}
		rs.r.Table([]string{"name", "category", "words"}, rows)
		return
	}
	c, ok := wordCategories[strings.ToLower(args[0])]
	if !ok {
		rs.r.Errorln("Usage: .words [quotable|scalar|column|from]")
		return
	}
	rs.r.Println(strings.Join(d.Words(c), " "))
}

func printSanitizeREPLHelp(w io.Writer) {
	help := `
Commands:
  .help               Show this help message
  .datastore [name]   Show or switch the datastore (snowflake, redshift)
  .words [category]   Count reserved words, or list one category
                      (quotable, scalar, column, from)
  .clear              Clear the screen
  .quit / .exit       Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completes dot-commands and their arguments
`
	_, _ = fmt.Fprintln(w, help)
}

func newSanitizeCompleter() *readline.PrefixCompleter {
	var datastores []readline.PrefixCompleterInterface
	for _, name := range dialect.List() {
		datastores = append(datastores, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".datastore", datastores...),
		readline.PcItem(".words",
			readline.PcItem("quotable"),
			readline.PcItem("scalar"),
			readline.PcItem("column"),
			readline.PcItem("from"),
		),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

// historyFile returns the REPL history path, or "" when there is no cache
// directory.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "mcp-panther")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "sanitize_history")
}

func runSanitizeREPL(cmd *cobra.Command, r *output.Renderer, s *sqlguard.Sanitizer) error {
	rs := &replSession{r: r, s: s}

	// Configure readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          rs.prompt(),
		HistoryFile:     historyFile(),
		AutoComplete:    newSanitizeCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.Printf("mcp-panther sanitizer (datastore: %s)\n", s.Dialect().Name)
	r.Println("Type .help for commands, .quit to exit")
	r.Println()

	// REPL loop
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			rs.buf.Reset()
			rl.SetPrompt(rs.prompt())
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if rs.handle(line) {
			break
		}
		rl.SetPrompt(rs.prompt())
	}

	return nil
}

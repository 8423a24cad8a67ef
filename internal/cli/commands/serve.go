package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/mcp-panther/internal/cli/config"
	"github.com/leapstack-labs/mcp-panther/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Panther MCP server.

With the stdio transport (the default) the server speaks MCP on stdin and
stdout and exits when the client disconnects. With streamable-http it listens
on --host and --port, serving MCP on /mcp and a health check on /healthz,
until interrupted.

The API token is read from PANTHER_API_TOKEN, or from the file named by
PANTHER_API_TOKEN_FILE, which is reloaded when it changes.`,
		Example: `  # Serve over stdio for a desktop MCP client
  PANTHER_INSTANCE_URL=https://acme.runpanther.net PANTHER_API_TOKEN=... mcp-panther serve

  # Serve over HTTP on port 8080
  mcp-panther serve --transport streamable-http --port 8080`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, version)
		},
	}

	cmd.Flags().String("transport", config.DefaultTransport, "Transport: stdio or streamable-http")
	cmd.Flags().String("host", config.DefaultHost, "Host to listen on for streamable-http")
	cmd.Flags().Int("port", config.DefaultPort, "Port to listen on for streamable-http")

	_ = cmd.RegisterFlagCompletionFunc("transport", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{server.TransportStdio, server.TransportHTTP}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runServe(cmd *cobra.Command, version string) error {
	ctx := cmd.Context()
	cfg := config.GetConfig(ctx)
	logger := config.GetLogger(ctx)

	endpoints, err := cfg.Endpoints()
	if err != nil {
		return err
	}
	token, err := cfg.TokenSource(logger)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Endpoints: endpoints,
		Token:     token,
		Datastore: cfg.Datastore,
		Transport: cfg.Transport,
		Host:      cfg.Host,
		Port:      cfg.Port,
		Timeout:   cfg.Timeout,
		Retries:   cfg.Retries,
		Version:   version,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	logger.Debug("panther endpoints", "graphql", endpoints.GraphQL, "rest", endpoints.REST, "datastore", cfg.Datastore)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

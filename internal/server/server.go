// Package server wires the Panther client, tools, prompts and resources into
// an MCP server and runs it over stdio or streamable HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/mcp-panther/internal/panther"
	"github.com/leapstack-labs/mcp-panther/internal/prompts"
	"github.com/leapstack-labs/mcp-panther/internal/resources"
	"github.com/leapstack-labs/mcp-panther/internal/tools"
	"github.com/leapstack-labs/mcp-panther/pkg/sqlguard"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "streamable-http"
)

// Name is the MCP implementation name.
const Name = "mcp-panther"

const instructions = `Tools for the Panther security platform: triage alerts, ` +
	`inspect detections, and query the security data lake. Data lake SQL must ` +
	`filter on p_event_time and use fully qualified table names.`

// Config holds configuration for the MCP server.
type Config struct {
	Endpoints panther.Endpoints
	Token     panther.TokenSource
	Datastore string
	Transport string
	Host      string
	Port      int
	Timeout   time.Duration
	Retries   int
	Version   string
	Logger    *slog.Logger
}

// Server is an MCP server backed by one Panther instance.
type Server struct {
	cfg    Config
	mcp    *mcp.Server
	logger *slog.Logger
}

// New creates the Panther client and registers every tool, prompt and
// resource.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	if cfg.Endpoints.GraphQL == "" {
		cfg.Endpoints.GraphQL = panther.DefaultGraphQLURL
	}
	if cfg.Endpoints.REST == "" {
		cfg.Endpoints.REST = panther.DefaultRESTURL
	}

	client, err := panther.NewClient(panther.Config{
		GraphQLURL: cfg.Endpoints.GraphQL,
		RESTURL:    cfg.Endpoints.REST,
		Token:      cfg.Token,
		UserAgent:  panther.UserAgent(cfg.Version),
		Timeout:    cfg.Timeout,
		Retries:    cfg.Retries,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create panther client: %w", err)
	}
	sanitizer := sqlguard.ForDatastore(cfg.Datastore)

	srv := mcp.NewServer(&mcp.Implementation{Name: Name, Version: version(cfg.Version)}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: instructions,
	})
	if err := tools.Register(srv, &tools.Deps{Client: client, Sanitizer: sanitizer, Logger: logger}); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	prompts.Register(srv)
	resources.Register(srv, resources.Info{
		GraphQLURL: cfg.Endpoints.GraphQL,
		RESTURL:    cfg.Endpoints.REST,
		Datastore:  sanitizer.Dialect().Name,
		Tools:      tools.Names(),
		Prompts:    prompts.Names(),
	})

	return &Server{cfg: cfg, mcp: srv, logger: logger}, nil
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Run serves the configured transport until ctx is cancelled or, for stdio,
// the client disconnects. A file-backed token is watched for rotation while
// the server runs.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egctx := errgroup.WithContext(ctx)

	if ft, ok := s.cfg.Token.(*panther.FileToken); ok {
		eg.Go(func() error {
			return ft.Watch(egctx)
		})
	}

	if s.cfg.Transport == TransportHTTP {
		s.serveHTTP(egctx, eg)
	} else {
		eg.Go(func() error {
			defer cancel()
			return s.serveStdio(egctx)
		})
	}

	return eg.Wait()
}

func (s *Server) serveStdio(ctx context.Context) error {
	s.logger.Info("starting MCP server", "transport", TransportStdio)
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server error: %w", err)
	}
	return nil
}

func (s *Server) serveHTTP(ctx context.Context, eg *errgroup.Group) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	s.logger.Info("starting MCP server", "transport", TransportHTTP, "addr", "http://"+addr+"/mcp")

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down MCP server...")
		return srv.Shutdown(shutdownCtx)
	})
}

// Handler is the HTTP surface: the streamable MCP endpoint on /mcp and a
// liveness probe on /healthz. HTTP/2 is accepted without TLS.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		requestID,
		middleware.RequestLogger(&slogFormatter{logger: s.logger}),
		middleware.Recoverer,
	)

	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
	r.Handle("/mcp", streamable)
	r.Get("/healthz", s.healthz)

	return h2c.NewHandler(r, &http2.Server{})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"name":    Name,
		"version": version(s.cfg.Version),
	})
}

// requestID tags every request with an X-Request-Id, keeping one supplied by
// the caller.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// slogFormatter sends chi's request log to the server logger instead of
// the standard library log package.
type slogFormatter struct {
	logger *slog.Logger
}

func (f *slogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &slogEntry{logger: f.logger.With(
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
	)}
}

type slogEntry struct {
	logger *slog.Logger
}

func (e *slogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	e.logger.Log(context.Background(), level, "http request",
		"status", status, "bytes", bytes, "elapsed", elapsed)
}

func (e *slogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error("http handler panic", "panic", fmt.Sprint(v), "stack", string(stack))
}

func version(v string) string {
	if v == "" {
		return "dev"
	}
	return v
}

// Package server exposes the INEGI query tools over the Model Context
// Protocol, on stdio or as an SSE endpoint with a health probe.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/datalabmx/inegimcp/internal/config"
	"github.com/datalabmx/inegimcp/internal/denue"
	"github.com/datalabmx/inegimcp/internal/indicators"
	"github.com/datalabmx/inegimcp/internal/upstream"
)

const serverName = "inegimcp"

// Options carries overrides for testing.
type Options struct {
	// Doer replaces the HTTP transport used against both INEGI APIs.
	Doer upstream.Doer
}

// Server wires the indicator and registry components behind the tool
// surface.
type Server struct {
	cfg        *config.Config
	resolver   *indicators.Resolver
	fetcher    *indicators.Fetcher
	search     *denue.SearchEngine
	aggregator *denue.Aggregator
	mcp        *mcpsdk.Server
	tools      []ToolInfo
}

// ToolInfo describes one registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// New creates a Server with default options.
func New(cfg *config.Config, version string) *Server {
	return NewWithOptions(cfg, version, Options{})
}

// NewWithOptions creates a Server with custom options for testing.
func NewWithOptions(cfg *config.Config, version string, opts Options) *Server {
	clientOpts := []upstream.ClientOption{
		upstream.WithTimeout(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second),
		upstream.WithRedacted(cfg.Indicators.Token, cfg.Denue.Token),
	}
	if opts.Doer != nil {
		clientOpts = append(clientOpts, upstream.WithDoer(opts.Doer))
	}
	client := upstream.NewClient(clientOpts...)

	engine := denue.NewSearchEngine(client, cfg.Denue)
	s := &Server{
		cfg:        cfg,
		resolver:   indicators.NewResolver(client, cfg.Indicators),
		fetcher:    indicators.NewFetcher(client, cfg.Indicators),
		search:     engine,
		aggregator: denue.NewAggregator(engine),
	}

	s.mcp = mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: version}, nil)
	s.registerTools(s.mcp)
	return s
}

// MCP returns the underlying protocol server, mainly so tests can
// connect over in-memory transports.
func (s *Server) MCP() *mcpsdk.Server { return s.mcp }

// Tools lists the registered tools in registration order.
func (s *Server) Tools() []ToolInfo { return s.tools }

func (s *Server) addTool(srv *mcpsdk.Server, tool *mcpsdk.Tool,
	handler func(context.Context, *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error)) {
	srv.AddTool(tool, handler)
	s.tools = append(s.tools, ToolInfo{Name: tool.Name, Description: tool.Description})
}

// RunStdio serves the tools over stdin/stdout until the context is
// done or the peer disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	log.Printf("[server] serving over stdio")
	return s.mcp.Run(ctx, &mcpsdk.StdioTransport{})
}

// RunHTTP serves the tools as an SSE endpoint with /healthz alongside,
// shutting down gracefully when the context is canceled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "server": serverName})
	})

	sse := mcpsdk.NewSSEHandler(func(*http.Request) *mcpsdk.Server { return s.mcp }, nil)
	router.NoRoute(gin.WrapH(sse))

	srv := &http.Server{Addr: addr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("[server] listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

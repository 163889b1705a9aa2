package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"awimctl/internal/config"
	"awimctl/internal/supervisor"
	"awimctl/pkg/logging"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Server hosts the awimctl MCP tool surface.
type Server struct {
	host string
	port int

	store *config.Store
	sup   *supervisor.Supervisor

	mcp *mcpserver.MCPServer
	sse *mcpserver.SSEServer
}

// New creates a server bound to host:port. The default binding is localhost
// only; nothing is exposed beyond the machine.
func New(host string, port int, store *config.Store, sup *supervisor.Supervisor) *Server {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 8912
	}
	return &Server{host: host, port: port, store: store, sup: sup}
}

// Start registers the tools and begins serving the SSE endpoint in the
// background.
func (s *Server) Start(ctx context.Context) error {
	if s.mcp != nil {
		return fmt.Errorf("server already started")
	}

	s.mcp = mcpserver.NewMCPServer(
		"awimctl",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)
	s.registerTools()

	baseURL := fmt.Sprintf("http://%s:%d", s.host, s.port)
	s.sse = mcpserver.NewSSEServer(
		s.mcp,
		mcpserver.WithBaseURL(baseURL),
		mcpserver.WithSSEEndpoint("/sse"),
		mcpserver.WithMessageEndpoint("/message"),
		mcpserver.WithKeepAlive(true),
		mcpserver.WithKeepAliveInterval(30*time.Second),
	)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	logging.Info("Server", "Starting MCP server on %s", addr)
	sse := s.sse
	go func() {
		if err := sse.Start(addr); err != nil && err != http.ErrServerClosed {
			logging.Error("Server", err, "SSE server error")
		}
	}()
	return nil
}

// Stop shuts the SSE endpoint down.
func (s *Server) Stop(ctx context.Context) error {
	if s.sse == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.sse.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server", err, "Error shutting down SSE server")
	}
	s.sse = nil
	s.mcp = nil
	return nil
}

// Endpoint returns the SSE endpoint URL clients connect to.
func (s *Server) Endpoint() string {
	return fmt.Sprintf("http://%s:%d/sse", s.host, s.port)
}

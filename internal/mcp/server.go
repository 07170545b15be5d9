// Package mcp provides an MCP (Model Context Protocol) server for ratingsim.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/ratingsim/internal/logging"
	"github.com/nvandessel/ratingsim/internal/ratelimit"
	"github.com/nvandessel/ratingsim/internal/store"
)

// Server wraps the MCP SDK server and exposes the simulation engine as tools.
type Server struct {
	server       *sdk.Server
	store        *store.Store // nil when no archive is configured
	audit        *AuditLogger
	logger       *slog.Logger
	toolLimiters ratelimit.ToolLimiters
	exportDir    string // confines export_runs and import_runs
}

// Config holds server configuration.
type Config struct {
	Name      string       // Server name (e.g., "ratingsim")
	Version   string       // Server version
	StorePath string       // Results archive; empty disables save and list_runs
	AuditDir  string       // Directory of audit.jsonl; empty disables auditing
	ExportDir string       // Only directory export_runs and import_runs may touch; empty disables them
	Logger    *slog.Logger // Operational log; nil discards
}

// NewServer creates a new MCP server with the ratingsim tools.
func NewServer(cfg *Config) (*Server, error) {
	s := &Server{
		audit:        NewAuditLogger(cfg.AuditDir),
		logger:       cfg.Logger,
		toolLimiters: ratelimit.NewToolLimiters(),
		exportDir:    cfg.ExportDir,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}

	if cfg.StorePath != "" {
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			s.audit.Close()
			return nil, fmt.Errorf("failed to open results store: %w", err)
		}
		s.store = st
	}

	s.server = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			s.logger.Info("client initialized")
		},
	})

	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled, then
// releases the server's resources.
func (s *Server) Run(ctx context.Context) error {
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	if closeErr := s.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Close releases the store and the audit log.
func (s *Server) Close() error {
	var firstErr error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			firstErr = err
		}
		s.store = nil
	}
	if err := s.audit.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

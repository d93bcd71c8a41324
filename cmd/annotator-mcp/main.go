package main

import (
	"context"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "annotator/internal/adapters/mcp"
	"annotator/internal/adapters/sqlite"
	"annotator/internal/application"
	"annotator/internal/config"
	"annotator/internal/domain"
	"annotator/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("annotator-mcp: %v", err)
	}

	// stdout carries the protocol; logs go to stderr or the configured file
	b := logging.New().Level(cfg.LogLevel)
	if cfg.LogFile != "" {
		b = b.FromPath(cfg.LogFile)
	}
	logger, closer, err := b.Make()
	if err != nil {
		log.Fatalf("annotator-mcp: %v", err)
	}
	defer closer.Close()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("annotator-mcp: %v", err)
	}
	defer store.Close()
	store.SetLogger(logger)

	user, err := store.EnsureExperimenter(context.Background(), cfg.User)
	if err != nil {
		log.Fatalf("annotator-mcp: %v", err)
	}

	filter, err := domain.DefaultNamespaceFilter(cfg.ExcludedNamespaces...)
	if err != nil {
		log.Fatalf("annotator-mcp: %v", err)
	}

	sess := mcpadapter.Session{
		Store:       store,
		Permissions: application.StaticPermissions{ReadOnly: cfg.ReadOnly},
		User:        user,
		Options: []application.EditorOption{
			application.WithLogger(logger),
			application.WithNamespaceFilter(filter),
		},
	}

	mcpServer := server.NewMCPServer(
		"annotator-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, sess)
	mcpadapter.RegisterWriteTools(mcpServer, sess)

	logger.Info().Str("db", cfg.DBPath).Str("user", user.Name).Msg("serving tools on stdio")
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		log.Fatalf("annotator-mcp: %v", err)
	}
}

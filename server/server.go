// Package server exposes the iCards domain services as MCP tools over
// a stdio transport.
package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/EloSanz/iCardsMCP/icards"
	"github.com/EloSanz/iCardsMCP/stats"
	"github.com/EloSanz/iCardsMCP/tagging"
)

// Server wires the domain services into an MCP server.
type Server struct {
	decks     *icards.DeckService
	cards     *icards.FlashcardService
	tags      *icards.TagService
	engine    *tagging.Engine
	estimator *stats.Estimator
	logger    zerolog.Logger

	defaultMaxFlashcards int

	mcp *mcp.Server
}

// Options configures a Server.
type Options struct {
	Version string
	// MaxFlashcards caps criteria-based bulk selections. Zero means
	// no cap.
	MaxFlashcards int
}

// New builds the MCP server and registers all tools.
func New(decks *icards.DeckService, cards *icards.FlashcardService, tags *icards.TagService,
	engine *tagging.Engine, estimator *stats.Estimator, logger zerolog.Logger, opts Options) *Server {

	s := &Server{
		decks:                decks,
		cards:                cards,
		tags:                 tags,
		engine:               engine,
		estimator:            estimator,
		logger:               logger,
		defaultMaxFlashcards: opts.MaxFlashcards,
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "icards",
		Version: version,
	}, &mcp.ServerOptions{
		Instructions: serverInstructions,
	})

	s.registerTools()
	return s
}

// Run serves MCP requests over stdin/stdout until ctx is cancelled or
// the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().Msg("MCP server listening on stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Package mcp exposes the triage model as MCP tools over stdio.
package mcp

import (
	"context"

	"stroke-triage/internal/config"
	"stroke-triage/internal/triage"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// MaxSimulations bounds the draws a single tool call may request.
const MaxSimulations = 100000

// Server holds the state for the MCP server.
type Server struct {
	cfg    *config.AppConfig
	params triage.Params
	server *sdk.Server
}

// NewServer creates a new MCP server with every tool registered.
func NewServer(cfg *config.AppConfig, params triage.Params, version string) *Server {
	s := &Server{
		cfg:    cfg,
		params: params,
		server: sdk.NewServer(&sdk.Implementation{Name: "stroke-triage", Version: version}, nil),
	}
	s.registerTools()
	return s
}

// Start serves the stdio transport until the client disconnects or ctx is
// done.
func (s *Server) Start(ctx context.Context) error {
	log.Info().Msg("MCP Server starting Stdio loop")
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Connect serves a single session over transport.
func (s *Server) Connect(ctx context.Context, transport sdk.Transport) (*sdk.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name: "evaluate_triage",
		Description: "Run the stroke triage cost-effectiveness model for one patient against an explicit list of centers " +
			"with travel times. Returns how often each center is the cost-effective first destination across the " +
			"Monte-Carlo draws, the most frequent optimal strategy and per-strategy median QALYs and costs. " +
			"Guidance: Drip-and-ship is only considered for primary centers that name a transfer destination.",
	}, s.handleEvaluateTriage)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: "evaluate_location",
		Description: "Run the stroke triage model for one patient at a location of a travel-time file, using a " +
			"hospital file in the same layout as the batch command. Relative paths resolve against DATA_PATH. " +
			"Guidance: Use 'evaluate_triage' instead when the centers are not stored on disk.",
	}, s.handleEvaluateLocation)
}

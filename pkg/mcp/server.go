package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/bikeiot/pkg/device"
	"github.com/urmzd/bikeiot/pkg/protocol/validator"
)

// Server wraps the MCP server with fleet control and packet tools
type Server struct {
	mcpServer  *server.MCPServer
	controller device.Controller
	validator  *validator.Validator
}

// NewServer creates a new MCP server. A nil validator selects the default
// protocol rules.
func NewServer(controller device.Controller, v *validator.Validator) *Server {
	if v == nil {
		v = validator.Default
	}
	s := &Server{
		controller: controller,
		validator:  v,
	}

	// Create MCP server
	s.mcpServer = server.NewMCPServer(
		"bikeiot",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Register all tools
	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

package tools

import (
	"github.com/tb0hdan/adapta-history/pkg/server"
)

// Tool is an MCP tool exposed by the history backend.
type Tool interface {
	Register(srv *server.Server) error
}

package model

import "github.com/mark3labs/mcp-go/mcp"

// ToolType classifies a tool as a read or write operation. Only queries that
// resolve to read tools are eligible for semantic caching.
type ToolType string

const (
	ToolTypeRead  ToolType = "read"
	ToolTypeWrite ToolType = "write"
)

// ToolDefinition is one MCP tool from the static catalog. Immutable reference
// data after startup; the dotted name (server.action) is unique across all
// servers.
type ToolDefinition struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	InputSchema mcp.ToolInputSchema `json:"inputSchema"`
	Type        ToolType            `json:"type"`
	Server      string              `json:"server,omitempty"`
}

// IsWrite reports whether the tool mutates external state.
func (t ToolDefinition) IsWrite() bool {
	return t.Type == ToolTypeWrite
}

// ToolMatch is one vector-search candidate with its cosine similarity.
type ToolMatch struct {
	Name        string
	Description string
	Server      string
	Type        ToolType
	Similarity  float64
}

// Package catalog holds the static MCP tool definitions exposed to the
// assistant. Definitions are embedded at build time and indexed by name.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
)

//go:embed tools.json
var toolsJSON []byte

type rawTool struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	InputSchema mcp.ToolInputSchema `json:"inputSchema"`
	Type        model.ToolType      `json:"type"`
}

// Catalog is an immutable view over the embedded tool definitions.
type Catalog struct {
	tools   []model.ToolDefinition
	byName  map[string]model.ToolDefinition
	servers []string
}

// Load parses the embedded tool definitions. It fails on malformed JSON,
// duplicate tool names or a tool type outside read/write.
func Load() (*Catalog, error) {
	var byServer map[string][]rawTool
	if err := json.Unmarshal(toolsJSON, &byServer); err != nil {
		return nil, fmt.Errorf("parse tool definitions: %w", err)
	}

	c := &Catalog{byName: make(map[string]model.ToolDefinition)}

	servers := make([]string, 0, len(byServer))
	for server := range byServer {
		servers = append(servers, server)
	}
	sort.Strings(servers)
	c.servers = servers

	for _, server := range servers {
		for _, rt := range byServer[server] {
			if rt.Type != model.ToolTypeRead && rt.Type != model.ToolTypeWrite {
				return nil, fmt.Errorf("tool %s: unknown type %q", rt.Name, rt.Type)
			}
			if _, dup := c.byName[rt.Name]; dup {
				return nil, fmt.Errorf("duplicate tool name %s", rt.Name)
			}
			def := model.ToolDefinition{
				Name:        rt.Name,
				Description: rt.Description,
				InputSchema: rt.InputSchema,
				Type:        rt.Type,
				Server:      server,
			}
			c.tools = append(c.tools, def)
			c.byName[rt.Name] = def
		}
	}
	return c, nil
}

// All returns every tool definition in server order.
func (c *Catalog) All() []model.ToolDefinition {
	out := make([]model.ToolDefinition, len(c.tools))
	copy(out, c.tools)
	return out
}

// Lookup returns the definition for a tool name.
func (c *Catalog) Lookup(name string) (model.ToolDefinition, bool) {
	def, ok := c.byName[name]
	return def, ok
}

// Servers returns the distinct MCP server names in sorted order.
func (c *Catalog) Servers() []string {
	out := make([]string, len(c.servers))
	copy(out, c.servers)
	return out
}

// Len returns the number of tools in the catalog.
func (c *Catalog) Len() int {
	return len(c.tools)
}

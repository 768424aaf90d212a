package selector

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
)

//go:embed select_tools.tmpl
var selectToolsTmpl string

func renderSelectPrompt(query, toolsContext string) string {
	return strings.NewReplacer(
		"{{query}}", query,
		"{{tools}}", toolsContext,
	).Replace(selectToolsTmpl)
}

// formatToolsContext renders tool definitions as the structured text block
// the selection prompt embeds, including parameter types and required flags.
func formatToolsContext(tools []model.ToolDefinition) string {
	blocks := make([]string, 0, len(tools))
	for _, tool := range tools {
		var b strings.Builder
		fmt.Fprintf(&b, "Tool: %s\nServer: %s\nType: %s\nDescription: %s", tool.Name, tool.Server, tool.Type, tool.Description)

		if len(tool.InputSchema.Properties) > 0 {
			b.WriteString("\nParameters:\n")
			required := make(map[string]bool, len(tool.InputSchema.Required))
			for _, name := range tool.InputSchema.Required {
				required[name] = true
			}
			for _, name := range sortedParamNames(tool.InputSchema.Properties) {
				info, ok := tool.InputSchema.Properties[name].(map[string]any)
				if !ok {
					continue
				}
				paramType, _ := info["type"].(string)
				desc, _ := info["description"].(string)
				requiredStr := " (optional)"
				if required[name] {
					requiredStr = " (required)"
				}
				fmt.Fprintf(&b, "  - %s (%s)%s: %s\n", name, paramType, requiredStr, desc)
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func sortedParamNames(properties map[string]any) []string {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// selectionSummary is the demo-facing response line comparing how many tools
// each panel sent to the LLM versus how many it selected.
func selectionSummary(panel string, selected, total int) string {
	if selected == 0 {
		return fmt.Sprintf("%s: No tools selected", strings.ToUpper(panel))
	}
	summary := fmt.Sprintf("%s: %d of %d tools selected", strings.ToUpper(panel), selected, total)
	if panel == model.PanelOptimized && total > 0 {
		reduction := 100 - float64(selected)/float64(total)*100
		summary += fmt.Sprintf(" (%.0f%% reduction)", reduction)
	}
	return summary
}

package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mcp-tool-select-poc/server/internal/assistant/model"
)

// serverKeywords enriches tool embeddings with domain vocabulary so user
// queries phrased in business terms land near the right server's tools.
var serverKeywords = map[string]string{
	"jira":       "project management internal issues development bugs tasks sprint agile",
	"pagerduty":  "incident response on-call alerts engineering teams escalation",
	"datadog":    "application monitoring APM logs metrics observability infrastructure",
	"confluence": "documentation wiki knowledge base articles pages collaboration",
	"m365":       "microsoft office email teams sharepoint outlook calendar",
	"snowflake":  "data warehouse SQL analytics database queries reporting",
}

const maxParamDescriptions = 5

// EmbeddingText builds the text a tool is embedded under. The raw name and
// description alone score poorly against conversational queries, so the text
// is expanded with server vocabulary, the operation type, parameter
// descriptions and use-case keywords derived from the tool itself.
func EmbeddingText(def model.ToolDefinition) string {
	parts := []string{def.Name, def.Description}

	if kw, ok := serverKeywords[strings.ToLower(def.Server)]; ok {
		parts = append(parts, kw)
	}
	parts = append(parts, fmt.Sprintf("This %s tool performs %s operations.", def.Server, def.Type))

	parts = append(parts, paramDescriptions(def.InputSchema.Properties)...)

	if _, action, found := strings.Cut(def.Name, "."); found {
		parts = append(parts, "Action: "+strings.ReplaceAll(action, "_", " "))
	}

	parts = append(parts, useCaseKeywords(def)...)

	return strings.Join(parts, " ")
}

func paramDescriptions(properties map[string]any) []string {
	if len(properties) == 0 {
		return nil
	}
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		info, ok := properties[name].(map[string]any)
		if !ok {
			continue
		}
		if desc, ok := info["description"].(string); ok {
			out = append(out, name+": "+desc)
		}
		if nested, ok := info["properties"].(map[string]any); ok {
			out = append(out, paramDescriptions(nested)...)
		}
	}
	if len(out) > maxParamDescriptions {
		out = out[:maxParamDescriptions]
	}
	return out
}

func useCaseKeywords(def model.ToolDefinition) []string {
	nameLower := strings.ToLower(def.Name)
	descLower := strings.ToLower(def.Description)

	var out []string
	if strings.Contains(nameLower, "search") {
		out = append(out, "search query filter find lookup retrieve")
	}
	if strings.Contains(nameLower, "log") {
		out = append(out, "logs logging events errors exceptions")
	}
	if strings.Contains(nameLower, "incident") || strings.Contains(descLower, "incident") {
		out = append(out, "incident outage critical emergency production issue")
	}
	if strings.Contains(nameLower, "trace") {
		out = append(out, "tracing spans performance monitoring")
	}
	if strings.Contains(descLower, "performance") {
		out = append(out, "performance metrics latency errors throughput")
	}
	if strings.Contains(descLower, "error") || strings.Contains(descLower, "failure") {
		out = append(out, "error debugging failure investigation troubleshooting")
	}
	if strings.Contains(descLower, "payment") {
		out = append(out, "payment transactions billing financial money")
	}
	return out
}

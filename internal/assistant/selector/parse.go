package selector

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseToolSelection extracts the tool names from an LLM reply that should
// be a bare JSON array, tolerating markdown code fences around it.
func parseToolSelection(raw string) ([]string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var names []string
	if err := json.Unmarshal([]byte(clean), &names); err != nil {
		return nil, fmt.Errorf("parse tool selection: %w", err)
	}
	return names, nil
}

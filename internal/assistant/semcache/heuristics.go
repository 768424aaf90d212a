// Package semcache implements the semantic query cache sitting in front of
// the selection pipeline. Only information requests are cached; lookups hit
// when a prior query's embedding is similar enough to the new one.
package semcache

import "strings"

// infoKeywords mark a query as an information request. Multi-word entries
// match as phrases, single words match on word boundaries or as the query
// prefix.
var infoKeywords = []string{
	"get", "search", "find", "show", "list", "display",
	"what", "where", "when", "why", "how", "which", "who",
	"tell me", "give me", "fetch", "retrieve", "look up",
}

var writeKeywords = []string{"create", "send", "update", "add", "delete", "draft and send"}

// IsInformationRequest reports whether a query asks for information rather
// than requesting an action. Information requests are the only queries worth
// caching, since action requests must execute every time.
func IsInformationRequest(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	padded := " " + q + " "
	for _, kw := range infoKeywords {
		if strings.HasPrefix(q, kw) || strings.Contains(padded, " "+kw+" ") {
			return true
		}
	}
	return strings.HasSuffix(q, "?")
}

// IsWriteOperation reports whether a query requests a state-changing action.
func IsWriteOperation(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range writeKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

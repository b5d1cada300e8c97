package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/teranos/storygraph/errors"
)

// decodeStrict parses a collaborator response into its declared contract.
//
// Models often wrap JSON in markdown fences or preamble text; the JSON
// payload is located and everything else discarded. What remains must
// unmarshal cleanly or the call fails with ErrMalformedResponse — partial
// or ambiguous text is never accepted as success.
func decodeStrict(content string, out interface{}) error {
	payload := extractJSON(content)
	if payload == "" {
		return errors.NewMalformedResponse("no JSON payload in response")
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return errors.Wrap(errors.ErrMalformedResponse, err.Error())
	}
	return nil
}

// extractJSON pulls the JSON object or array out of a model response,
// tolerating markdown fences and surrounding prose
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Prefer an explicit fenced block when present
	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}

	// Otherwise take the outermost braces/brackets
	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return ""
	}
	open := content[start]
	closeCh := byte('}')
	if open == '[' {
		closeCh = ']'
	}
	end := strings.LastIndexByte(content, closeCh)
	if end <= start {
		return ""
	}
	return content[start : end+1]
}

package questions

import (
	"encoding/json"
	"regexp"

	"aicruiter/internal/utils"
)

// leading "1.", "2)", "3", "-", "*" or "•" list markers
var listMarker = regexp.MustCompile(`^\s*(?:\d+[.)]?|[-*•])\s*`)

// ParseList extracts questions from a Question Source reply. Strict JSON is tried
// first; a JSON value that is not a list is unusable. Anything that is not JSON is
// parsed line by line with list markers removed.
func ParseList(content string) ([]string, bool) {
	content = utils.StripFences(content)
	if content == "" {
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal([]byte(content), &decoded); err == nil {
		switch v := decoded.(type) {
		case []any:
			return fromItems(v), true
		case map[string]any:
			if items, ok := v["questions"].([]any); ok {
				return fromItems(items), true
			}
		}
		return nil, false
	}

	return splitLines(content, true), true
}

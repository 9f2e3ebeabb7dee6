package questions

import (
	"encoding/json"
	"strings"
)

// Normalize turns a stored question column into an ordered list of non-empty strings.
// The column may hold a JSON array (of strings or {"question": ...} objects), a JSON
// string wrapping either form, or plain newline separated text.
func Normalize(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		switch v := decoded.(type) {
		case []any:
			return fromItems(v)
		case string:
			return Normalize(v)
		}
	}
	return splitLines(raw, false)
}

// NormalizeJSON accepts a raw JSON column value as returned by a REST store.
func NormalizeJSON(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return Normalize(string(raw))
}

func fromItems(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var text string
		switch v := item.(type) {
		case string:
			text = v
		case map[string]any:
			if q, ok := v["question"].(string); ok {
				text = q
			}
		}
		if text = strings.TrimSpace(text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func splitLines(text string, stripNumbering bool) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if stripNumbering {
			line = listMarker.ReplaceAllString(line, "")
		}
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Encode serializes questions for storage in a text column.
func Encode(questions []string) string {
	if questions == nil {
		questions = []string{}
	}
	data, _ := json.Marshal(questions)
	return string(data)
}

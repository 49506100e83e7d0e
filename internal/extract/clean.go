package extract

import "strings"

// cleanModelJSON strips Markdown code fences and any prose around the
// top-level JSON array of a model response.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// ```json ... ``` or ``` ... ```
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			// Single line: "```json [...]```"
			s = strings.TrimLeft(s, "`")
			s = strings.TrimPrefix(s, "json")
		} else {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}

	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = s[start : end+1]
		}
	}

	return strings.TrimSpace(s)
}

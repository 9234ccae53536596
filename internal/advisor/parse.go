package advisor

import (
	"strings"
)

// cleanModelJSON strips Markdown fences and surrounding prose the model
// sometimes adds despite instructions, keeping only the outermost JSON
// object or array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Extra safety: keep only the outermost JSON value if there is still
	// junk around it. Whichever bracket opens first decides whether we are
	// looking at an object or an array.
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")
	open, close := "{", "}"
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		open, close = "[", "]"
	}
	start := strings.Index(s, open)
	end := strings.LastIndex(s, close)
	if start != -1 && end > start {
		return strings.TrimSpace(s[start : end+1])
	}
	return s
}

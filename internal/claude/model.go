package claude

import "strings"

// MapModelName converts API model identifiers to Claude Code CLI aliases.
// Names without a known family are passed through unchanged.
func MapModelName(model string) string {
	switch m := strings.ToLower(model); {
	case strings.Contains(m, "haiku"):
		return "haiku"
	case strings.Contains(m, "sonnet"):
		return "sonnet"
	case strings.Contains(m, "opus"):
		return "opus"
	default:
		return model
	}
}

package claude

import (
	"fmt"
	"os/exec"
	"strings"
)

// FindCLI locates the Claude Code CLI and checks that it runs. An explicit
// path skips the PATH lookup.
func FindCLI(path string) (string, error) {
	if path == "" {
		found, err := exec.LookPath("claude")
		if err != nil {
			return "", fmt.Errorf("Claude Code CLI not found.\nInstall: curl -fsSL https://claude.ai/install.sh | bash")
		}
		path = found
	}

	out, err := exec.Command(path, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("Claude Code CLI found but cannot get version: %w", err)
	}
	if strings.TrimSpace(string(out)) == "" {
		return "", fmt.Errorf("Claude Code CLI returned empty version")
	}
	return path, nil
}

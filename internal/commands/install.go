package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moasq/toolfactory/internal/install"
	"github.com/moasq/toolfactory/internal/terminal"
	"github.com/moasq/toolfactory/internal/verify"
)

var (
	installType  string
	installQuick bool
)

var installCmd = &cobra.Command{
	Use:   "install <file>",
	Short: "Print an install runbook for a tool document",
	Long: `Prints the prerequisites, install commands, verification steps and
uninstall commands for a generated tool. --quick prints only the commands,
ready to paste into a shell.`,
	Example: `  toolfactory install SKILL.md
  toolfactory install --quick server.md | sh`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVarP(&installType, "type", "t", "", "Tool type (detected from the frontmatter when empty)")
	installCmd.Flags().BoolVarP(&installQuick, "quick", "q", false, "Print the condensed command list")
}

func runInstall(cmd *cobra.Command, args []string) error {
	kind, err := parseKindFlag(installType)
	if err != nil {
		return err
	}
	t, _, err := loadTool(args[0], kind)
	if err != nil {
		return err
	}
	if q := verify.QuickValidate(t); !q.Valid {
		terminal.Warning(fmt.Sprintf("%s has format issues; the runbook may not work as written:", args[0]))
		for _, issue := range q.Issues {
			terminal.Bullet(issue)
		}
	}

	if installQuick {
		text, err := install.QuickInstall(t)
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	}
	text, err := install.Instructions(t)
	if err != nil {
		return err
	}
	fmt.Print(terminal.RenderMarkdown(text))
	return nil
}

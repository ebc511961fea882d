package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moasq/toolfactory/internal/terminal"
	"github.com/moasq/toolfactory/internal/update"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, optionally checking for a newer release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("toolfactory %s\n", Version)
		if !versionCheck {
			return nil
		}
		res, err := update.NewChecker().Check(cmd.Context(), "moasq", "toolfactory", Version)
		if err != nil {
			return err
		}
		if res.NeedsUpdate() {
			terminal.Warning(fmt.Sprintf("toolfactory %s is available: %s", res.Latest, res.UpdateURL))
		} else {
			terminal.Success("Up to date.")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check GitHub for a newer release")
}

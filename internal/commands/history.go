package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/moasq/toolfactory/internal/storage"
	"github.com/moasq/toolfactory/internal/terminal"
)

var (
	historyLimit int
	historyClear bool
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent generation attempts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hs := storage.NewHistoryStore(cfg.Dir)
		if historyClear {
			if err := hs.Clear(); err != nil {
				return err
			}
			terminal.Success("History cleared.")
			return nil
		}

		entries, err := hs.Recent(historyLimit)
		if err != nil {
			return err
		}
		if historyJSON {
			if entries == nil {
				entries = []storage.HistoryEntry{}
			}
			return printJSON(entries)
		}
		if len(entries) == 0 {
			terminal.Info("No generations yet.")
			return nil
		}

		fmt.Printf("  %-16s %-8s %-10s %5s %8s  %s\n", "When", "Type", "Outcome", "Score", "Took", "Description")
		fmt.Printf("  %s\n", strings.Repeat("-", 96))
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			score := "-"
			if e.Outcome == storage.OutcomeSaved || e.Outcome == storage.OutcomePreviewed || e.Outcome == storage.OutcomeRejected {
				score = fmt.Sprintf("%d", e.Score)
			}
			fmt.Printf("  %-16s %-8s %-10s %5s %8s  %s\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04"),
				e.Kind,
				outcomeLabel(e.Outcome),
				score,
				e.Duration.Round(100*time.Millisecond),
				truncate(e.Description, 40),
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of attempts to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete the history")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print JSON")
}

func outcomeLabel(o storage.Outcome) string {
	switch o {
	case storage.OutcomeSaved, storage.OutcomePreviewed:
		return terminal.Green + fmt.Sprintf("%-10s", o) + terminal.Reset
	case storage.OutcomeFailed, storage.OutcomeRejected:
		return terminal.Red + fmt.Sprintf("%-10s", o) + terminal.Reset
	}
	return fmt.Sprintf("%-10s", o)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

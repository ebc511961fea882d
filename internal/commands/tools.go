package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moasq/toolfactory/internal/storage"
	"github.com/moasq/toolfactory/internal/terminal"
	"github.com/moasq/toolfactory/internal/tool"
)

var (
	toolsJSON bool
	toolsType string
	toolsRaw  bool
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List, show and add saved tools",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKindFlag(toolsType)
		if err != nil {
			return err
		}
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		recs, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		filtered := recs[:0]
		for _, r := range recs {
			if kind == "" || r.Kind == kind {
				filtered = append(filtered, r)
			}
		}
		if toolsJSON {
			if filtered == nil {
				filtered = []storage.Record{}
			}
			return printJSON(filtered)
		}
		if len(filtered) == 0 {
			terminal.Info("No saved tools yet. Generate one with `toolfactory generate --save`.")
			return nil
		}
		fmt.Printf("  %-36s %-8s %-32s %s\n", "ID", "Type", "Slug", "Saved")
		fmt.Printf("  %s\n", strings.Repeat("-", 96))
		for _, r := range filtered {
			fmt.Printf("  %-36s %-8s %-32s %s\n", r.ID, r.Kind, r.Slug, r.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var toolsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved tool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("tool %s: %w", args[0], err)
		}
		switch {
		case toolsJSON:
			data, err := tool.Marshal(rec.Tool)
			if err != nil {
				return err
			}
			return printJSON(struct {
				storage.Record
				Tool json.RawMessage `json:"tool"`
			}{*rec, data})
		case toolsRaw:
			fmt.Print(rawDocument(rec.Tool))
		default:
			b := rec.Tool.Common()
			terminal.Header(fmt.Sprintf("%s %s", rec.Kind.Label(), b.Name))
			terminal.Detail("ID", rec.ID)
			terminal.Detail("Slug", b.Slug)
			terminal.Detail("Category", b.Category)
			terminal.Detail("Tags", strings.Join(b.Tags, ", "))
			terminal.Detail("Saved", rec.CreatedAt.Local().Format("2006-01-02 15:04"))
			fmt.Print(terminal.RenderMarkdown(b.Content))
		}
		return nil
	},
}

var toolsAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Verify a tool document and save it",
	Long: `Verifies a hand-edited or previously generated document and saves it
when it passes. Saving goes to --endpoint when one is configured.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKindFlag(toolsType)
		if err != nil {
			return err
		}
		t, _, err := loadTool(args[0], kind)
		if err != nil {
			return err
		}
		res := newVerifier().Verify(cmd.Context(), t)
		if !res.Passed {
			printVerification(t, res, nil)
			return fmt.Errorf("%s failed verification (score %d)", args[0], res.Score)
		}

		saver, closeSaver, err := newSaver(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSaver()
		id, err := saver.Save(cmd.Context(), t)
		if err != nil {
			return err
		}
		if toolsJSON {
			return printJSON(map[string]string{"toolId": id})
		}
		terminal.Success(fmt.Sprintf("Saved %s as %s (score %d)", t.Common().Slug, id, res.Score))
		return nil
	},
}

func init() {
	toolsCmd.PersistentFlags().BoolVar(&toolsJSON, "json", false, "Print JSON")
	toolsListCmd.Flags().StringVarP(&toolsType, "type", "t", "", "Only list this tool type")
	toolsAddCmd.Flags().StringVarP(&toolsType, "type", "t", "", "Tool type (detected from the frontmatter when empty)")
	toolsShowCmd.Flags().BoolVar(&toolsRaw, "raw", false, "Print the original document")
	toolsCmd.AddCommand(toolsListCmd, toolsShowCmd, toolsAddCmd)
}

func rawDocument(t tool.Tool) string {
	b := t.Common()
	if strings.TrimSpace(b.RawContent) != "" {
		return b.RawContent
	}
	return b.Content
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

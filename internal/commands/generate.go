package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moasq/toolfactory/internal/prompts"
	"github.com/moasq/toolfactory/internal/session"
	"github.com/moasq/toolfactory/internal/storage"
	"github.com/moasq/toolfactory/internal/terminal"
	"github.com/moasq/toolfactory/internal/tool"
)

var (
	genType        string
	genHints       prompts.Hints
	genSave        bool
	genFix         bool
	genPrintPrompt bool
	genOutput      string
)

var generateCmd = &cobra.Command{
	Use:   "generate [description...]",
	Short: "Generate and verify a tool from a description",
	Long: `Streams a new tool definition from the configured model (or --endpoint),
parses and verifies it, and prints the document. With --save the tool is
persisted when verification passes. Ctrl+C abandons the generation.`,
	Example: `  toolfactory generate --type skill "Summarize PDF contracts into risk lists"
  toolfactory generate --type mcp --language python --transport stdio "Read-only Postgres queries" -o server.md --save`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genType, "type", "t", string(tool.KindSkill), "Tool type: skill, command, agent or mcp")
	f.StringVar(&genHints.Category, "category", "", "Preferred category")
	f.StringVar(&genHints.Complexity, "complexity", "", "Skill complexity: simple, complex or multi-agent")
	f.StringVar(&genHints.Persona, "persona", "", "Agent persona")
	f.StringVar(&genHints.Transport, "transport", "", "MCP transport: stdio or http")
	f.StringVar(&genHints.Language, "language", "", "MCP language: typescript or python")
	f.BoolVar(&genSave, "save", false, "Save the tool when verification passes")
	f.BoolVar(&genFix, "fix", false, "Apply suggested auto-fixes before saving")
	f.BoolVar(&genPrintPrompt, "print-prompt", false, "Print the prompts instead of generating")
	f.StringVarP(&genOutput, "output", "o", "", "Write the generated document to a file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	kind, err := tool.ParseKind(genType)
	if err != nil {
		return err
	}
	description := strings.Join(args, " ")

	if genPrintPrompt {
		p, err := prompts.Build(kind, description, genHints)
		if err != nil {
			return err
		}
		fmt.Printf("# System\n\n%s\n\n# User\n\n%s", p.System, p.User)
		return nil
	}

	gen, err := newGenerator()
	if err != nil {
		return err
	}
	var saver storage.Saver
	if genSave {
		s, closeStore, err := newSaver(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()
		saver = s
	}

	entry := storage.HistoryEntry{Kind: kind, Description: description, Outcome: storage.OutcomeFailed}
	started := time.Now()
	defer func() {
		entry.Duration = time.Since(started).Round(time.Millisecond)
		recordAttempt(entry)
	}()

	progress := terminal.NewProgressDisplay(kind.Label())
	var (
		mu   sync.Mutex
		seen int
	)
	sess := session.New(gen, saver,
		session.WithKind(kind),
		session.WithVerifier(newVerifier()),
		session.WithLogger(logger),
		session.WithListener(func(snap session.Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			if snap.State == session.StateGenerating && len(snap.Content) > seen {
				progress.OnChunk(snap.Content[seen:])
				seen = len(snap.Content)
			}
		}),
	)
	if err := sess.SetDescription(description); err != nil {
		return err
	}
	if err := sess.SetHints(genHints); err != nil {
		return err
	}

	// Ctrl+C abandons the generation instead of killing the process.
	ctx := cmd.Context()
	stopWatch := context.AfterFunc(ctx, sess.Abandon)
	defer stopWatch()

	progress.Start()
	err = sess.Generate(context.WithoutCancel(ctx))
	switch {
	case errors.Is(err, session.ErrAbandoned):
		entry.Outcome = storage.OutcomeAbandoned
		progress.Stop()
		terminal.Warning("Generation cancelled.")
		return nil
	case errors.Is(err, session.ErrDescriptionTooShort):
		progress.Stop()
		return err
	case err != nil:
		entry.Error = err.Error()
		entry.Bytes = len(sess.Snapshot().Content)
		progress.StopWithError("Generation failed")
		if partial := sess.Snapshot().Content; partial != "" {
			terminal.Info("Partial output follows so it can be copied.")
			fmt.Print(partial)
		}
		return err
	}

	entry.Bytes = len(sess.Snapshot().Content)
	progress.SetPhase(terminal.PhaseVerifying)
	err = sess.ContinueToPreview(context.WithoutCancel(ctx))
	if errors.Is(err, session.ErrAbandoned) {
		entry.Outcome = storage.OutcomeAbandoned
		progress.Stop()
		terminal.Warning("Verification cancelled.")
		return nil
	}
	if err != nil {
		entry.Error = err.Error()
		progress.StopWithError("Could not parse the generated document")
		fmt.Print(sess.Snapshot().Content)
		return err
	}
	progress.Stop()

	snap := sess.Snapshot()
	if genFix && len(snap.Fixes) > 0 {
		if err := sess.ApplyFixes(ctx, snap.Fixes); err != nil {
			return err
		}
		for _, f := range snap.Fixes {
			terminal.Info(fmt.Sprintf("Fixed %s: %q -> %q", f.Field, f.Original, f.Fixed))
		}
		fixed, err := fixDocument(snap.Content, snap.Fixes)
		if err != nil {
			return err
		}
		snap = sess.Snapshot()
		snap.Content = fixed
	}

	entry.Outcome = storage.OutcomeRejected
	if snap.Result.Passed {
		entry.Outcome = storage.OutcomePreviewed
	}
	entry.Slug = snap.Record.Common().Slug
	entry.Score = snap.Result.Score
	if err := emitDocument(snap.Content); err != nil {
		return err
	}
	printVerification(snap.Record, *snap.Result, snap.Fixes)

	if !genSave {
		return nil
	}
	if !snap.CanSave {
		return fmt.Errorf("not saved: %w (score %d)", session.ErrNotVerified, snap.Result.Score)
	}
	spinner := terminal.NewSpinner("Saving...")
	spinner.Start()
	id, err := sess.Save(ctx)
	spinner.Stop()
	if err != nil {
		entry.Error = err.Error()
		if errors.Is(err, storage.ErrDuplicateSlug) {
			terminal.Info("Write the document with -o, change its slug and save it with `toolfactory tools add`.")
		}
		return err
	}
	entry.Outcome, entry.ToolID = storage.OutcomeSaved, id
	terminal.Success(fmt.Sprintf("Saved %s as %s", snap.Record.Common().Slug, id))
	return nil
}

// emitDocument writes the generated document to --output or stdout.
func emitDocument(content string) error {
	if genOutput != "" {
		if err := os.WriteFile(genOutput, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", genOutput, err)
		}
		terminal.Success("Wrote " + genOutput)
		return nil
	}
	fmt.Print(terminal.RenderMarkdown(content))
	return nil
}

// recordAttempt appends to the local generation history. Failures only
// reach the debug log.
func recordAttempt(e storage.HistoryEntry) {
	if err := storage.NewHistoryStore(cfg.Dir).Append(e); err != nil {
		logger.Debug("history not recorded", zap.Error(err))
	}
}

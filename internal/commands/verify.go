package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moasq/toolfactory/internal/parser"
	"github.com/moasq/toolfactory/internal/terminal"
	"github.com/moasq/toolfactory/internal/tool"
	"github.com/moasq/toolfactory/internal/verify"
	"github.com/moasq/toolfactory/internal/watch"
)

var (
	verifyType  string
	verifyFix   bool
	verifyWatch bool
	verifyJSON  bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <file>...",
	Short: "Score tool documents against the verification rules",
	Long: `Parses each document (frontmatter plus Markdown), runs the format, quality
and type-specific checks and prints the weighted score. A document passes
at 70 or above with no format issues. Use "-" to read from stdin.`,
	Example: `  toolfactory verify SKILL.md
  toolfactory verify --fix .claude/agents/*.md
  toolfactory verify --watch --type command deploy.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	f := verifyCmd.Flags()
	f.StringVarP(&verifyType, "type", "t", "", "Tool type (detected from the frontmatter when empty)")
	f.BoolVar(&verifyFix, "fix", false, "Apply auto-fixes and rewrite the file")
	f.BoolVarP(&verifyWatch, "watch", "w", false, "Re-verify whenever a file changes")
	f.BoolVar(&verifyJSON, "json", false, "Print results as JSON")
}

// fileReport is the --json shape for one document.
type fileReport struct {
	Path     string         `json:"path"`
	ToolType tool.Kind      `json:"toolType,omitempty"`
	Slug     string         `json:"slug,omitempty"`
	Result   *verify.Result `json:"result,omitempty"`
	Fixes    []verify.Fix   `json:"fixes,omitempty"`
	Fixed    bool           `json:"fixed,omitempty"`
	Error    string         `json:"error,omitempty"`

	tool tool.Tool
}

func (r fileReport) passed() bool {
	return r.Error == "" && r.Result != nil && r.Result.Passed
}

func runVerify(cmd *cobra.Command, args []string) error {
	kind, err := parseKindFlag(verifyType)
	if err != nil {
		return err
	}
	if verifyWatch && slices.Contains(args, "-") {
		return errors.New("--watch cannot read from stdin")
	}
	ctx := cmd.Context()
	v := newVerifier()

	var reports []fileReport
	for _, path := range args {
		r := verifyFile(ctx, v, kind, path)
		reports = append(reports, r)
		emitReport(r)
	}
	if verifyJSON && !verifyWatch {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	}

	if verifyWatch {
		terminal.Info("Watching for changes (Ctrl+C to stop)...")
		w := &watch.Watcher{Logger: logger}
		return w.Run(ctx, args, func(path string) {
			emitReport(verifyFile(ctx, v, kind, path))
		})
	}

	failed := 0
	for _, r := range reports {
		if !r.passed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed verification", failed, len(reports))
	}
	return nil
}

func verifyFile(ctx context.Context, v *verify.Verifier, kind tool.Kind, path string) fileReport {
	report := fileReport{Path: path}
	t, raw, err := loadTool(path, kind)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	fixes := verify.AutoFix(t)
	if verifyFix && len(fixes) > 0 {
		fixed, err := applyFileFixes(path, raw, fixes)
		if err != nil {
			report.Error = err.Error()
			return report
		}
		if t, err = parser.ParseDetect(kind, fixed); err != nil {
			report.Error = fmt.Sprintf("%s: %v", path, err)
			return report
		}
		report.Fixed = true
		logger.Debug("applied fixes", zap.String("path", path), zap.Int("count", len(fixes)))
		fixes = verify.AutoFix(t)
	}

	res := v.Verify(ctx, t)
	report.tool = t
	report.ToolType = t.Kind()
	report.Slug = t.Common().Slug
	report.Result = &res
	report.Fixes = fixes
	return report
}

// applyFileFixes rewrites path in place, or prints the fixed document when
// it came from stdin.
func applyFileFixes(path, raw string, fixes []verify.Fix) (string, error) {
	fixed, err := fixDocument(raw, fixes)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if path == "-" {
		fmt.Print(fixed)
		return fixed, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(fixed), info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return fixed, nil
}

// emitReport prints a human report, or one JSON line per change in watch
// mode.
func emitReport(r fileReport) {
	if verifyJSON {
		if verifyWatch {
			data, _ := json.Marshal(r)
			fmt.Println(string(data))
		}
		return
	}
	if r.Error != "" {
		terminal.Error(r.Error)
		return
	}
	if r.Fixed {
		terminal.Success("Applied fixes to " + r.Path)
	}
	printVerification(r.tool, *r.Result, r.Fixes)
}

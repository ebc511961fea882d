package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/moasq/toolfactory/internal/generation"
	"github.com/moasq/toolfactory/internal/llm"
	"github.com/moasq/toolfactory/internal/parser"
	"github.com/moasq/toolfactory/internal/secrets"
	"github.com/moasq/toolfactory/internal/storage"
	"github.com/moasq/toolfactory/internal/terminal"
	"github.com/moasq/toolfactory/internal/tool"
	"github.com/moasq/toolfactory/internal/verify"
)

func secretStore() secrets.Store {
	return secrets.New(cfg.Dir)
}

// newModel returns the configured model backend.
func newModel() (llm.Streamer, error) {
	lc, err := cfg.LLM(secretStore())
	if err != nil {
		return nil, err
	}
	return llm.New(lc)
}

// newGenerator streams from the remote endpoint when one is configured and
// from the local model otherwise.
func newGenerator() (generation.Generator, error) {
	if cfg.Endpoint != "" {
		return generation.NewHTTPClient(cfg.Endpoint, generation.WithLogger(logger)), nil
	}
	model, err := newModel()
	if err != nil {
		return nil, err
	}
	return generation.NewLocal(model, logger), nil
}

// newVerifier adds model-backed review suggestions when enabled.
func newVerifier() *verify.Verifier {
	if !cfg.Review {
		return verify.New()
	}
	model, err := newModel()
	if err != nil {
		logger.Warn("self-review disabled", zap.Error(err))
		return verify.New()
	}
	return verify.New(verify.WithReviewer(verify.LLMReviewer{Completer: model}))
}

func openStore(ctx context.Context) (storage.Store, error) {
	return storage.Open(ctx, cfg.Store, cfg.StoreDSN())
}

// newSaver posts to the remote endpoint when one is configured. The
// returned close func releases a local store.
func newSaver(ctx context.Context) (storage.Saver, func(), error) {
	if cfg.Endpoint != "" {
		return storage.NewRemoteSaver(cfg.Endpoint, nil), func() {}, nil
	}
	store, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func parseKindFlag(s string) (tool.Kind, error) {
	if s == "" {
		return "", nil
	}
	return tool.ParseKind(s)
}

// readDocument reads path, or stdin for "-".
func readDocument(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func loadTool(path string, kind tool.Kind) (tool.Tool, string, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, "", err
	}
	t, err := parser.ParseDetect(kind, raw)
	if err != nil {
		return nil, raw, fmt.Errorf("%s: %w", path, err)
	}
	return t, raw, nil
}

// printVerification writes a human-readable report to the terminal.
func printVerification(t tool.Tool, res verify.Result, fixes []verify.Fix) {
	b := t.Common()
	terminal.Header(fmt.Sprintf("%s %s (%s)", t.Kind().Label(), b.Name, b.Slug))
	if res.Passed {
		terminal.Success(fmt.Sprintf("Verification passed, score %d/100", res.Score))
	} else {
		terminal.Error(fmt.Sprintf("Verification failed, score %d/100", res.Score))
	}
	checks := []struct {
		label string
		check verify.Check
	}{
		{"Format", res.Checks.Format},
		{"Quality", res.Checks.Quality},
		{"Type-specific", res.Checks.TypeSpecific},
		{"Self-review", res.Checks.AIReview},
	}
	for _, c := range checks {
		status := terminal.Green + "pass" + terminal.Reset
		if !c.check.Passed {
			status = terminal.Red + "fail" + terminal.Reset
		}
		terminal.Detail(c.label, status)
		for _, issue := range c.check.Issues {
			terminal.Bullet(issue)
		}
		for _, s := range c.check.Suggestions {
			terminal.Bullet(terminal.Dim + s + terminal.Reset)
		}
	}
	if len(fixes) > 0 {
		terminal.Info("Auto-fixes available (use --fix):")
		for _, f := range fixes {
			terminal.Bullet(fmt.Sprintf("%s: %q -> %q", f.Field, f.Original, f.Fixed))
		}
	}
}

// fixDocument rewrites raw with the accepted fixes applied to its frontmatter.
func fixDocument(raw string, fixes []verify.Fix) (string, error) {
	fields := map[string]string{}
	var order []string
	for _, f := range fixes {
		key := strings.ToLower(f.Field)
		fields[key] = f.Fixed
		order = append(order, key)
	}
	return parser.SetFields(raw, fields, order...)
}

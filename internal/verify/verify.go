// Package verify lints parsed tools before they are offered for installation
// or saving. The checks are heuristics over model output: they catch empty,
// placeholder and malformed results, they do not prove a tool correct.
package verify

import (
	"context"

	"github.com/moasq/toolfactory/internal/tool"
)

// Category weights. Each issue costs issuePenalty points within its category.
const (
	WeightFormat       = 30
	WeightQuality      = 25
	WeightTypeSpecific = 35
	WeightAIReview     = 10

	issuePenalty = 5
)

// Check is the outcome of one verification stage.
type Check struct {
	Passed      bool     `json:"passed"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func newCheck(issues []string) Check {
	if issues == nil {
		issues = []string{}
	}
	return Check{Passed: len(issues) == 0, Issues: issues}
}

// Checks groups the four stages in execution order.
type Checks struct {
	Format       Check `json:"format"`
	Quality      Check `json:"quality"`
	TypeSpecific Check `json:"typeSpecific"`
	AIReview     Check `json:"aiReview"`
}

// Result is the composite verification outcome.
type Result struct {
	Passed bool   `json:"passed"`
	Score  int    `json:"score"`
	Checks Checks `json:"checks"`
}

// Verifier runs the pipeline with an optional self-review stage.
type Verifier struct {
	reviewer Reviewer
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithReviewer replaces the default always-passing self-review.
func WithReviewer(r Reviewer) Option {
	return func(v *Verifier) {
		if r != nil {
			v.reviewer = r
		}
	}
}

// New returns a Verifier.
func New(opts ...Option) *Verifier {
	v := &Verifier{reviewer: NoopReviewer{}}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify runs every check against t. A failing reviewer only adds a
// suggestion; ctx bounds its round-trip.
func (v *Verifier) Verify(ctx context.Context, t tool.Tool) Result {
	checks := Checks{
		Format:       newCheck(formatIssues(t)),
		Quality:      newCheck(qualityIssues(t)),
		TypeSpecific: newCheck(typeSpecificIssues(t)),
		AIReview:     review(ctx, v.reviewer, t),
	}
	return Result{
		Passed: checks.Format.Passed && checks.Quality.Passed && checks.TypeSpecific.Passed,
		Score:  Score(checks),
		Checks: checks,
	}
}

// Verify runs the pipeline with the default reviewer.
func Verify(t tool.Tool) Result {
	return New().Verify(context.Background(), t)
}

// Score computes the weighted 0-100 score for checks.
func Score(c Checks) int {
	total := categoryScore(WeightFormat, len(c.Format.Issues)) +
		categoryScore(WeightQuality, len(c.Quality.Issues)) +
		categoryScore(WeightTypeSpecific, len(c.TypeSpecific.Issues)) +
		WeightAIReview
	return min(max(total, 0), 100)
}

func categoryScore(weight, issues int) int {
	return max(weight-issuePenalty*issues, 0)
}

// QuickResult is the outcome of QuickValidate.
type QuickResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// QuickValidate runs only the format check, for cheap preview-time gating.
func QuickValidate(t tool.Tool) QuickResult {
	c := newCheck(formatIssues(t))
	return QuickResult{Valid: c.Passed, Issues: c.Issues}
}

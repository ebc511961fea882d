// Package session drives one tool through generate, preview and save. It
// holds no UI; callers render Snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/moasq/toolfactory/internal/generation"
	"github.com/moasq/toolfactory/internal/parser"
	"github.com/moasq/toolfactory/internal/prompts"
	"github.com/moasq/toolfactory/internal/storage"
	"github.com/moasq/toolfactory/internal/tool"
	"github.com/moasq/toolfactory/internal/verify"
)

// State is the top-level step of the flow.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StatePreview    State = "preview"
	StateSaving     State = "saving"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// ErrorKind tells UIs which failure they are showing.
type ErrorKind string

const (
	ErrorGeneration ErrorKind = "generation"
	ErrorParse      ErrorKind = "parse"
	ErrorSave       ErrorKind = "save"
)

var (
	ErrNotAllowed          = errors.New("action not allowed in current state")
	ErrDescriptionTooShort = fmt.Errorf("description must be at least %d characters", prompts.MinDescriptionLength)
	ErrNotVerified         = errors.New("tool did not pass verification")
	ErrAbandoned           = errors.New("generation abandoned")
)

// Session is safe for concurrent use. Long operations release the lock while
// they wait, so Abandon can interrupt a stream.
type Session struct {
	mu       sync.Mutex
	gen      generation.Generator
	saver    storage.Saver
	verifier *verify.Verifier
	logger   *zap.Logger
	listener func(Snapshot)

	state       State
	kind        tool.Kind
	description string
	hints       prompts.Hints

	epoch  uint64
	acc    *generation.Accumulator
	cancel context.CancelFunc

	record    tool.Tool
	result    *verify.Result
	toolID    string
	verifying bool

	errKind ErrorKind
	errMsg  string
}

// Option configures a Session.
type Option func(*Session)

func WithVerifier(v *verify.Verifier) Option { return func(s *Session) { s.verifier = v } }
func WithLogger(l *zap.Logger) Option        { return func(s *Session) { s.logger = l } }

// WithKind sets the initial tool kind (default skill).
func WithKind(k tool.Kind) Option { return func(s *Session) { s.kind = k } }

// WithListener registers a callback invoked after every change, outside the
// session lock.
func WithListener(fn func(Snapshot)) Option { return func(s *Session) { s.listener = fn } }

// New returns an idle session.
func New(gen generation.Generator, saver storage.Saver, opts ...Option) *Session {
	s := &Session{
		gen:      gen,
		saver:    saver,
		verifier: verify.New(),
		logger:   zap.NewNop(),
		state:    StateIdle,
		kind:     tool.KindSkill,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func editable(st State) bool { return st == StateIdle || st == StateError }

// SetDescription replaces the description (idle or error only).
func (s *Session) SetDescription(d string) error {
	s.mu.Lock()
	if !editable(s.state) {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	s.description = d
	return s.unlockAndNotify()
}

// SetHints replaces the optional hints (idle or error only).
func (s *Session) SetHints(h prompts.Hints) error {
	s.mu.Lock()
	if !editable(s.state) {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	s.hints = h
	return s.unlockAndNotify()
}

// SwitchKind changes the tool kind. From error it also returns to idle.
func (s *Session) SwitchKind(k tool.Kind) error {
	if _, err := tool.ParseKind(string(k)); err != nil {
		return err
	}
	s.mu.Lock()
	if !editable(s.state) {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	s.kind = k
	if s.state == StateError {
		s.toIdleLocked()
	}
	return s.unlockAndNotify()
}

func (s *Session) CanSwitchKind() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return editable(s.state)
}

func (s *Session) CanGenerate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canGenerateLocked()
}

func (s *Session) canGenerateLocked() bool {
	return s.state == StateIdle && descriptionLongEnough(s.description)
}

func descriptionLongEnough(d string) bool {
	return len([]rune(strings.TrimSpace(d))) >= prompts.MinDescriptionLength
}

// Generate streams a new generation. It blocks until the stream ends and
// leaves the session in generating (complete) or error.
func (s *Session) Generate(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	if !descriptionLongEnough(s.description) {
		s.mu.Unlock()
		return ErrDescriptionTooShort
	}

	s.epoch++
	epoch := s.epoch
	acc := generation.NewAccumulator(epoch)
	ctx, cancel := context.WithCancel(ctx)
	s.acc, s.cancel = acc, cancel
	s.record, s.result, s.toolID = nil, nil, ""
	s.state = StateGenerating
	req := generation.NewRequest(s.kind, s.description, s.hints)
	_ = s.unlockAndNotify()

	err := s.gen.Stream(ctx, req, func(chunk string) {
		if acc.Append(chunk) {
			s.notify()
		}
	})
	cancel()

	s.mu.Lock()
	if s.epoch != epoch || acc.Invalidated() {
		s.mu.Unlock()
		return ErrAbandoned
	}
	s.cancel = nil
	if err != nil {
		acc.Invalidate()
		s.failLocked(ErrorGeneration, err)
		s.logger.Warn("generation failed", zap.String("kind", string(req.ToolType)), zap.Error(err))
		_ = s.unlockAndNotify()
		return err
	}
	acc.Complete()
	s.logger.Debug("generation complete", zap.String("kind", string(req.ToolType)), zap.Int("bytes", acc.Len()))
	return s.unlockAndNotify()
}

// Abandon drops the in-flight generation and returns to idle. Late chunks
// from the old stream are discarded.
func (s *Session) Abandon() {
	s.mu.Lock()
	if s.state != StateGenerating {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.acc != nil {
		s.acc.Invalidate()
	}
	s.epoch++
	s.toIdleLocked()
	_ = s.unlockAndNotify()
}

// ContinueToPreview parses and verifies the completed generation. The lock
// is released while verifying so a model-backed reviewer cannot stall
// Snapshot; Abandon during verification cancels ctx and yields ErrAbandoned.
func (s *Session) ContinueToPreview(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateGenerating || s.acc == nil || !s.acc.IsComplete() || s.verifying {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	epoch, kind, text := s.epoch, s.kind, s.acc.String()
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.verifying = true
	_ = s.unlockAndNotify()
	defer cancel()

	rec, perr := parser.Parse(kind, text)
	var res verify.Result
	if perr == nil {
		res = s.verifier.Verify(ctx, rec)
	}

	s.mu.Lock()
	s.verifying = false
	if s.epoch != epoch || s.state != StateGenerating {
		s.mu.Unlock()
		return ErrAbandoned
	}
	s.cancel = nil
	if perr != nil {
		s.failLocked(ErrorParse, perr)
		_ = s.unlockAndNotify()
		return perr
	}
	s.record, s.result = rec, &res
	s.state = StatePreview
	s.logger.Debug("tool verified", zap.String("slug", rec.Common().Slug), zap.Int("score", res.Score), zap.Bool("passed", res.Passed))
	return s.unlockAndNotify()
}

// ApplyFixes replaces the previewed record with a fixed copy and re-verifies
// it outside the lock. If the preview was left meanwhile the result is
// dropped and ErrAbandoned returned.
func (s *Session) ApplyFixes(ctx context.Context, fixes []verify.Fix) error {
	s.mu.Lock()
	if s.state != StatePreview || s.record == nil || s.verifying {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	orig, epoch := s.record, s.epoch
	s.verifying = true
	_ = s.unlockAndNotify()

	fixed, err := verify.ApplyFixes(orig, fixes)
	var res verify.Result
	if err == nil {
		res = s.verifier.Verify(ctx, fixed)
	}

	s.mu.Lock()
	s.verifying = false
	if err != nil {
		_ = s.unlockAndNotify()
		return err
	}
	if s.epoch != epoch || s.state != StatePreview || s.record != orig {
		_ = s.unlockAndNotify()
		return ErrAbandoned
	}
	s.record, s.result = fixed, &res
	return s.unlockAndNotify()
}

// Back discards the preview (or a failed save) and returns to idle,
// keeping kind and description.
func (s *Session) Back() error {
	s.mu.Lock()
	if s.state != StatePreview && !(s.state == StateError && s.errKind == ErrorSave) {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	s.toIdleLocked()
	return s.unlockAndNotify()
}

// Save persists the previewed record. A failed save keeps the record so the
// caller can retry.
func (s *Session) Save(ctx context.Context) (string, error) {
	s.mu.Lock()
	retry := s.state == StateError && s.errKind == ErrorSave
	if (s.state != StatePreview && !retry) || s.verifying {
		s.mu.Unlock()
		return "", ErrNotAllowed
	}
	if s.record == nil || s.result == nil || !s.result.Passed {
		s.mu.Unlock()
		return "", ErrNotVerified
	}
	if s.saver == nil {
		s.mu.Unlock()
		return "", fmt.Errorf("no save backend configured")
	}
	rec := s.record
	s.state = StateSaving
	s.errKind, s.errMsg = "", ""
	_ = s.unlockAndNotify()

	id, err := s.saver.Save(ctx, rec)

	s.mu.Lock()
	if err != nil {
		s.failLocked(ErrorSave, err)
		s.logger.Warn("save failed", zap.String("slug", rec.Common().Slug), zap.Error(err))
		_ = s.unlockAndNotify()
		return "", err
	}
	s.toolID = id
	s.state = StateSuccess
	s.logger.Info("tool saved", zap.String("id", id), zap.String("slug", rec.Common().Slug))
	return id, s.unlockAndNotify()
}

// Reset returns from error or success to idle.
func (s *Session) Reset() error {
	s.mu.Lock()
	if s.state != StateError && s.state != StateSuccess {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	s.toIdleLocked()
	return s.unlockAndNotify()
}

func (s *Session) toIdleLocked() {
	s.state = StateIdle
	s.acc, s.cancel = nil, nil
	s.record, s.result, s.toolID = nil, nil, ""
	s.errKind, s.errMsg = "", ""
}

func (s *Session) failLocked(kind ErrorKind, err error) {
	s.state = StateError
	s.errKind = kind
	s.errMsg = err.Error()
}

func (s *Session) unlockAndNotify() error {
	var snap Snapshot
	if s.listener != nil {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()
	if s.listener != nil {
		s.listener(snap)
	}
	return nil
}

func (s *Session) notify() {
	if s.listener == nil {
		return
	}
	s.listener(s.Snapshot())
}

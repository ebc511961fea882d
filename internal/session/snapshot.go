package session

import (
	"github.com/moasq/toolfactory/internal/prompts"
	"github.com/moasq/toolfactory/internal/tool"
	"github.com/moasq/toolfactory/internal/verify"
)

// Snapshot is a read-only view of a session. Record is shared with the
// session and must not be modified.
type Snapshot struct {
	State       State
	Kind        tool.Kind
	Description string
	Hints       prompts.Hints
	Epoch       uint64

	Content   string
	Complete  bool
	Verifying bool

	Record tool.Tool
	Result *verify.Result
	Fixes  []verify.Fix
	ToolID string

	ErrorKind ErrorKind
	Error     string

	CanGenerate   bool
	CanSwitchKind bool
	CanCopy       bool
	CanContinue   bool
	CanSave       bool
}

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:         s.state,
		Kind:          s.kind,
		Description:   s.description,
		Hints:         s.hints,
		Epoch:         s.epoch,
		Record:        s.record,
		ToolID:        s.toolID,
		Verifying:     s.verifying,
		ErrorKind:     s.errKind,
		Error:         s.errMsg,
		CanGenerate:   s.canGenerateLocked(),
		CanSwitchKind: editable(s.state),
	}
	if s.acc != nil {
		snap.Content = s.acc.String()
		snap.Complete = s.acc.IsComplete()
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	if s.record != nil {
		snap.Fixes = verify.AutoFix(s.record)
	}
	snap.CanCopy = snap.Content != "" && (snap.Complete || s.state == StateError)
	snap.CanContinue = s.state == StateGenerating && snap.Complete && !s.verifying
	retry := s.state == StateError && s.errKind == ErrorSave
	snap.CanSave = (s.state == StatePreview || retry) && !s.verifying && s.result != nil && s.result.Passed
	return snap
}

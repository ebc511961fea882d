package generation

import (
	"strings"
	"sync"
)

// Accumulator collects the text of one generation epoch. Content only grows;
// once invalidated or completed, further appends are dropped.
type Accumulator struct {
	mu          sync.Mutex
	epoch       uint64
	sb          strings.Builder
	invalidated bool
	complete    bool
}

// NewAccumulator returns an empty accumulator for epoch.
func NewAccumulator(epoch uint64) *Accumulator {
	return &Accumulator{epoch: epoch}
}

// Epoch returns the generation epoch the accumulator belongs to.
func (a *Accumulator) Epoch() uint64 { return a.epoch }

// Append adds s and reports whether it was kept.
func (a *Accumulator) Append(s string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.invalidated || a.complete {
		return false
	}
	a.sb.WriteString(s)
	return true
}

// Invalidate detaches the accumulator from its stream.
func (a *Accumulator) Invalidate() {
	a.mu.Lock()
	a.invalidated = true
	a.mu.Unlock()
}

// Complete freezes the content.
func (a *Accumulator) Complete() {
	a.mu.Lock()
	a.complete = true
	a.mu.Unlock()
}

func (a *Accumulator) IsComplete() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.complete
}

func (a *Accumulator) Invalidated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.invalidated
}

// String returns the content so far.
func (a *Accumulator) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sb.String()
}

// Len returns the content length in bytes.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sb.Len()
}

package terminal

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Phase is a step of the generate pipeline.
type Phase int

const (
	PhaseGenerating Phase = iota
	PhaseParsing
	PhaseVerifying
	PhaseSaving
)

func (p Phase) label() string {
	switch p {
	case PhaseGenerating:
		return "Generating"
	case PhaseParsing:
		return "Parsing"
	case PhaseVerifying:
		return "Verifying"
	case PhaseSaving:
		return "Saving"
	}
	return ""
}

const maxStatusWidth = 60

// ProgressDisplay renders a one-line live status for a streaming
// generation: phase, bytes received, elapsed time and the latest line.
type ProgressDisplay struct {
	mu          sync.Mutex
	subject     string
	phase       Phase
	bytes       int
	tail        string
	statusText  string
	startedAt   time.Time
	interactive bool
	running     bool
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewProgressDisplay returns a display for subject, e.g. "MCP server".
func NewProgressDisplay(subject string) *ProgressDisplay {
	return &ProgressDisplay{
		subject:     subject,
		startedAt:   time.Now(),
		interactive: IsTTY(os.Stderr),
		done:        make(chan struct{}),
	}
}

// Start begins rendering. Non-interactive output only logs phase changes.
func (pd *ProgressDisplay) Start() {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	if pd.running {
		return
	}
	pd.running = true
	if !pd.interactive {
		fmt.Fprintf(Out, "%s %s...\n", pd.phase.label(), pd.subject)
		return
	}
	pd.wg.Add(1)
	go pd.renderLoop()
}

// Stop halts rendering and clears the status line.
func (pd *ProgressDisplay) Stop() {
	pd.mu.Lock()
	if !pd.running {
		pd.mu.Unlock()
		return
	}
	pd.running = false
	interactive := pd.interactive
	pd.mu.Unlock()

	if interactive {
		close(pd.done)
		pd.wg.Wait()
		fmt.Fprint(Out, "\r\033[K")
	}
}

func (pd *ProgressDisplay) StopWithSuccess(msg string) {
	pd.Stop()
	Success(msg)
}

func (pd *ProgressDisplay) StopWithError(msg string) {
	pd.Stop()
	Error(msg)
}

// SetPhase moves to the next pipeline step.
func (pd *ProgressDisplay) SetPhase(phase Phase) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	if pd.phase == phase {
		return
	}
	pd.phase = phase
	if pd.running && !pd.interactive {
		fmt.Fprintf(Out, "%s %s...\n", phase.label(), pd.subject)
	}
}

// OnChunk records streamed text.
func (pd *ProgressDisplay) OnChunk(chunk string) {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.bytes += len(chunk)
	// A bounded tail is enough to find the latest complete line.
	pd.tail = tailRunes(pd.tail+chunk, 4*maxStatusWidth)
	if line := extractLastLine(pd.tail); line != "" {
		pd.statusText = line
	}
}

func (pd *ProgressDisplay) renderLoop() {
	defer pd.wg.Done()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for frame := 0; ; frame++ {
		fmt.Fprintf(Out, "\r\033[K%s", pd.line(spinnerFrames[frame%len(spinnerFrames)]))
		select {
		case <-pd.done:
			return
		case <-ticker.C:
		}
	}
}

func (pd *ProgressDisplay) line(spin string) string {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	header := fmt.Sprintf("%s%s%s %s %s %s· %s · %s%s",
		Cyan, spin, Reset, pd.phase.label(), pd.subject,
		Dim, formatBytes(pd.bytes), formatElapsed(time.Since(pd.startedAt)), Reset)
	if pd.statusText == "" {
		return header
	}
	return header + "  " + Dim + pd.statusText + Reset
}

// formatElapsed formats a duration as a compact time string.
func formatElapsed(d time.Duration) string {
	s := int(d.Seconds())
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%dm%02ds", s/60, s%60)
}

func formatBytes(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}

func tailRunes(s string, max int) string {
	if max <= 0 || s == "" {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[len(r)-max:])
}

func truncateWithEllipsis(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// extractLastLine returns the last meaningful complete line of streamed
// text, skipping frontmatter delimiters, fences and list punctuation.
func extractLastLine(text string) string {
	end := strings.LastIndexByte(text, '\n')
	if end < 0 {
		return ""
	}
	lines := strings.Split(text[:end], "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || line == "---" || strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.TrimLeft(line, "#-*> ")
		if line == "" {
			continue
		}
		return truncateWithEllipsis(line, maxStatusWidth)
	}
	return ""
}

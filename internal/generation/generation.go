// Package generation streams generated tool content from a model, either
// through the remote generate endpoint or in-process.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/moasq/toolfactory/internal/prompts"
	"github.com/moasq/toolfactory/internal/tool"
)

// Request is the generate endpoint body.
type Request struct {
	ToolType    tool.Kind `json:"toolType"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	Complexity  string    `json:"complexity,omitempty"`
	Persona     string    `json:"persona,omitempty"`
	Transport   string    `json:"transport,omitempty"`
	Language    string    `json:"language,omitempty"`
}

// NewRequest packages a kind, description and hints.
func NewRequest(kind tool.Kind, description string, h prompts.Hints) Request {
	return Request{
		ToolType:    kind,
		Description: description,
		Category:    h.Category,
		Complexity:  h.Complexity,
		Persona:     h.Persona,
		Transport:   h.Transport,
		Language:    h.Language,
	}
}

// Hints returns the optional prompt hints carried by r.
func (r Request) Hints() prompts.Hints {
	return prompts.Hints{
		Category:   r.Category,
		Complexity: r.Complexity,
		Persona:    r.Persona,
		Transport:  r.Transport,
		Language:   r.Language,
	}
}

// ErrInvalidRequest is wrapped by Validate failures.
var ErrInvalidRequest = errors.New("invalid generation request")

// Validate checks the kind and the minimum description length.
func (r Request) Validate() error {
	if _, err := tool.ParseKind(string(r.ToolType)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if n := len([]rune(strings.TrimSpace(r.Description))); n < prompts.MinDescriptionLength {
		return fmt.Errorf("%w: description must be at least %d characters (got %d)",
			ErrInvalidRequest, prompts.MinDescriptionLength, n)
	}
	return nil
}

// Generator streams generated text. onChunk is called sequentially, in
// arrival order, from the calling goroutine.
type Generator interface {
	Stream(ctx context.Context, req Request, onChunk func(string)) error
}

// Error is a generation transport failure.
type Error struct {
	Kind    tool.Kind
	Status  int // HTTP status, 0 when the failure was not an HTTP response
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("Failed to generate %s: %s", e.Kind.Label(), e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

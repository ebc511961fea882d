package generation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/moasq/toolfactory/internal/llm"
	"github.com/moasq/toolfactory/internal/prompts"
)

// Local builds the prompts and streams from a model in-process.
type Local struct {
	model  llm.Streamer
	logger *zap.Logger
}

// NewLocal returns a Generator backed by model.
func NewLocal(model llm.Streamer, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{model: model, logger: logger}
}

func (l *Local) Stream(ctx context.Context, req Request, onChunk func(string)) error {
	if err := req.Validate(); err != nil {
		return err
	}
	p, err := prompts.Build(req.ToolType, req.Description, req.Hints())
	if err != nil {
		return err
	}

	start := time.Now()
	n := 0
	err = l.model.Stream(ctx, p.System, p.User, func(delta string) error {
		n += len(delta)
		onChunk(delta)
		return nil
	})
	l.logger.Debug("local generation finished",
		zap.String("kind", string(req.ToolType)),
		zap.Int("bytes", n),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Kind: req.ToolType, Message: err.Error(), Err: err}
	}
	return nil
}

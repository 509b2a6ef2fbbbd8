package media

import (
	"context"
	"log/slog"

	"github.com/vmonin/semknow/internal/engerr"
)

// ProcessingStep is a pure function of MediaContext modulo explicit side
// effects via ctx.Services; it must never mutate the context it is given.
type ProcessingStep interface {
	// Name is a unique, lowercase step identifier used in error wrapping
	// and logging.
	Name() string
	Process(ctx context.Context, mc MediaContext) (MediaContext, error)
	// ShouldRun decides whether this step applies to mc; a step with no
	// conditional gate can embed AlwaysRuns.
	ShouldRun(mc MediaContext) bool
	// IsOptional reports whether a failure here is logged and swallowed
	// (true) or aborts the pipeline wrapped in engerr.ProcessingStepErr
	// (false).
	IsOptional() bool
}

// AlwaysRuns is embedded by steps with no conditional gate.
type AlwaysRuns struct{}

// ShouldRun always reports true.
func (AlwaysRuns) ShouldRun(MediaContext) bool { return true }

// MediaPipeline executes an ordered list of ProcessingSteps over one
// MediaContext.
type MediaPipeline struct {
	Steps []ProcessingStep
}

// New returns a pipeline running steps in the given order.
func New(steps ...ProcessingStep) *MediaPipeline {
	return &MediaPipeline{Steps: steps}
}

// Run executes every step in order, returning the final context. A failing
// optional step is logged via slog.Warn and skipped; a failing non-optional
// step aborts the pipeline with an *engerr.EngineError.
func (p *MediaPipeline) Run(ctx context.Context, mc MediaContext) (MediaContext, error) {
	for _, step := range p.Steps {
		if !step.ShouldRun(mc) {
			continue
		}
		next, err := step.Process(ctx, mc)
		if err != nil {
			if step.IsOptional() {
				slog.Warn("optional media pipeline step failed, continuing",
					slog.String("step", step.Name()),
					slog.String("error", err.Error()))
				continue
			}
			return mc, engerr.ProcessingStepErr(step.Name(), err)
		}
		mc = next
	}
	return mc, nil
}

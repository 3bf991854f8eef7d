package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"supplyline/internal/llm"
	"supplyline/internal/model"
)

// Env carries everything an execution needs besides the pipeline
// itself: the aggregate snapshot serving as prompt context, the skill
// document appended to every system prompt, the provider credential
// and the model-call collaborator. OnTransition, when set, observes
// every step state change so callers can persist progress.
type Env struct {
	Snapshot     model.Snapshot
	SkillDoc     string
	Credential   string
	Caller       llm.Caller
	OnTransition func(index int, step model.Step)
}

func (e Env) notify(i int, s model.Step) {
	if e.OnTransition != nil {
		e.OnTransition(i, s)
	}
}

// RunStep executes the step at index i and returns a new pipeline
// value with exactly that step replaced; the input pipeline is never
// mutated. The step goes running before the provider call is issued,
// then completed with its output, or failed when the call errors.
// There is no retry and no rollback: a failure stays visible.
func RunStep(ctx context.Context, p model.Pipeline, i int, env Env) (model.Pipeline, error) {
	if i < 0 || i >= len(p.Steps) {
		return p, fmt.Errorf("agent: step index %d out of range", i)
	}

	step := p.Steps[i]
	previous := ""
	if i > 0 {
		previous = p.Steps[i-1].Output
	}

	step.Status = model.StepRunning
	p = p.WithStep(i, step)
	env.notify(i, step)

	log.Info().Str("step", step.ID).Str("model", step.Model).Msg("agent step started")

	output, err := env.Caller.Call(ctx, llm.Request{
		Credential:   env.Credential,
		Model:        step.Model,
		SystemPrompt: BuildSystemPrompt(step.SystemPrompt, env.SkillDoc),
		UserPrompt:   BuildUserPrompt(step.UserTemplate, env.Snapshot, previous),
		MaxTokens:    step.MaxTokens,
		Temperature:  p.Defaults.Temperature,
	})
	if err != nil {
		step.Status = model.StepFailed
		p = p.WithStep(i, step)
		env.notify(i, step)
		log.Warn().Str("step", step.ID).Err(err).Msg("agent step failed")
		return p, fmt.Errorf("agent: step %s: %w", step.ID, err)
	}

	step.Status = model.StepCompleted
	step.Output = output
	p = p.WithStep(i, step)
	env.notify(i, step)
	log.Info().Str("step", step.ID).Int("output_len", len(output)).Msg("agent step completed")
	return p, nil
}

// RunAll executes every step strictly in sequence; step i+1 begins
// only after step i's provider call resolved, because its prompt
// depends on that output. Cancellation is checked before each step:
// nothing new starts after the context is done, though an in-flight
// call is waited out. A failed step halts the run, leaving earlier
// outputs intact and later steps idle.
func RunAll(ctx context.Context, p model.Pipeline, env Env) (model.Pipeline, error) {
	for i := range p.Steps {
		if err := ctx.Err(); err != nil {
			log.Info().Int("next_step", i).Msg("agent run cancelled")
			return p, err
		}
		var err error
		p, err = RunStep(ctx, p, i, env)
		if err != nil {
			return p, err
		}
	}
	return p, nil
}

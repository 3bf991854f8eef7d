package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyline/internal/llm"
	"supplyline/internal/model"
)

type fakeCaller struct {
	mu      sync.Mutex
	calls   []llm.Request
	respond func(call int, req llm.Request) (string, error)
}

func (c *fakeCaller) Call(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	n := len(c.calls) - 1
	c.mu.Unlock()
	return c.respond(n, req)
}

func testPipeline() model.Pipeline {
	return model.Pipeline{
		Steps: []model.Step{
			{ID: "classify", Model: "gpt-4o-mini", SystemPrompt: "Classify.", UserTemplate: "Data: {{DATA_CONTEXT}} Prior: {{PREVIOUS_OUTPUT}}", MaxTokens: 256, Status: model.StepIdle},
			{ID: "explain", Model: "gpt-4o", SystemPrompt: "Explain.", UserTemplate: "Prior: {{PREVIOUS_OUTPUT}}", MaxTokens: 512, Status: model.StepIdle},
			{ID: "summarize", Model: "gpt-4o", SystemPrompt: "Summarize.", UserTemplate: "Prior: {{PREVIOUS_OUTPUT}}", MaxTokens: 128, Status: model.StepIdle},
		},
		Defaults: model.Defaults{Temperature: 0.3, MaxTokens: 1024},
	}
}

func testEnv(caller llm.Caller) Env {
	return Env{
		Snapshot: model.Snapshot{
			Metrics:       model.Metrics{TotalRows: 3, ParsedRows: 2, ParseFailures: 1, TotalUnits: 15, UniqueSuppliers: 1, DateStart: "20240101", DateEnd: "20240102"},
			TopCategories: []model.CategoryTotal{{Category: "Gloves", Units: 15}},
		},
		SkillDoc:   "Always answer in bullet points.",
		Credential: "test-key",
		Caller:     caller,
	}
}

func TestRunAll_AllStepsComplete(t *testing.T) {
	caller := &fakeCaller{respond: func(call int, req llm.Request) (string, error) {
		return fmt.Sprintf("output-%d", call), nil
	}}

	p, err := RunAll(context.Background(), testPipeline(), testEnv(caller))
	require.NoError(t, err)

	require.Len(t, caller.calls, 3)
	for i, step := range p.Steps {
		assert.Equal(t, model.StepCompleted, step.Status)
		assert.Equal(t, fmt.Sprintf("output-%d", i), step.Output)
	}

	// Steps ran in submission order.
	assert.Equal(t, "gpt-4o-mini", caller.calls[0].Model)
	assert.Equal(t, "gpt-4o", caller.calls[1].Model)
}

func TestRunAll_PromptWiring(t *testing.T) {
	caller := &fakeCaller{respond: func(call int, req llm.Request) (string, error) {
		return fmt.Sprintf("output-%d", call), nil
	}}

	_, err := RunAll(context.Background(), testPipeline(), testEnv(caller))
	require.NoError(t, err)

	first := caller.calls[0]
	assert.Contains(t, first.UserPrompt, "Prior: none")
	assert.Contains(t, first.UserPrompt, "Gloves: 15 units")
	assert.Contains(t, first.UserPrompt, "20240101 to 20240102")
	assert.NotContains(t, first.UserPrompt, PlaceholderDataContext)
	assert.Equal(t, "Classify.\n\nAlways answer in bullet points.", first.SystemPrompt)
	assert.Equal(t, "test-key", first.Credential)
	assert.Equal(t, 256, first.MaxTokens)
	assert.Equal(t, 0.3, first.Temperature)

	second := caller.calls[1]
	assert.Contains(t, second.UserPrompt, "Prior: output-0")
}

func TestRunAll_FailureHaltsRun(t *testing.T) {
	provErr := &llm.ProviderError{Provider: "test", Err: errors.New("quota exceeded")}
	caller := &fakeCaller{respond: func(call int, req llm.Request) (string, error) {
		if call == 1 {
			return "", provErr
		}
		return fmt.Sprintf("output-%d", call), nil
	}}

	p, err := RunAll(context.Background(), testPipeline(), testEnv(caller))
	require.Error(t, err)
	assert.True(t, llm.IsProviderError(err))

	// Earlier output intact, the failed step marked, later steps untouched.
	assert.Equal(t, model.StepCompleted, p.Steps[0].Status)
	assert.Equal(t, "output-0", p.Steps[0].Output)
	assert.Equal(t, model.StepFailed, p.Steps[1].Status)
	assert.Empty(t, p.Steps[1].Output)
	assert.Equal(t, model.StepIdle, p.Steps[2].Status)
	assert.Len(t, caller.calls, 2)
}

func TestRunAll_CancellationBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	caller := &fakeCaller{respond: func(call int, req llm.Request) (string, error) {
		// Cancel while the first call is in flight; its result still lands.
		cancel()
		return "output-0", nil
	}}

	p, err := RunAll(ctx, testPipeline(), testEnv(caller))
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, model.StepCompleted, p.Steps[0].Status)
	assert.Equal(t, model.StepIdle, p.Steps[1].Status)
	assert.Equal(t, model.StepIdle, p.Steps[2].Status)
	assert.Len(t, caller.calls, 1)
}

func TestRunAll_InputPipelineUntouched(t *testing.T) {
	caller := &fakeCaller{respond: func(call int, req llm.Request) (string, error) {
		return "done", nil
	}}

	original := testPipeline()
	_, err := RunAll(context.Background(), original, testEnv(caller))
	require.NoError(t, err)

	for _, step := range original.Steps {
		assert.Equal(t, model.StepIdle, step.Status)
		assert.Empty(t, step.Output)
	}
}

func TestRunStep_OutOfRange(t *testing.T) {
	caller := &fakeCaller{respond: func(int, llm.Request) (string, error) { return "", nil }}
	_, err := RunStep(context.Background(), testPipeline(), 7, testEnv(caller))
	assert.Error(t, err)
}

func TestRunStep_TransitionsObserved(t *testing.T) {
	caller := &fakeCaller{respond: func(int, llm.Request) (string, error) { return "done", nil }}
	env := testEnv(caller)

	var seen []model.StepStatus
	env.OnTransition = func(i int, step model.Step) {
		seen = append(seen, step.Status)
	}

	_, err := RunStep(context.Background(), testPipeline(), 0, env)
	require.NoError(t, err)
	assert.Equal(t, []model.StepStatus{model.StepRunning, model.StepCompleted}, seen)
}

func TestRunStep_UsesPreviousOutput(t *testing.T) {
	caller := &fakeCaller{respond: func(call int, req llm.Request) (string, error) {
		return "ok", nil
	}}

	p := testPipeline()
	p.Steps[0].Status = model.StepCompleted
	p.Steps[0].Output = "earlier finding"

	_, err := RunStep(context.Background(), p, 1, testEnv(caller))
	require.NoError(t, err)

	require.Len(t, caller.calls, 1)
	assert.True(t, strings.Contains(caller.calls[0].UserPrompt, "earlier finding"))
}

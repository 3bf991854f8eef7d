package model

// StepStatus tracks where a step is in its run lifecycle
type StepStatus string

const (
	StepIdle      StepStatus = "idle"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// Step is one agent definition plus its run-time state. Status and
// Output are owned exclusively by the execution engine; every other
// field comes from the configuration text.
type Step struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Provider     string     `json:"provider"`
	Model        string     `json:"model"`
	SystemPrompt string     `json:"system_prompt"`
	UserTemplate string     `json:"user_prompt_template"`
	MaxTokens    int        `json:"max_tokens"`
	Status       StepStatus `json:"status"`
	Output       string     `json:"output"`
}

// Defaults is the shared defaults block of an agents configuration,
// applied when a step omits the corresponding field.
type Defaults struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Pipeline is an ordered sequence of agent steps plus shared defaults.
// Reconstructed wholesale whenever the configuration text changes;
// rebuilding discards all execution progress by contract.
type Pipeline struct {
	Steps    []Step   `json:"steps"`
	Defaults Defaults `json:"defaults"`
}

// WithStep returns a copy of the pipeline with the step at index i
// replaced. The receiver is left untouched so readers holding the old
// value never observe a half-applied transition.
func (p Pipeline) WithStep(i int, s Step) Pipeline {
	steps := make([]Step, len(p.Steps))
	copy(steps, p.Steps)
	steps[i] = s
	p.Steps = steps
	return p
}

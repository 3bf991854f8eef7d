// Package agent holds the declarative agent-pipeline engine: a
// line-oriented configuration parser that builds a typed Pipeline and
// a sequential execution engine that runs its steps against a model
// provider.
package agent

import (
	"errors"
	"strconv"
	"strings"

	"supplyline/internal/model"
	"supplyline/pkg/utils"
)

// ErrInvalidConfig is returned when the configuration text carries no
// top-level "agents" section. Anything else the parser does not
// recognize is ignored, per the config dialect contract.
var ErrInvalidConfig = errors.New("agent: configuration has no agents section")

// ParseConfig extracts an ordered pipeline definition from the
// constrained configuration dialect:
//
//	agents:
//	  - id: classify
//	    name: "Classifier"
//	    provider: openai
//	    model: gpt-4o-mini
//	    system_prompt: "You are ..."
//	    user_prompt_template: "Data: {{DATA_CONTEXT}} Prior: {{PREVIOUS_OUTPUT}}"
//	    max_tokens: 512
//	defaults:
//	  temperature: 0.4
//	  max_tokens: 1024
//
// A step opens at an "id" line and closes at the next "id" line or end
// of input; keyed lines before the first "id" are dropped, so a block
// without an id is never emitted. Values lose surrounding whitespace
// and one layer of quotes. Steps that omit max_tokens inherit the
// defaults block. Every step starts idle with an empty output
// regardless of the configuration content.
//
// The resulting pipeline fully replaces any previous one; rebuilding
// while steps have partially run discards that execution progress.
func ParseConfig(text string) (model.Pipeline, error) {
	const (
		sectionNone = iota
		sectionAgents
		sectionDefaults
	)

	var (
		pipeline   model.Pipeline
		current    *model.Step
		section    = sectionNone
		seenAgents = false
	)

	flush := func() {
		if current != nil {
			pipeline.Steps = append(pipeline.Steps, *current)
			current = nil
		}
	}

	for _, rawLine := range strings.Split(text, "\n") {
		if strings.TrimSpace(rawLine) == "" {
			continue
		}

		// Unindented "name:" lines open top-level sections.
		if !strings.HasPrefix(rawLine, " ") && !strings.HasPrefix(rawLine, "\t") {
			marker := strings.TrimSuffix(strings.TrimSpace(rawLine), ":")
			switch strings.ToLower(marker) {
			case "agents":
				section = sectionAgents
				seenAgents = true
			case "defaults":
				flush()
				section = sectionDefaults
			default:
				flush()
				section = sectionNone
			}
			continue
		}

		key, value, ok := splitKeyValue(rawLine)
		if !ok {
			continue
		}

		switch section {
		case sectionAgents:
			if key == "id" {
				flush()
				if value != "" {
					current = &model.Step{ID: value, Status: model.StepIdle}
				}
				continue
			}
			if current == nil {
				continue
			}
			switch key {
			case "name":
				current.Name = value
			case "provider":
				current.Provider = value
			case "model":
				current.Model = value
			case "system_prompt":
				current.SystemPrompt = value
			case "user_prompt_template":
				current.UserTemplate = value
			case "max_tokens":
				if n, err := strconv.Atoi(value); err == nil {
					current.MaxTokens = n
				}
			}
		case sectionDefaults:
			switch key {
			case "temperature":
				if f, err := strconv.ParseFloat(value, 64); err == nil {
					pipeline.Defaults.Temperature = f
				}
			case "max_tokens":
				if n, err := strconv.Atoi(value); err == nil {
					pipeline.Defaults.MaxTokens = n
				}
			}
		}
	}
	flush()

	if !seenAgents {
		return model.Pipeline{}, ErrInvalidConfig
	}

	for i := range pipeline.Steps {
		if pipeline.Steps[i].MaxTokens == 0 {
			pipeline.Steps[i].MaxTokens = pipeline.Defaults.MaxTokens
		}
	}
	return pipeline, nil
}

// splitKeyValue classifies an indented "key: value" line, tolerating
// the list dash the dialect uses in front of id lines.
func splitKeyValue(line string) (string, string, bool) {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "- ")
	key, value, found := strings.Cut(s, ":")
	if !found {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(key)), utils.CleanCell(value), true
}

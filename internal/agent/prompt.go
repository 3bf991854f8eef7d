package agent

import (
	"fmt"
	"strings"

	"supplyline/internal/model"
)

// Placeholder tokens recognized in a step's user-prompt template.
const (
	PlaceholderDataContext    = "{{DATA_CONTEXT}}"
	PlaceholderPreviousOutput = "{{PREVIOUS_OUTPUT}}"
)

// noPreviousOutput is substituted for the first step of a run.
const noPreviousOutput = "none"

// BuildUserPrompt renders a step's user prompt: the data-context
// placeholder becomes a serialized snapshot of the current metrics,
// category leaders and date range; the previous-output placeholder
// becomes the preceding step's output text.
func BuildUserPrompt(template string, snap model.Snapshot, previous string) string {
	if previous == "" {
		previous = noPreviousOutput
	}
	prompt := strings.ReplaceAll(template, PlaceholderDataContext, renderSnapshot(snap))
	return strings.ReplaceAll(prompt, PlaceholderPreviousOutput, previous)
}

// BuildSystemPrompt concatenates the step's own system prompt with the
// caller-supplied skill document.
func BuildSystemPrompt(stepPrompt, skillDoc string) string {
	if skillDoc == "" {
		return stepPrompt
	}
	if stepPrompt == "" {
		return skillDoc
	}
	return stepPrompt + "\n\n" + skillDoc
}

func renderSnapshot(snap model.Snapshot) string {
	var b strings.Builder
	m := snap.Metrics
	fmt.Fprintf(&b, "Rows: %d total, %d parsed, %d failed\n", m.TotalRows, m.ParsedRows, m.ParseFailures)
	fmt.Fprintf(&b, "Units: %d across %d suppliers\n", m.TotalUnits, m.UniqueSuppliers)
	if m.HasDateRange() {
		fmt.Fprintf(&b, "Date range: %s to %s\n", m.DateStart, m.DateEnd)
	} else {
		b.WriteString("Date range: none\n")
	}
	if len(snap.TopCategories) > 0 {
		b.WriteString("Top categories:\n")
		for _, c := range snap.TopCategories {
			fmt.Fprintf(&b, "- %s: %d units\n", c.Category, c.Units)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
